package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fuzzdesc/internal/config"
	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/logging"
	"fuzzdesc/internal/template"
)

// app carries what every subcommand needs once the persistent flags are parsed.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	quiet bool
}

// NewRootCmd builds the fuzzdesc command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "fuzzdesc",
		Short: "Read, normalize and edit .fuzzer protocol descriptors",
		Long: `fuzzdesc parses .fuzzer descriptors (the settings and message exchange of a
network fuzzing campaign), writes them back in canonical form without losing
comments, and manages which messages are marked for fuzzing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "configuration file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace|debug|info|warn|error|off)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(
		newNormalizeCmd(a),
		newCheckCmd(a),
		newTargetsCmd(a),
		newRotateCmd(a),
		newDescribeCmd(a),
		newBrowseCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree and exits with status 1 on failure.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	cfgPath, _ := flags.GetString("config")
	quiet, _ := flags.GetBool("quiet")
	level, _ := flags.GetString("log-level")
	colorFlag, _ := flags.GetString("color")

	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(cmd.OutOrStdout())
	default:
		return fmt.Errorf("invalid --color %q (want auto, on or off)", colorFlag)
	}

	cfg, err := config.Load(cfgPath, cfgPath != "")
	if err != nil {
		return err
	}
	if level == "" {
		level = cfg.Log.Level
	}

	var out io.Writer
	if w := cmd.ErrOrStderr(); w != io.Writer(os.Stderr) {
		out = w
	}
	log, err := logging.Configure(logging.ProfileRuntime, logging.Options{
		Level:   level,
		File:    cfg.Path(cfg.Log.File),
		NoColor: colorFlag == "off",
		Out:     out,
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.quiet = quiet
	return nil
}

func (a *app) readOptions() descriptor.ReadOptions {
	return descriptor.ReadOptions{Quiet: a.quiet, Logger: &a.log}
}

func (a *app) writeOptions() descriptor.WriteOptions {
	opts := descriptor.WriteOptions{
		DefaultComments: a.cfg.Write.DefaultComments,
		Delimiter:       a.cfg.Write.Delimiter,
		NoWrap:          a.cfg.Write.Delimiter == "",
		Logger:          &a.log,
	}
	if t := a.cfg.Path(a.cfg.Write.Template); t != "" {
		opts.Template = template.File(t)
	}
	return opts
}

// notice prints a non-essential line unless --quiet is set.
func (a *app) notice(cmd *cobra.Command, format string, args ...any) {
	if a.quiet {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
