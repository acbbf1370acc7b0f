package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fuzzdesc/internal/core"
	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/template"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		defaultComments bool
		noWrap          bool
		delimiter       string
		templatePath    string
		through         int
	)

	cmd := &cobra.Command{
		Use:   "normalize <in.fuzzer> [out.fuzzer]",
		Short: "Rewrite a descriptor in canonical form, converting legacy directives",
		Long: `normalize reads a descriptor and writes it back out. Comments are preserved
unless --default-comments is given. The output never replaces an existing
file: when the target exists, the first free name with a -N suffix is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := core.NormalizeOptions{Write: a.writeOptions(), Quiet: a.quiet, Logger: &a.log}
			if cmd.Flags().Changed("default-comments") {
				opts.Write.DefaultComments = defaultComments
			}
			if cmd.Flags().Changed("delimiter") {
				opts.Write.Delimiter = delimiter
				opts.Write.NoWrap = delimiter == ""
			}
			if noWrap {
				opts.Write.Delimiter = ""
				opts.Write.NoWrap = true
			}
			if templatePath != "" {
				opts.Write.Template = template.File(templatePath)
			}
			if cmd.Flags().Changed("through") {
				opts.Write.Final = descriptor.Through(through)
			}

			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			written, err := core.Normalize(args[0], out, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("wrote"), written)
			return nil
		},
	}

	cmd.Flags().BoolVar(&defaultComments, "default-comments", false, "replace preserved comments with the stock explanations")
	cmd.Flags().BoolVar(&noWrap, "no-wrap", false, "keep every payload on a single line")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", `escaped delimiter long printable payloads are wrapped on (e.g. "\r\n")`)
	cmd.Flags().StringVar(&templatePath, "template", "", "processor template appended after the END FUZZER marker")
	cmd.Flags().IntVar(&through, "through", 0, "write only messages 0 through N")
	return cmd
}
