package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/report"
)

func newDescribeCmd(a *app) *cobra.Command {
	var (
		html   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "describe <file.fuzzer>",
		Short: "Summarize the settings and messages of a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := descriptor.ReadFile(args[0], a.readOptions())
			if err != nil {
				return err
			}

			name := filepath.Base(args[0])
			out := []byte(report.Markdown(d, name))
			if html {
				if out, err = report.HTML(d, name); err != nil {
					return err
				}
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			path, err := descriptor.AvailablePath(output)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, 0644); err != nil {
				return err
			}
			a.notice(cmd, "wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "render HTML instead of Markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file (never overwrites)")
	return cmd
}
