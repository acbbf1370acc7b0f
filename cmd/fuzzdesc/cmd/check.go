package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fuzzdesc/internal/core"
)

func newCheckCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "check <file.fuzzer>...",
		Short: "Parse descriptors and report which ones are invalid",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("jobs") {
				jobs = a.cfg.Check.Jobs
			}
			results, err := core.CheckFiles(cmd.Context(), args, jobs, &a.log)
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), res.Path, res.Err)
					continue
				}
				if !a.quiet {
					fmt.Fprintf(out, "%s %s (%d messages, %d fuzz targets)\n",
						color.GreenString("ok  "), res.Path, res.Messages, res.Targets)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d descriptors failed to parse", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "descriptors parsed in parallel (0 = GOMAXPROCS)")
	return cmd
}
