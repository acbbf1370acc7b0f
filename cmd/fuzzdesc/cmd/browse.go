package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/tui"
)

// newBrowseCmd launches the interactive descriptor browser.
func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file.fuzzer>",
		Short: "Browse messages and toggle fuzz markers interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := descriptor.ReadFile(args[0], descriptor.ReadOptions{Quiet: true, Logger: &a.log})
			if err != nil {
				return err
			}
			// keep console logs off the alt screen
			w := a.writeOptions()
			w.Logger = nil
			if err := tui.Run(args[0], d, tui.Options{Write: w, Logger: &a.log}); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}
			return nil
		},
	}
}
