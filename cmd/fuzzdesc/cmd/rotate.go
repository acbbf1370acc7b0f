package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fuzzdesc/internal/clock"
	"fuzzdesc/internal/core"
)

func newRotateCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "rotate <file.fuzzer>",
		Short: "Advance to the next fuzz target and print it",
		Long: `rotate moves the persisted fuzz target cursor of a descriptor one step,
wrapping after the last target. The cursor survives comment and marker edits
but starts over when a message payload changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := core.NewFileStateStore(a.cfg.Path(a.cfg.State.File))
			if reset {
				found, err := core.ResetRotation(args[0], store)
				if err != nil {
					return err
				}
				if found {
					a.notice(cmd, "rotation of %s reset", args[0])
				} else {
					a.notice(cmd, "%s has no stored rotation", args[0])
				}
				return nil
			}

			res, err := core.RotateTarget(args[0], store, clock.RealClock{}, &a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.Target)
			a.notice(cmd, "%s target %d of %d (rotation %d)",
				color.CyanString(res.Path), res.Cursor+1, res.Targets, res.Rotations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "forget the stored cursor instead of rotating")
	return cmd
}
