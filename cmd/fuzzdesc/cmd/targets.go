package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fuzzdesc/internal/descriptor"
	"fuzzdesc/internal/rangespec"
	"fuzzdesc/internal/report"
	"fuzzdesc/pkg/address"
)

func newTargetsCmd(a *app) *cobra.Command {
	var (
		set      string
		add      string
		remove   string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "targets <file.fuzzer>",
		Short: "List or change the messages marked for fuzzing",
		Long: `targets lists the fuzz targets of a descriptor. Selections use the form
"1,3-4,2.1" where "i.j" addresses sub-part j of message i. When --set, --add,
--remove or --clear is given the descriptor is written back under a new name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			d, err := descriptor.ReadFile(path, a.readOptions())
			if err != nil {
				return err
			}

			changed := clearAll || set != "" || add != "" || remove != ""
			if clearAll {
				d.ClearFuzzTargets()
			}
			if set != "" {
				if err := d.SetFuzzTargetsFromString(set); err != nil {
					return err
				}
			}
			if err := eachAddress(add, func(t address.Address) {
				if !d.IsFuzzTarget(t) {
					d.AddFuzzTarget(t)
				}
			}); err != nil {
				return err
			}
			if err := eachAddress(remove, func(t address.Address) { d.RemoveFuzzTarget(t) }); err != nil {
				return err
			}
			if err := validateTargets(d); err != nil {
				return err
			}

			if !changed {
				printTargets(cmd, d)
				return nil
			}
			written, err := d.WriteFile(path, a.writeOptions())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (fuzz targets: %s)\n", color.GreenString("wrote"), written, d.FuzzTargetsString())
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "replace the fuzz targets with a selection")
	cmd.Flags().StringVar(&add, "add", "", "mark a selection for fuzzing")
	cmd.Flags().StringVar(&remove, "remove", "", "unmark a selection")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "unmark everything")
	return cmd
}

func eachAddress(selection string, fn func(address.Address)) error {
	if selection == "" {
		return nil
	}
	addrs, err := rangespec.ParseAddresses(selection)
	if err != nil {
		return err
	}
	for _, t := range addrs {
		fn(t)
	}
	return nil
}

// validateTargets rejects targets that point past the messages of d.
func validateTargets(d *descriptor.Descriptor) error {
	for _, t := range d.FuzzTargets() {
		if t.Message >= len(d.Messages) {
			return fmt.Errorf("fuzz target %s: %w", t, descriptor.ErrMessageIndex)
		}
		if t.HasPart && t.Part >= len(d.Messages[t.Message].Subcomponents) {
			return fmt.Errorf("fuzz target %s: %w", t, descriptor.ErrMessageIndex)
		}
	}
	return nil
}

func printTargets(cmd *cobra.Command, d *descriptor.Descriptor) {
	out := cmd.OutOrStdout()
	targets := d.FuzzTargets()
	if len(targets) == 0 {
		fmt.Fprintln(out, "no fuzz targets")
		return
	}
	for i, t := range targets {
		msg := d.Messages[t.Message]
		payload := msg.Original()
		if t.HasPart {
			payload = msg.Subcomponents[t.Part].Original()
		}
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, color.CyanString(t.String()), msg.Direction, report.Preview(payload, report.PreviewWidth))
	}
}
