package flags

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func RegisterNoColorFlag(cmd *cobra.Command) {
	var noColor bool

	cmd.PersistentFlags().BoolVarP(
		&noColor,
		"no-color",
		"",
		false,
		"Disable color output",
	)

	registerPreRun(cmd, func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}

		return nil
	})
}

func registerPreRun(cmd *cobra.Command, f func(cmd *cobra.Command, args []string) error) {
	previous := cmd.PersistentPreRunE

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if previous != nil {
			if err := previous(cmd, args); err != nil {
				return err
			}
		}

		return f(cmd, args)
	}
}
