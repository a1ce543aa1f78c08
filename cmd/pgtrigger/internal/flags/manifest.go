package flags

import "github.com/spf13/cobra"

func RegisterManifestFlag(cmd *cobra.Command, manifestPath *string) {
	cmd.PersistentFlags().StringVarP(
		manifestPath,
		"manifest", "f",
		"service.yml",
		"The service manifest declaring functions and their trigger events",
	)
}

func RegisterPreviousManifestFlag(cmd *cobra.Command, previousPath *string) {
	cmd.PersistentFlags().StringVarP(
		previousPath,
		"previous", "p",
		"",
		"The previously deployed manifest; enables old-target trigger cleanup",
	)
}
