package commands

import (
	"fmt"
	"os"

	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/flags"
	"github.com/spf13/cobra"
)

func GenerateCommand(logger log.Logger) *cobra.Command {
	var (
		manifestPath string
		outputPath   string
	)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Emit custom-resource declarations for the manifest's triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(manifestPath, outputPath)
		},
	}

	flags.RegisterManifestFlag(generateCmd, &manifestPath)
	generateCmd.PersistentFlags().StringVarP(
		&outputPath,
		"output", "o",
		"",
		"Write the declarations to a file instead of stdout",
	)
	return generateCmd
}

func generate(manifestPath, outputPath string) error {
	manifest, err := loadManifest(manifestPath, "")
	if err != nil {
		return err
	}

	rendered, err := pgtrigger.RenderResources(manifest)
	if err != nil {
		return err
	}

	if outputPath == "" {
		fmt.Print(string(rendered))
		return nil
	}

	return os.WriteFile(outputPath, rendered, 0o644)
}
