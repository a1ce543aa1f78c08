package commands

import (
	"context"

	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/flags"
	"github.com/spf13/cobra"
)

func DeployCommand(logger log.Logger) *cobra.Command {
	var (
		databaseURL  string
		manifestPath string
		previousPath string
	)

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision prerequisite objects and triggers for every function in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deploy(databaseURL, manifestPath, previousPath, logger)
		},
	}

	flags.RegisterDatabaseURLFlag(deployCmd, &databaseURL)
	flags.RegisterManifestFlag(deployCmd, &manifestPath)
	flags.RegisterPreviousManifestFlag(deployCmd, &previousPath)
	return deployCmd
}

func deploy(databaseURL, manifestPath, previousPath string, logger log.Logger) error {
	manifest, err := loadManifest(manifestPath, databaseURL)
	if err != nil {
		return err
	}

	var previous *pgtrigger.Manifest
	if previousPath != "" {
		previousManifest, err := loadManifest(previousPath, "")
		if err != nil {
			return err
		}
		previous = &previousManifest
	}

	reconciler := pgtrigger.NewReconciler(logger)
	_, err = pgtrigger.Deploy(context.Background(), logger, reconciler, manifest, previous)
	return err
}
