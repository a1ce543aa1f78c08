package commands

import (
	"context"

	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/flags"
	"github.com/spf13/cobra"
)

func RemoveCommand(logger log.Logger) *cobra.Command {
	var (
		databaseURL  string
		manifestPath string
	)

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Drop the manifest's triggers, leaving prerequisite objects in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			return remove(databaseURL, manifestPath, logger)
		},
	}

	flags.RegisterDatabaseURLFlag(removeCmd, &databaseURL)
	flags.RegisterManifestFlag(removeCmd, &manifestPath)
	return removeCmd
}

func remove(databaseURL, manifestPath string, logger log.Logger) error {
	manifest, err := loadManifest(manifestPath, databaseURL)
	if err != nil {
		return err
	}

	reconciler := pgtrigger.NewReconciler(logger)
	_, err = pgtrigger.Remove(context.Background(), logger, reconciler, manifest)
	return err
}
