package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/database"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/flags"
	"github.com/spf13/cobra"
)

func StateCommand(logger log.Logger) *cobra.Command {
	var (
		databaseURL  string
		manifestPath string
	)

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Display declared triggers against the live database state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return state(databaseURL, manifestPath, logger)
		},
	}

	flags.RegisterDatabaseURLFlag(stateCmd, &databaseURL)
	flags.RegisterManifestFlag(stateCmd, &manifestPath)
	flags.RegisterNoColorFlag(stateCmd)
	return stateCmd
}

func state(databaseURL, manifestPath string, logger log.Logger) error {
	manifest, err := loadManifest(manifestPath, databaseURL)
	if err != nil {
		return err
	}

	triggers, err := pgtrigger.CollectTriggers(manifest)
	if err != nil {
		return err
	}

	target := manifest.Target().WithDefaults()
	if target.URL == "" {
		target.URL = pgtrigger.DefaultDatabaseURL()
	}
	if target.URL == "" {
		target.URL = pgtrigger.BuildDatabaseURL()
	}

	return database.WithConnection(target.URL, logger, func(db pgtrigger.DB) error {
		ctx := context.Background()

		satisfied, err := pgtrigger.PrerequisitesSatisfied(ctx, db, target)
		if err != nil {
			return err
		}

		if satisfied {
			color.New(color.FgGreen).Printf("✓ prerequisites for namespace %q are in place\n\n", target.Namespace)
		} else {
			color.New(color.FgYellow).Printf("! prerequisites for namespace %q are missing (run deploy)\n\n", target.Namespace)
		}

		live, err := pgtrigger.DescribeTriggers(ctx, db, target.Namespace)
		if err != nil {
			return err
		}

		liveByName := map[string]pgtrigger.TriggerDescription{}
		for _, description := range live {
			liveByName[description.Name] = description
		}

		for _, trigger := range triggers {
			name := pgtrigger.DeriveTriggerName(target.Namespace, trigger.FunctionKey)

			if description, ok := liveByName[name]; ok {
				delete(liveByName, name)
				color.New(color.FgGreen).Printf("✓ %s\t%s.%s\n", name, description.TableSchema, description.TableName)
			} else {
				color.New(color.FgRed).Printf("✗ %s\t%s\t(declared but missing)\n", name, trigger.Spec.Table)
			}
		}

		for name, description := range liveByName {
			color.New(color.FgYellow).Printf("? %s\t%s.%s\t(live but undeclared)\n", name, description.TableSchema, description.TableName)
		}

		if len(triggers) == 0 && len(liveByName) == 0 {
			fmt.Println("no triggers declared or live")
		}

		return nil
	})
}
