package commands

import (
	"fmt"

	"github.com/go-nacelle/log/v2"
	"github.com/go-nacelle/pgtrigger"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/flags"
	"github.com/spf13/cobra"
)

func PlanCommand(logger log.Logger) *cobra.Command {
	var (
		databaseURL  string
		manifestPath string
	)

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the DDL a deploy would execute, without connecting to the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return plan(databaseURL, manifestPath)
		},
	}

	flags.RegisterDatabaseURLFlag(planCmd, &databaseURL)
	flags.RegisterManifestFlag(planCmd, &manifestPath)
	return planCmd
}

func plan(databaseURL, manifestPath string) error {
	manifest, err := loadManifest(manifestPath, databaseURL)
	if err != nil {
		return err
	}

	triggers, err := pgtrigger.CollectTriggers(manifest)
	if err != nil {
		return err
	}

	target := manifest.Target().WithDefaults()

	for _, statement := range pgtrigger.PrerequisiteStatements(target) {
		printStatement(statement)
	}

	for _, trigger := range triggers {
		statements, err := pgtrigger.CreateTriggerStatements(target, trigger.FunctionKey, trigger.Spec)
		if err != nil {
			return err
		}

		for _, statement := range statements {
			printStatement(statement)
		}
	}

	return nil
}

func printStatement(statement pgtrigger.Q) {
	query, _ := statement.Format()
	fmt.Printf("%s;\n\n", query)
}
