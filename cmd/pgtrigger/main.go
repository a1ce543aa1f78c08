package main

import (
	"os"

	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/commands"
	"github.com/go-nacelle/pgtrigger/cmd/pgtrigger/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgtrigger",
	Short: "Provision Postgres triggers that forward row change events to serverless functions",
}

func init() {
	logger, err := logging.CreateLogger()
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(commands.DeployCommand(logger))
	rootCmd.AddCommand(commands.RemoveCommand(logger))
	rootCmd.AddCommand(commands.PlanCommand(logger))
	rootCmd.AddCommand(commands.StateCommand(logger))
	rootCmd.AddCommand(commands.GenerateCommand(logger))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
