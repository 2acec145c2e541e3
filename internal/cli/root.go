// Package cli wires configuration, logging and the pipeline stages into
// cobra commands. Each stage can run on its own, exchanging batches as JSON
// files, or the whole pipeline can run in one process.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/pkg/logger"
)

// App carries the process-wide dependencies built in main.
type App struct {
	Config *config.Config
	Log    logger.Logger
}

// Options holds the flag values shared by the stage commands.
type Options struct {
	MappingFile string
	Preview     int
	In          string
	Out         string
	DryRun      bool
	Trigger     bool
}

func NewRootCmd(app *App) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "flightetl",
		Short: "flightetl - AviationStack flights ETL",
		Long: `flightetl pulls live flight records from the AviationStack API, normalizes them,
runs observe-only data quality checks and replaces the contents of the flights table.
Stages can run together (run) or one at a time (extract, transform, check, load).`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.MappingFile, "mapping", "m", "", "Path to a field mapping JSON file (default: built-in flight mapping)")
	rootCmd.PersistentFlags().IntVarP(&opts.Preview, "preview", "p", 5, "Number of rows to print after each stage")

	rootCmd.AddCommand(
		NewRunCmd(app, opts),
		NewExtractCmd(app, opts),
		NewTransformCmd(app, opts),
		NewCheckCmd(app, opts),
		NewLoadCmd(app, opts),
		NewHealthCmd(app, opts),
	)
	return rootCmd
}
