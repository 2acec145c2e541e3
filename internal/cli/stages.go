package cli

import (
	"github.com/spf13/cobra"
)

func NewRunCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, transform, check and load in one pass",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runPipeline(c, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Run every stage except load")
	return cmd
}

func NewExtractCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Fetch flights from the API",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runExtract(c, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the batch to this file ('-' for stdout)")
	return cmd
}

func NewTransformCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rename columns and normalize values of an extracted batch",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runTransform(c, opts)
		},
	}
	addInOut(cmd, opts)
	return cmd
}

func NewCheckCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run data quality checks on a transformed batch",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runCheck(c, opts)
		},
	}
	addInOut(cmd, opts)
	return cmd
}

func NewLoadCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the destination table with a transformed batch",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runLoad(c, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.In, "in", "i", "", "Batch file to read ('-' for stdin)")
	cmd.MarkFlagRequired("in")
	return cmd
}

func NewHealthCmd(app *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check database, data dir and API credential",
		RunE: func(c *cobra.Command, args []string) error {
			return app.runHealth(c, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Trigger, "trigger", false, "Run the pipeline when every check passes")
	return cmd
}

func addInOut(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.In, "in", "i", "", "Batch file to read ('-' for stdin)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write the batch to this file ('-' for stdout)")
	cmd.MarkFlagRequired("in")
}
