package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/sitekit/internal/build"
	"github.com/conneroisu/sitekit/internal/config"
	"github.com/conneroisu/sitekit/internal/minify"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Minify scripts, stylesheets and pages and copy assets",
	Long: `Build the site into the output directory.

Scripts, stylesheets and pages listed in the configuration are minified;
the images directory and extra files are copied. A size report is printed
when the build finishes.

Examples:
  sitekit build                     # Build with .sitekit.yml or defaults
  sitekit build --output public     # Write into ./public
  sitekit build --workers 4         # Minify up to four files at once`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("output", "o", "", "Output directory (overrides build.output_dir)")
	buildCmd.Flags().StringP("source", "s", "", "Source directory (overrides build.source_dir)")
	buildCmd.Flags().IntP("workers", "w", 0, "Files minified concurrently (overrides build.workers)")
	buildCmd.Flags().Bool("naive-js-comments", false, "Strip every // to end of line in JavaScript, including inside strings")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyBuildFlags(cmd, &cfg.Build)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	pipeline := build.NewPipeline(build.PlanFromConfig(cfg.Build),
		build.WithWorkers(cfg.Build.Workers),
		build.WithMinifier(minify.Minifier{JS: minify.JSOptions{NaiveComments: cfg.Build.NaiveJSComments}}),
		build.WithLogger(logger),
		build.WithOutput(cmd.OutOrStdout()),
	)

	_, err = pipeline.Run(cmd.Context())
	return err
}

func applyBuildFlags(cmd *cobra.Command, cfg *config.BuildConfig) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("source") {
		cfg.SourceDir, _ = flags.GetString("source")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("naive-js-comments") {
		cfg.NaiveJSComments, _ = flags.GetBool("naive-js-comments")
	}
}
