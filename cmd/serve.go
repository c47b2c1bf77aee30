package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/sitekit/internal/config"
	"github.com/conneroisu/sitekit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Preview the output directory with live reload",
	Long: `Serve the output directory over HTTP.

Pages reload when files in the output directory change, so running
"sitekit build" in another terminal refreshes open tabs. Unless disabled,
the page's search box is driven by the server over a websocket.

Examples:
  sitekit serve                     # Serve on localhost:8080
  sitekit serve --port 3000         # Serve on another port
  sitekit serve --no-live-search    # Leave the page's own search script alone`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on (overrides server.port)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringP("output", "o", "", "Directory to serve (overrides build.output_dir)")
	serveCmd.Flags().Bool("no-live-search", false, "Do not drive the search box from the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	return server.New(cfg, logger).Start(cmd.Context())
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("output") {
		cfg.Build.OutputDir, _ = flags.GetString("output")
	}
	if noLive, _ := flags.GetBool("no-live-search"); noLive {
		cfg.Server.LiveSearch = false
	}
}
