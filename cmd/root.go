// Package cmd provides the command-line interface for sitekit with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--output, --port, etc.) - highest priority
//	2. Individual environment variables (SITEKIT_BUILD_OUTPUT_DIR, etc.)
//	3. Configuration file (--config, SITEKIT_CONFIG_FILE or .sitekit.yml)
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	SITEKIT_CONFIG_FILE: Path to custom configuration file
//	SITEKIT_LOG_LEVEL: Default log level
//	SITEKIT_SERVER_PORT: Override server port
//	And many more following the SITEKIT_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sitekit/internal/config"
	"github.com/conneroisu/sitekit/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sitekit",
	Short: "Asset pipeline, section search and preview server for static sites",
	Long: `sitekit builds and previews a hand-written static site.

Key Features:
  • Regex minification of JavaScript, CSS and HTML
  • Image and extra file copying with a size report
  • Section search over a page's main content
  • Preview server with live reload and live search

Quick Start:
  sitekit config init             Write a .sitekit.yml with the defaults
  sitekit build                   Minify and copy assets into the output directory
  sitekit search bolt             Search index.html for "bolt"
  sitekit serve                   Preview the output directory`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sitekit.yml, can also use SITEKIT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. SITEKIT_CONFIG_FILE environment variable
//  3. .sitekit.yml in the current directory
//
// A missing file is not an error; defaults and environment variables apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.DefaultFile, ".yml"))
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the structured logger from --log-level and --log-format,
// falling back to SITEKIT_LOG_LEVEL when the flag is not set.
func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	flags := cmd.Flags()

	levelName, _ := flags.GetString("log-level")
	if !flags.Changed("log-level") {
		if env := os.Getenv(config.EnvPrefix + "_LOG_LEVEL"); env != "" {
			levelName = env
		}
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	format, _ := flags.GetString("log-format")
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}), nil
}
