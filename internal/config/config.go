// Package config provides configuration management for sitekit using Viper
// for loading from .sitekit.yml, SITEKIT_* environment variables and
// command-line flags.
//
// The build section lists the files the asset pipeline minifies and copies;
// the search section names the DOM roles the section-search widget binds
// to; the server section configures the preview server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	siteerrors "github.com/conneroisu/sitekit/internal/errors"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".sitekit.yml"

// EnvPrefix prefixes every environment override, e.g. SITEKIT_BUILD_OUTPUT_DIR.
const EnvPrefix = "SITEKIT"

// EnvKeyReplacer maps nested keys to environment variable names.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

type Config struct {
	Build  BuildConfig  `yaml:"build" mapstructure:"build"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

type BuildConfig struct {
	SourceDir       string   `yaml:"source_dir" mapstructure:"source_dir"`
	OutputDir       string   `yaml:"output_dir" mapstructure:"output_dir"`
	Scripts         []string `yaml:"scripts" mapstructure:"scripts"`
	Stylesheets     []string `yaml:"stylesheets" mapstructure:"stylesheets"`
	Pages           []string `yaml:"pages" mapstructure:"pages"`
	ImagesDir       string   `yaml:"images_dir" mapstructure:"images_dir"`
	ExtraFiles      []string `yaml:"extra_files" mapstructure:"extra_files"`
	Workers         int      `yaml:"workers" mapstructure:"workers"`
	NaiveJSComments bool     `yaml:"naive_js_comments" mapstructure:"naive_js_comments"`
}

type SearchConfig struct {
	InputID        string `yaml:"input_id" mapstructure:"input_id"`
	StatusID       string `yaml:"status_id" mapstructure:"status_id"`
	ContainerID    string `yaml:"container_id" mapstructure:"container_id"`
	DebounceMS     int    `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	HighlightClass string `yaml:"highlight_class" mapstructure:"highlight_class"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// LiveSearch drives the page's search box from the server. Turn it off
	// when the site ships its own search script.
	LiveSearch bool `yaml:"live_search" mapstructure:"live_search"`
}

// Debounce returns the quiescence interval as a duration.
func (s SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// defaults mirrors the layout of a GitHub Pages theme checkout.
var defaults = map[string]interface{}{
	"build.source_dir":        ".",
	"build.output_dir":        "dist",
	"build.scripts":           []string{"javascripts/main.js"},
	"build.stylesheets":       []string{"stylesheets/stylesheet.css", "stylesheets/pygment_trac.css", "stylesheets/print.css"},
	"build.pages":             []string{"index.html"},
	"build.images_dir":        "images",
	"build.extra_files":       []string{"LICENSE", "README.md"},
	"build.workers":           1,
	"build.naive_js_comments": false,
	"search.input_id":         "search_input",
	"search.status_id":        "search_results_info",
	"search.container_id":     "main_content",
	"search.debounce_ms":      300,
	"search.highlight_class":  "search-highlight",
	"server.host":             "localhost",
	"server.port":             8080,
	"server.live_search":      true,
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Default returns the configuration used when no file, env or flag overrides it.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// defaults are static and always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load builds the effective configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the effective configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, siteerrors.WrapConfig(err, siteerrors.CodeInvalidConfig, "failed to decode configuration")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks c after command-line overrides have been applied.
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	b := config.Build
	if b.OutputDir == "" {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig, "build.output_dir must not be empty")
	}
	if b.SourceDir == "" {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig, "build.source_dir must not be empty")
	}
	if samePath(b.SourceDir, b.OutputDir) {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig,
			fmt.Sprintf("build.output_dir %q must differ from build.source_dir", b.OutputDir))
	}
	if b.Workers < 1 {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig,
			fmt.Sprintf("build.workers must be at least 1, got %d", b.Workers))
	}

	s := config.Search
	if s.InputID == "" || s.ContainerID == "" {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig, "search.input_id and search.container_id are required")
	}
	if s.DebounceMS < 0 {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig, "search.debounce_ms must be non-negative")
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return siteerrors.NewConfigError(siteerrors.CodeInvalidConfig,
			fmt.Sprintf("server.port %d out of range", config.Server.Port))
	}

	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return siteerrors.WrapConfig(err, siteerrors.CodeInvalidConfig, "failed to marshal configuration")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return siteerrors.WrapIO(err, siteerrors.CodeWriteFailed, "failed to write configuration", path)
	}
	return nil
}
