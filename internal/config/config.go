// Package config provides configuration types and defaults for clsforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/clsforge/internal/log"
	"github.com/zjrosen/clsforge/internal/types"
)

// Catalog drivers.
const (
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
)

// Config holds all configuration options for clsforge.
type Config struct {
	Catalog  CatalogConfig   `mapstructure:"catalog"`
	Taxonomy TaxonomyConfig  `mapstructure:"taxonomy"`
	Build    BuildConfig     `mapstructure:"build"`
	Cache    CacheConfig     `mapstructure:"cache"`
	Tracing  TracingConfig   `mapstructure:"tracing"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Flags    map[string]bool `mapstructure:"flags"`
	Debug    bool            `mapstructure:"debug"`
	LogLevel string          `mapstructure:"log_level"` // debug, info, warn, error
}

// CatalogConfig selects where parts come from.
type CatalogConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" (default) or "yaml"
	// Path is the database file for sqlite.
	Path string `mapstructure:"path"`
	// Files are the catalog files for yaml.
	Files []string `mapstructure:"files"`
}

// TaxonomyConfig points at the subtype declarations.
type TaxonomyConfig struct {
	Path string `mapstructure:"path"` // YAML file: subtypes: {Name: [Super, ...]}
}

// BuildConfig holds the repository builder options.
type BuildConfig struct {
	Blacklist          []string   `mapstructure:"blacklist" yaml:"blacklist"`
	PropagatedTypes    [][]string `mapstructure:"propagated_types" yaml:"propagated_types"`
	ConnectJointOrigin string     `mapstructure:"connect_joint_origin" yaml:"connect_joint_origin,omitempty"`
	Parallel           bool       `mapstructure:"parallel" yaml:"parallel"`
	Workers            int        `mapstructure:"workers" yaml:"workers"` // 0 = GOMAXPROCS
}

// CacheConfig controls memoisation of subtype checks.
type CacheConfig struct {
	SubtypeTTL time.Duration `mapstructure:"subtype_ttl"` // 0 disables the cache
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	// Enabled controls whether build spans are recorded.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/clsforge/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after every build when set, for the node
	// exporter textfile collector.
	Textfile string `mapstructure:"textfile"`
}

// DefaultTracesFilePath returns ~/.config/clsforge/traces/traces.jsonl, or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clsforge", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Catalog: CatalogConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(".clsforge", "catalog.db"),
		},
		Build: BuildConfig{
			Blacklist:       []string{},
			PropagatedTypes: [][]string{},
		},
		Cache: CacheConfig{
			SubtypeTTL: 10 * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags:    map[string]bool{},
		LogLevel: "info",
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateCatalog(c.Catalog); err != nil {
		return err
	}
	if err := ValidateBuild(c.Build); err != nil {
		return err
	}
	if c.Cache.SubtypeTTL < 0 {
		return fmt.Errorf("cache.subtype_ttl must not be negative, got %v", c.Cache.SubtypeTTL)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateCatalog checks the catalog driver and its location.
func ValidateCatalog(cat CatalogConfig) error {
	switch cat.Driver {
	case DriverSQLite, "":
		if cat.Path == "" {
			return fmt.Errorf("catalog.path is required for the sqlite driver")
		}
	case DriverYAML:
		// Files may also be given on the command line.
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", DriverSQLite, DriverYAML, cat.Driver)
	}
	return nil
}

// ValidateBuild checks builder options.
func ValidateBuild(b BuildConfig) error {
	if b.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative, got %d", b.Workers)
	}
	for i, name := range b.Blacklist {
		if name == "" {
			return fmt.Errorf("build.blacklist[%d]: name is required", i)
		}
		if err := types.ValidateName(name); err != nil {
			return fmt.Errorf("build.blacklist[%d]: %w", i, err)
		}
	}
	for i, set := range b.PropagatedTypes {
		if len(set) == 0 {
			return fmt.Errorf("build.propagated_types[%d]: at least one type is required", i)
		}
		if err := types.ValidateNames(set...); err != nil {
			return fmt.Errorf("build.propagated_types[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter once tracing is on.
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# clsforge configuration

# Where parts come from
catalog:
  driver: sqlite              # "sqlite" or "yaml"
  path: .clsforge/catalog.db  # sqlite database file
  # files:                    # yaml catalog files (driver: yaml)
  #   - parts/arm.yaml

# Subtype declarations: a YAML file with
#   subtypes:
#     M6Screw: [Screw]
#     Screw: [Fastener]
taxonomy:
  path: ""

# Repository builder
build:
  # Capability types reserved for connector synthesis. Configurations
  # providing them (or subtypes) are left out; required slots whose filler
  # would provide them get a connector marker instead. Needs a taxonomy.
  blacklist: []
  # Attribute types threaded through every configuration, one list each.
  # propagated_types:
  #   - [Steel]
  propagated_types: []
  parallel: false
  workers: 0                  # 0 = number of CPUs

cache:
  subtype_ttl: 10m            # 0 disables the subtype cache

# OpenTelemetry spans for builds
tracing:
  enabled: false
  exporter: file              # none, file, stdout, otlp
  # file_path: ~/.config/clsforge/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Prometheus textfile written after each build
metrics:
  textfile: ""

# Feature flags
# flags:
#   parallel-build: true
#   strict-motion: true
#   watch-table: true

log_level: info
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
