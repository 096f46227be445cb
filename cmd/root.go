package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/clsforge/internal/config"
	"github.com/zjrosen/clsforge/internal/log"
)

// defaultConfigPath is where a config is created when none is found.
const defaultConfigPath = ".clsforge/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "clsforge",
	Short: "Build typed combinator repositories from CAD part catalogs",
	Long: `clsforge turns a catalog of parts, their joint origins and their
configurations into a repository of typed combinators for type-directed
assembly synthesis.

Parts come from a SQLite catalog (see "catalog import") or directly from
YAML files. The blacklist reserves capability types for connector
synthesis; propagated types thread attributes through every combinator.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .clsforge/config.yaml, then ~/.config/clsforge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"log debug output to stderr (or to $CLSFORGE_LOG)")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("catalog.driver", defaults.Catalog.Driver)
	viper.SetDefault("catalog.path", defaults.Catalog.Path)
	viper.SetDefault("build.blacklist", defaults.Build.Blacklist)
	viper.SetDefault("build.propagated_types", defaults.Build.PropagatedTypes)
	viper.SetDefault("cache.subtype_ttl", defaults.Cache.SubtypeTTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetEnvPrefix("CLSFORGE")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .clsforge/config.yaml (current directory)
		// 2. ~/.config/clsforge/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "clsforge"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				viper.SetConfigFile(defaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setup initializes logging and validates the loaded configuration.
func setup(_ *cobra.Command, _ []string) error {
	if err := initLogging(debugFlag || cfg.Debug || os.Getenv("CLSFORGE_DEBUG") != "", cfg.LogLevel); err != nil {
		return err
	}
	log.Debug(log.CatConfig, "Config loaded", "file", viper.ConfigFileUsed(), "driver", cfg.Catalog.Driver)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func initLogging(debug bool, level string) error {
	if !debug {
		return nil
	}
	if path := os.Getenv("CLSFORGE_LOG"); path != "" {
		if _, err := log.Init(path); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		return nil
	}
	minLevel := log.LevelDebug
	if level != "" && !debugFlag {
		minLevel = log.ParseLevel(level)
	}
	log.InitWriter(os.Stderr, minLevel)
	return nil
}

// configFilePath returns the config file in use, or the default location.
func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
