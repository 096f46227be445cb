package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/types"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, DriverSQLite, cfg.Catalog.Driver)
	require.Equal(t, 10*time.Minute, cfg.Cache.SubtypeTTL)
	require.False(t, cfg.Tracing.Enabled)
}

func TestValidateCatalog(t *testing.T) {
	require.NoError(t, ValidateCatalog(CatalogConfig{Driver: DriverYAML}))

	err := ValidateCatalog(CatalogConfig{Driver: DriverSQLite})
	require.ErrorContains(t, err, "catalog.path is required")

	err = ValidateCatalog(CatalogConfig{Driver: "postgres", Path: "x"})
	require.ErrorContains(t, err, `got "postgres"`)
}

func TestValidateBuild(t *testing.T) {
	require.NoError(t, ValidateBuild(BuildConfig{Blacklist: []string{"Screw"}, PropagatedTypes: [][]string{{"Steel"}}}))

	require.ErrorContains(t, ValidateBuild(BuildConfig{Workers: -1}), "build.workers")
	require.ErrorContains(t, ValidateBuild(BuildConfig{Blacklist: []string{"A", ""}}), "build.blacklist[1]")
	require.ErrorContains(t, ValidateBuild(BuildConfig{PropagatedTypes: [][]string{{}}}), "build.propagated_types[0]")

	err := ValidateBuild(BuildConfig{Blacklist: []string{"Screw", "(X & Y)"}})
	require.ErrorIs(t, err, types.ErrInvalidTypeName)
	require.ErrorContains(t, err, "build.blacklist[1]")
	err = ValidateBuild(BuildConfig{PropagatedTypes: [][]string{{"Steel"}, {"Alu", "Sheet metal"}}})
	require.ErrorIs(t, err, types.ErrInvalidTypeName)
	require.ErrorContains(t, err, "build.propagated_types[1]")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr string
	}{
		{name: "defaults", cfg: Defaults().Tracing},
		{name: "sample rate too high", cfg: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "negative sample rate", cfg: TracingConfig{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "unknown exporter", cfg: TracingConfig{Exporter: "zipkin"}, wantErr: "tracing.exporter"},
		{name: "otlp without endpoint", cfg: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint"},
		{name: "disabled otlp without endpoint", cfg: TracingConfig{Exporter: "otlp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.SubtypeTTL = -time.Second
	require.ErrorContains(t, cfg.Validate(), "cache.subtype_ttl")
}

// The template must decode through viper into the same values as Defaults.
func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	want := Defaults()
	require.Equal(t, want.Catalog.Driver, cfg.Catalog.Driver)
	require.Equal(t, want.Catalog.Path, cfg.Catalog.Path)
	require.Equal(t, want.Cache.SubtypeTTL, cfg.Cache.SubtypeTTL)
	require.Equal(t, want.Tracing.Exporter, cfg.Tracing.Exporter)
	require.Equal(t, want.Tracing.SampleRate, cfg.Tracing.SampleRate)
	require.Empty(t, cfg.Build.Blacklist)
	require.NoError(t, cfg.Validate())
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
