package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled, "tracing should be disabled by default")
	require.Equal(t, ExporterFile, cfg.Exporter)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), SpanBuildProject)
	require.False(t, span.IsRecording())
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	provider, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile, FilePath: path})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), SpanBuildPart)
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"`+SpanBuildPart+`"`)
}

func TestNewProvider_FileExporterNeedsPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile})
	require.ErrorContains(t, err, "file_path required")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "carrier-pigeon"})
	require.ErrorContains(t, err, "unsupported exporter type")
}

func TestNewProvider_NoneExporter(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: true, Exporter: ExporterNone})
	require.NoError(t, err)
	require.True(t, provider.Enabled())
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestConfig_WithDefaults(t *testing.T) {
	got := Config{Enabled: true, Exporter: ExporterOTLP}.withDefaults()
	require.Equal(t, DefaultServiceName, got.ServiceName)
	require.Equal(t, 1.0, got.SampleRate)
	require.Equal(t, "localhost:4317", got.OTLPEndpoint)

	kept := Config{ServiceName: "forge-ci", SampleRate: 0.25, OTLPEndpoint: "collector:4317"}.withDefaults()
	require.Equal(t, "forge-ci", kept.ServiceName)
	require.Equal(t, 0.25, kept.SampleRate)
	require.Equal(t, "collector:4317", kept.OTLPEndpoint)
}

func TestExporters_CoverConfigNames(t *testing.T) {
	for _, name := range []string{ExporterNone, ExporterFile, ExporterStdout, ExporterOTLP} {
		require.Contains(t, exporters, name)
	}
}
