package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, path string) Config {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg
}

func TestSaveBuild_CreatesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveBuild(path, BuildConfig{Blacklist: []string{"Screw"}, PropagatedTypes: [][]string{{"Steel", "Coated"}}, Workers: 2})
	require.NoError(t, err)

	cfg := readConfig(t, path)
	require.Equal(t, []string{"Screw"}, cfg.Build.Blacklist)
	require.Equal(t, [][]string{{"Steel", "Coated"}}, cfg.Build.PropagatedTypes)
	require.Equal(t, 2, cfg.Build.Workers)
}

func TestSaveBuild_PreservesOtherConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SaveBuild(path, BuildConfig{Blacklist: []string{"Fastener"}, Parallel: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Where parts come from", "comments outside build are kept")
	assert.Contains(t, string(data), "subtype_ttl: 10m")

	cfg := readConfig(t, path)
	require.Equal(t, []string{"Fastener"}, cfg.Build.Blacklist)
	require.True(t, cfg.Build.Parallel)
	require.Equal(t, "sqlite", cfg.Catalog.Driver)
}

func TestSaveBuild_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.Error(t, SaveBuild(path, BuildConfig{Workers: -3}))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "nothing is written for invalid options")
}

func TestSaveBuild_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))
	require.ErrorContains(t, SaveBuild(path, BuildConfig{}), "not a mapping")
}

func TestSaveBuild_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveBuild(path, BuildConfig{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
