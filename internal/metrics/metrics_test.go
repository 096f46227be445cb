package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/clsforge/internal/builder"
	"github.com/zjrosen/clsforge/internal/cachemanager"
)

func TestRecordBuild_Success(t *testing.T) {
	r := NewRecorder()
	stats := builder.Stats{Parts: 5, Configurations: 5, SkippedBlacklisted: 1, Entries: 6, Substitutes: 1}

	r.RecordBuild("arm", stats, 20*time.Millisecond, nil)
	r.RecordBuild("arm", stats, 30*time.Millisecond, nil)

	require.Equal(t, 2.0, testutil.ToFloat64(r.builds.WithLabelValues("arm", OutcomeSuccess)))
	require.Equal(t, 10.0, testutil.ToFloat64(r.parts.WithLabelValues("arm")))
	require.Equal(t, 12.0, testutil.ToFloat64(r.entries.WithLabelValues("arm")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.skipped.WithLabelValues("arm")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.substitutes.WithLabelValues("arm")))
	require.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRecordBuild_Error(t *testing.T) {
	r := NewRecorder()
	r.RecordBuild("arm", builder.Stats{Parts: 3}, time.Millisecond, errors.New("boom"))

	require.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("arm", OutcomeError)))
	require.Zero(t, testutil.CollectAndCount(r.parts))
	require.Zero(t, testutil.CollectAndCount(r.lastSuccess))
}

func TestRecordCache_OverwritesCounters(t *testing.T) {
	r := NewRecorder()
	r.RecordCache("subtypes", cachemanager.Stats{Hits: 1, Misses: 4})
	r.RecordCache("subtypes", cachemanager.Stats{Hits: 9, Misses: 5})

	require.Equal(t, 9.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("subtypes", "hit")))
	require.Equal(t, 5.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("subtypes", "miss")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordBuild("arm", builder.Stats{Parts: 1, Entries: 1, Configurations: 1}, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "clsforge.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `clsforge_builder_builds_total{outcome="success",project="arm"} 1`)
	require.Contains(t, string(data), `clsforge_builder_entries_total{project="arm"} 1`)
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
}
