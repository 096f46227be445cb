package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	start := time.Now()
	stubs := []tracetest.SpanStub{
		{
			Name:       SpanBuildProject,
			StartTime:  start,
			EndTime:    start.Add(250 * time.Millisecond),
			Attributes: []attribute.KeyValue{attribute.String(AttrProjectID, "arm"), attribute.Int(AttrEntries, 4)},
			Status:     sdktrace.Status{Code: codes.Ok},
		},
		{
			Name:      SpanBuildPart,
			StartTime: start,
			EndTime:   start.Add(time.Millisecond),
			Status:    sdktrace.Status{Code: codes.Error, Description: "missing field"},
			Events:    []sdktrace.Event{{Name: EventConfigurationSkipped}},
		},
	}
	require.NoError(t, exp.ExportSpans(context.Background(), tracetest.SpanStubs(stubs).Snapshots()))
	require.NoError(t, exp.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	require.Equal(t, SpanBuildProject, records[0].Name)
	require.Equal(t, "OK", records[0].Status)
	require.Equal(t, "arm", records[0].Attributes[AttrProjectID])
	require.InDelta(t, 250.0, records[0].DurationMs, 0.01)

	require.Equal(t, "ERROR", records[1].Status)
	require.Equal(t, "missing field", records[1].StatusMsg)
	require.Equal(t, []string{EventConfigurationSkipped}, records[1].Events)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))

	stub := tracetest.SpanStub{Name: "late"}
	err = exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.Error(t, err)
}
