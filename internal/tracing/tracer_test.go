package tracing

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	// Spans from the noop tracer are safe to create and end.
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestNewProvider_RejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "jaeger"})
	require.Error(t, err)
}

func TestFileExporter_WritesSpansAsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "out.jsonl")

	p, err := NewProvider(Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   path,
		SampleRate: 1.0,
	})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "compile")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record SpanRecord
	require.NoError(t, json.Unmarshal(data, &record))
	require.Equal(t, "compile", record.Name)
	require.NotEmpty(t, record.TraceID)
}
