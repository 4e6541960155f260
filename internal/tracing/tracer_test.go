package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, "prodtests", cfg.ServiceName)
	require.Equal(t, 1.0, cfg.SampleRate)
}

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	require.False(t, span.SpanContext().IsValid())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "jaeger"})
	require.ErrorContains(t, err, "unsupported exporter")
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), SpanRun)
	span.SetAttributes(attribute.String(AttrTestSetID, "all"))
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var rec SpanRecord
	require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
	require.Equal(t, SpanRun, rec.Name)
	require.Equal(t, "all", rec.Attributes[AttrTestSetID])
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.Error(t, exp.ExportSpans(context.Background(), nil))
}

func TestTransport_RecordsClientSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	client := &http.Client{Transport: NewTransport(nil, tp.Tracer("test"))}

	resp, err := client.Get(srv.URL + "/production-tests/S3908-15")
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = client.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "backend.GET", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	require.Equal(t, "/production-tests/S3908-15", attrs[AttrHTTPPath].AsString())
	require.EqualValues(t, 200, attrs[AttrHTTPStatus].AsInt64())
	require.Equal(t, "Error", spans[1].Status().Code.String())
}

func TestNewTransport_NilTracer(t *testing.T) {
	require.Equal(t, http.DefaultTransport, NewTransport(nil, nil))
}
