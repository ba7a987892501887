package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf, ServiceName: "spec-compare-test"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).WithOperation("compare").WithModel("520R").WithComparison("cmp-1").Info().
		Int("differences", 3).
		Msg("comparison complete")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "spec-compare-test", line["service"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "cmp-1", line["comparison_id"])
	assert.Equal(t, "compare", line["operation"])
	assert.Equal(t, "520R", line["model"])
	assert.Equal(t, float64(3), line["differences"])
	assert.Equal(t, "comparison complete", line["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warning", "warn"},
		{"error", "error"},
		{"", "info"},
		{"nonsense", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in).String())
		})
	}
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: "json", Output: &buf})
	logger.WithContext(context.Background()).Info().Msg("no request")
	assert.NotContains(t, buf.String(), "request_id")
	assert.NotContains(t, buf.String(), "service")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.DocumentBuilt("success", 0.25)
	m.DocumentBuilt("failed", 0.1)
	m.ComparisonRun("success", 4)
	m.UnitMiss()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `spec_documents_built_total{status="success"} 1`)
	assert.Contains(t, text, `spec_documents_built_total{status="failed"} 1`)
	assert.Contains(t, text, `spec_comparisons_total{status="success"} 1`)
	assert.Contains(t, text, "spec_differences_total 4")
	assert.Contains(t, text, "spec_unit_lookup_misses_total 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DocumentBuilt("success", 1)
		m.ComparisonRun("success", 1)
		m.UnitMiss()
	})
}
