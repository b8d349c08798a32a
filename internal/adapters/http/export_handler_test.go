package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/3-lines-studio/lander/internal/core"
	"github.com/3-lines-studio/lander/internal/usecase"
)

type fakeExporter struct {
	out      usecase.ExportOutput
	received usecase.ExportInput
	calls    int
}

func (f *fakeExporter) Export(ctx context.Context, in usecase.ExportInput) usecase.ExportOutput {
	f.calls++
	f.received = in
	return f.out
}

func okOutput() usecase.ExportOutput {
	return usecase.ExportOutput{
		Archive: []byte("PK-archive"),
		Report: core.ExportReport{
			ExportID:      "abc",
			DistGenerated: true,
			Warnings:      []core.ExportWarning{{Type: core.WarningAsset, Message: "fetch failed"}},
		},
	}
}

const validBody = `{"project":{"sections":[{"id":"s1","type":"hero"}]},"uiHints":{"viewport":"mobile"}}`

func TestExportHandlerStreamsArchive(t *testing.T) {
	exporter := &fakeExporter{out: okOutput()}
	handler := NewExportHandler(exporter, 0, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="abc.zip"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "abc", rec.Header().Get("X-Lander-Export-Id"))
	assert.Equal(t, "1", rec.Header().Get("X-Lander-Warnings"))
	assert.Equal(t, "true", rec.Header().Get("X-Lander-Dist-Generated"))
	assert.Equal(t, "PK-archive", rec.Body.String())

	require.NotNil(t, exporter.received.Project)
	assert.Len(t, exporter.received.Project.Sections, 1)
	assert.Equal(t, "mobile", exporter.received.Hints.Viewport)
}

func TestExportHandlerReportOnly(t *testing.T) {
	handler := NewExportHandler(&fakeExporter{out: okOutput()}, 0, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export?report=1", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report core.ExportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "abc", report.ExportID)
	assert.Len(t, report.Warnings, 1)
}

func TestExportHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		maxBytes int64
		out      usecase.ExportOutput
		want     int
		exported bool
	}{
		{name: "malformed json", body: `{"project":`, want: http.StatusBadRequest},
		{name: "missing project", body: `{"uiHints":{}}`, want: http.StatusBadRequest},
		{name: "too large", body: validBody, maxBytes: 8, want: http.StatusRequestEntityTooLarge},
		{
			name:     "no archive",
			body:     validBody,
			out:      usecase.ExportOutput{Error: errors.New("project is required")},
			want:     http.StatusInternalServerError,
			exported: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := &fakeExporter{out: tt.out}
			handler := NewExportHandler(exporter, tt.maxBytes, zaptest.NewLogger(t))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(tt.body)))

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.exported, exporter.calls > 0)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestExportHandlerServesArchiveDespiteError(t *testing.T) {
	out := okOutput()
	out.Error = errors.New("partial")
	handler := NewExportHandler(&fakeExporter{out: out}, 0, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(validBody)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK-archive", rec.Body.String())
}
