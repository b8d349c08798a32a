package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/3-lines-studio/lander/internal/core"
	"github.com/3-lines-studio/lander/internal/usecase"
)

const defaultMaxRequestBytes = 256 << 20

type Exporter interface {
	Export(ctx context.Context, in usecase.ExportInput) usecase.ExportOutput
}

type exportRequest struct {
	Project *core.ProjectDocument `json:"project"`
	UIHints core.UIHints          `json:"uiHints"`
}

type ExportHandler struct {
	exporter Exporter
	maxBytes int64
	logger   *zap.Logger
}

func NewExportHandler(exporter Exporter, maxBytes int64, logger *zap.Logger) *ExportHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxRequestBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exporter: exporter, maxBytes: maxBytes, logger: logger}
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body exportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, h.maxBytes))
	if err := dec.Decode(&body); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, fmt.Errorf("decode request: %w", err))
		return
	}
	if body.Project == nil {
		writeError(w, http.StatusBadRequest, errors.New("project is required"))
		return
	}

	out := h.exporter.Export(req.Context(), usecase.ExportInput{Project: body.Project, Hints: body.UIHints})
	if out.Error != nil && len(out.Archive) == 0 {
		h.logger.Error("export failed", zap.Error(out.Error))
		writeError(w, http.StatusInternalServerError, out.Error)
		return
	}

	w.Header().Set("X-Lander-Export-Id", out.Report.ExportID)
	w.Header().Set("X-Lander-Warnings", strconv.Itoa(len(out.Report.Warnings)))
	w.Header().Set("X-Lander-Dist-Generated", strconv.FormatBool(out.Report.DistGenerated))

	if req.URL.Query().Get("report") == "1" {
		writeJSON(w, http.StatusOK, out.Report)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, out.Report.ExportID))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Archive)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
