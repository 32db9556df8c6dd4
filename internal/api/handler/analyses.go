package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/solarroi/solarroi/internal/api/response"
	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/internal/pipeline"
	"github.com/solarroi/solarroi/internal/report"
)

// Multipart form field names accepted by POST /api/v1/analyses.
const (
	FieldImages     = "images"
	FieldCities     = "cities"
	FieldPanelTypes = "panel_types"
)

const defaultMaxRequestBytes = 64 << 20

// UploadChecker validates an upload by name and size before it is read.
type UploadChecker interface {
	CheckUpload(name string, size int64) error
}

// BatchRunner runs a batch of items to completion.
type BatchRunner interface {
	RunBatch(ctx context.Context, items []pipeline.Item) pipeline.BatchResult
}

// AnalysesConfig configures the analysis endpoints.
type AnalysesConfig struct {
	OutputDir       string
	ResultTTL       time.Duration
	MaxRequestBytes int64
}

// Analyses serves batch submission, retrieval and artifact downloads.
type Analyses struct {
	catalog *catalog.Catalog
	checker UploadChecker
	runner  BatchRunner
	cache   cache.Cache
	cfg     AnalysesConfig
}

func NewAnalyses(cat *catalog.Catalog, checker UploadChecker, runner BatchRunner, c cache.Cache, cfg AnalysesConfig) *Analyses {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = defaultMaxRequestBytes
	}
	return &Analyses{catalog: cat, checker: checker, runner: runner, cache: c, cfg: cfg}
}

// AnalysisView is one rooftop in a batch response.
type AnalysisView struct {
	Record report.Record  `json:"record"`
	Charts []report.Chart `json:"charts,omitempty"`
}

// BatchResponse is the body returned for a completed batch and cached for later retrieval.
type BatchResponse struct {
	BatchID   uuid.UUID         `json:"batch_id"`
	StartedAt time.Time         `json:"started_at"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Analyses  []AnalysisView    `json:"analyses"`
	Summary   string            `json:"summary"`
	Artifacts map[string]string `json:"artifacts"`
}

// Create handles POST /api/v1/analyses. The batch runs synchronously; per-image
// failures are reported inside the response rather than failing the request.
func (h *Analyses) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE",
				fmt.Sprintf("Request body exceeds %d bytes", h.cfg.MaxRequestBytes), nil)
			return
		}
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := h.readUploads(r.MultipartForm.File[FieldImages])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error(), nil)
		return
	}

	items, err := pipeline.BuildItems(uploads,
		r.MultipartForm.Value[FieldCities], r.MultipartForm.Value[FieldPanelTypes],
		h.catalog.DefaultCity, h.catalog.DefaultPanel)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	batch := h.runner.RunBatch(r.Context(), items)
	records := report.NewRecords(batch)

	artifacts, err := report.WriteAll(h.batchDir(batch.BatchID), records)
	if err != nil {
		slog.Error("exporting batch", "batch_id", batch.BatchID, "error", err)
		response.Error(w, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to write report artifacts", nil)
		return
	}

	resp := newBatchResponse(batch, records, artifacts)
	h.remember(r.Context(), resp)
	response.Created(w, resp)
}

// Get handles GET /api/v1/analyses/{batchID}.
func (h *Analyses) Get(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseBatchID(w, r)
	if !ok {
		return
	}

	data, found, err := h.cache.Get(r.Context(), cache.BatchResultKey(batchID))
	if err != nil {
		slog.Error("reading cached batch", "batch_id", batchID, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load batch", nil)
		return
	}
	if !found {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Batch not found or expired", nil)
		return
	}
	response.JSON(w, json.RawMessage(data))
}

// Artifact handles GET /api/v1/analyses/{batchID}/artifacts/{format}.
func (h *Analyses) Artifact(w http.ResponseWriter, r *http.Request) {
	batchID, ok := parseBatchID(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	if !slices.Contains(report.Formats, format) {
		response.Error(w, http.StatusBadRequest, "INVALID_FORMAT",
			fmt.Sprintf("Unknown format %q", format), map[string]any{"formats": report.Formats})
		return
	}

	path := filepath.Join(h.batchDir(batchID), report.FileName(format))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Artifact not found", nil)
			return
		}
		slog.Error("opening artifact", "path", path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open artifact", nil)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open artifact", nil)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(format)))
	http.ServeContent(w, r, report.FileName(format), info.ModTime(), f)
}

// readUploads reads every image part. A part that fails the upload check is
// not read; it is passed on as a rejected upload so only that item fails.
func (h *Analyses) readUploads(files []*multipart.FileHeader) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(files))
	for _, fh := range files {
		if err := h.checker.CheckUpload(fh.Filename, fh.Size); err != nil {
			uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Rejected: err})
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// remember caches the response so GET can serve it. A cache failure only costs retrieval.
func (h *Analyses) remember(ctx context.Context, resp BatchResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("encoding batch for cache", "batch_id", resp.BatchID, "error", err)
		return
	}
	if err := h.cache.Set(ctx, cache.BatchResultKey(resp.BatchID), data, h.cfg.ResultTTL); err != nil {
		slog.Warn("caching batch", "batch_id", resp.BatchID, "error", err)
	}
}

func (h *Analyses) batchDir(batchID uuid.UUID) string {
	return filepath.Join(h.cfg.OutputDir, batchID.String())
}

func newBatchResponse(batch pipeline.BatchResult, records []report.Record, written map[string]string) BatchResponse {
	views := make([]AnalysisView, len(records))
	for i, rec := range records {
		views[i] = AnalysisView{Record: rec, Charts: report.Charts(rec)}
	}

	links := make(map[string]string, len(written))
	for format := range written {
		links[format] = fmt.Sprintf("/api/v1/analyses/%s/artifacts/%s", batch.BatchID, format)
	}

	return BatchResponse{
		BatchID:   batch.BatchID,
		StartedAt: batch.StartedAt,
		ElapsedMS: batch.Elapsed.Milliseconds(),
		Succeeded: batch.Succeeded(),
		Failed:    batch.Failed(),
		Analyses:  views,
		Summary:   report.Summary(records),
		Artifacts: links,
	}
}

func parseBatchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "batchID must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
