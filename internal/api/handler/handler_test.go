package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/solarroi/solarroi/internal/api/handler"
	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/internal/catalog"
	"github.com/solarroi/solarroi/internal/pipeline"
	"github.com/solarroi/solarroi/internal/report"
	"github.com/solarroi/solarroi/internal/solar"
	"github.com/solarroi/solarroi/internal/vision"
	"github.com/solarroi/solarroi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedIrradiance struct{ watts float64 }

func (f fixedIrradiance) GetIrradiance(_ context.Context, city string) (models.IrradianceReading, error) {
	return models.IrradianceReading{City: city, WattsPerM2: f.watts, Source: models.SourceLive, FetchedAt: time.Now()}, nil
}

type stubInvalidator struct {
	cities []string
	err    error
}

func (s *stubInvalidator) Invalidate(_ context.Context, city string) error {
	s.cities = append(s.cities, city)
	return s.err
}

type env struct {
	router    http.Handler
	outputDir string
	cache     *cache.MemoryCache
}

func newEnv(t *testing.T) env {
	t.Helper()
	cat := catalog.Default()
	det := vision.NewLocalDetector(vision.Config{MinWidth: 100, MinHeight: 100, MaxBytes: 1 << 20, NominalAreaM2: 100})
	calc := solar.NewCalculator(cat, solar.CalculatorParams{EnergyCapPerM2: 100, SystemLoss: 0.14, ReferenceIrradiance: 600})
	est := solar.NewEstimator(cat, solar.EstimatorParams{TariffRate: 7.8, PaybackFloorYears: 4})
	coord := pipeline.NewCoordinator(cat, det, fixedIrradiance{watts: 600}, calc, est,
		pipeline.Config{Concurrency: 2, ScratchDir: t.TempDir()})

	mem := cache.NewMemoryCache()
	out := t.TempDir()
	h := handler.NewAnalyses(cat, det, coord, mem, handler.AnalysesConfig{OutputDir: out, ResultTTL: time.Hour})

	r := chi.NewRouter()
	r.Get("/api/v1/cities", handler.NewCitiesHandler(cat))
	r.Get("/api/v1/panels", handler.NewPanelsHandler(cat))
	r.Post("/api/v1/analyses", h.Create)
	r.Get("/api/v1/analyses/{batchID}", h.Get)
	r.Get("/api/v1/analyses/{batchID}/artifacts/{format}", h.Artifact)
	return env{router: r, outputDir: out, cache: mem}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 160, G: 155, B: 150, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, files []upload, fields map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(handler.FieldImages, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(name, v))
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func createBatch(t *testing.T, e env, files []upload, fields map[string][]string) handler.BatchResponse {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, multipartRequest(t, files, fields))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[handler.BatchResponse](t, w)
}

func TestCreate_RunsBatchAndWritesArtifacts(t *testing.T) {
	e := newEnv(t)
	img := pngBytes(t)

	resp := createBatch(t, e,
		[]upload{{"roof-a.png", img}, {"roof-b.png", img}},
		map[string][]string{handler.FieldCities: {"Pune"}, handler.FieldPanelTypes: {"monocrystalline", "bifacial"}},
	)

	assert.NotEqual(t, uuid.Nil, resp.BatchID)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Analyses, 2)

	first := resp.Analyses[0].Record
	assert.Equal(t, 1, first.RooftopID)
	assert.Equal(t, "roof-a.png", first.ImageName)
	assert.Equal(t, "Pune", first.City)
	assert.Equal(t, "monocrystalline", first.PanelType)
	assert.Equal(t, "bifacial", resp.Analyses[1].Record.PanelType)
	assert.Empty(t, first.Error)
	assert.Len(t, resp.Analyses[0].Charts, 2)
	assert.Contains(t, resp.Summary, "Rooftop 1")

	require.Len(t, resp.Artifacts, len(report.Formats))
	for _, format := range report.Formats {
		assert.Equal(t, fmt.Sprintf("/api/v1/analyses/%s/artifacts/%s", resp.BatchID, format), resp.Artifacts[format])
		assert.FileExists(t, filepath.Join(e.outputDir, resp.BatchID.String(), report.FileName(format)))
	}
}

func TestCreate_ItemFailureDoesNotFailRequest(t *testing.T) {
	e := newEnv(t)

	resp := createBatch(t, e,
		[]upload{{"good.png", pngBytes(t)}, {"broken.png", []byte("not an image at all")}},
		map[string][]string{handler.FieldCities: {"Chennai"}},
	)

	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	failed := resp.Analyses[1].Record
	assert.True(t, strings.HasPrefix(failed.Error, "Analysis failed:"), failed.Error)
	assert.Empty(t, resp.Analyses[1].Charts)
}

func TestCreate_RejectedUploadFailsOnlyItsItem(t *testing.T) {
	img := pngBytes(t)

	tests := []struct {
		name   string
		bad    upload
		reason string
	}{
		{"unsupported extension", upload{"bad.gif", img}, "unsupported file type"},
		{"empty file", upload{"empty.png", nil}, "file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)

			resp := createBatch(t, e,
				[]upload{{"good.png", img}, tt.bad},
				map[string][]string{handler.FieldCities: {"Pune"}},
			)

			assert.Equal(t, 1, resp.Succeeded)
			assert.Equal(t, 1, resp.Failed)
			require.Len(t, resp.Analyses, 2)

			good := resp.Analyses[0].Record
			assert.Empty(t, good.Error)
			assert.Greater(t, good.AnnualEnergyKWh, 0.0)

			bad := resp.Analyses[1].Record
			assert.Equal(t, tt.bad.name, bad.ImageName)
			assert.Equal(t, "Pune", bad.City)
			assert.True(t, strings.HasPrefix(bad.Error, "Analysis failed:"), bad.Error)
			assert.Contains(t, bad.Error, tt.reason)
		})
	}
}

func TestCreate_RejectsBadRequests(t *testing.T) {
	img := pngBytes(t)

	tests := []struct {
		name   string
		files  []upload
		fields map[string][]string
		code   string
	}{
		{"no images", nil, map[string][]string{handler.FieldCities: {"Pune"}}, "INVALID_REQUEST"},
		{
			"city count mismatch",
			[]upload{{"a.png", img}, {"b.png", img}, {"c.png", img}},
			map[string][]string{handler.FieldCities: {"Pune", "Jaipur"}},
			"INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, multipartRequest(t, tt.files, tt.fields))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errCode(t, w))
		})
	}
}

func TestCreate_RejectsNonMultipart(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader(`{"images":[]}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errCode(t, w))
}

func TestGet_ReturnsCachedBatch(t *testing.T) {
	e := newEnv(t)
	created := createBatch(t, e, []upload{{"roof.png", pngBytes(t)}}, nil)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+created.BatchID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[handler.BatchResponse](t, w)
	assert.Equal(t, created.BatchID, got.BatchID)
	require.Len(t, got.Analyses, 1)
	assert.Equal(t, created.Analyses[0].Record.RunID, got.Analyses[0].Record.RunID)
}

func TestGet_Errors(t *testing.T) {
	e := newEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArtifact_Download(t *testing.T) {
	e := newEnv(t)
	created := createBatch(t, e, []upload{{"roof.png", pngBytes(t)}}, nil)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, created.Artifacts[report.FormatCSV], nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "solar_analysis.csv")
	header, _, _ := strings.Cut(w.Body.String(), "\n")
	assert.Equal(t, strings.Join(report.Columns(), ","), strings.TrimSpace(header))
}

func TestArtifact_Errors(t *testing.T) {
	e := newEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+uuid.NewString()+"/artifacts/docx", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", errCode(t, w))

	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+uuid.NewString()+"/artifacts/pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandlers(t *testing.T) {
	e := newEnv(t)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cities", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cities := decodeData[[]models.City](t, w)
	assert.Len(t, cities, 10)

	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/panels", nil))
	require.Equal(t, http.StatusOK, w.Code)
	panels := decodeData[[]models.PanelType](t, w)
	assert.Len(t, panels, 3)
}

func TestInvalidateIrradiance(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"unknown city", fmt.Errorf("%w: %q", catalog.ErrUnsupportedLocation, "Atlantis"), http.StatusNotFound},
		{"cache failure", errors.New("redis down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &stubInvalidator{err: tt.err}
			r := chi.NewRouter()
			r.Delete("/api/v1/irradiance/{city}", handler.NewInvalidateIrradianceHandler(inv))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/irradiance/Mumbai", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, []string{"Mumbai"}, inv.cities)
		})
	}
}
