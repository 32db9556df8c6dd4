package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/solarroi/solarroi/internal/api"
	mw "github.com/solarroi/solarroi/internal/api/middleware"
	"github.com/solarroi/solarroi/internal/cache"
	"github.com/solarroi/solarroi/internal/store"
	"github.com/solarroi/solarroi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore knows no keys, so every authenticated route rejects.
type stubStore struct{}

func (s *stubStore) Ping(_ context.Context) error { return nil }
func (s *stubStore) GetDefaultTenant(_ context.Context) (*models.Tenant, error) {
	return nil, store.ErrNotFound
}
func (s *stubStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error     { return nil }
func (s *stubStore) ListAPIKeys(_ context.Context, _ uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *stubStore) RevokeAPIKey(_ context.Context, _ uuid.UUID, _ uuid.UUID) error { return nil }

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data":{}}`))
}

func allHandlers(deps api.Dependencies) api.Dependencies {
	deps.HealthHandler = ok
	deps.CitiesHandler = ok
	deps.PanelsHandler = ok
	deps.CreateAnalysis = ok
	deps.GetAnalysis = ok
	deps.GetArtifact = ok
	deps.InvalidateIrradiance = ok
	deps.Metrics = http.HandlerFunc(ok)
	return deps
}

func newTestRouter() http.Handler {
	return api.NewRouter(allHandlers(api.Dependencies{
		Auth:      mw.NewAuth(&stubStore{}),
		RateLimit: mw.NewRateLimit(cache.NewMemoryCache(), 60),
	}))
}

var protected = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/api/v1/analyses"},
	{http.MethodGet, "/api/v1/analyses/" + uuid.NewString()},
	{http.MethodGet, "/api/v1/analyses/" + uuid.NewString() + "/artifacts/pdf"},
	{http.MethodDelete, "/api/v1/irradiance/Pune"},
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/api/v1/health", "/api/v1/cities", "/api/v1/panels", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter()

	for _, ep := range protected {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(ep.method, ep.path, nil))

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "INVALID_TOKEN", errObj["code"])
		})
	}
}

func TestRouter_AuthDisabled(t *testing.T) {
	router := api.NewRouter(allHandlers(api.Dependencies{}))

	for _, ep := range protected {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(ep.method, ep.path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouter_MissingHandlerIsNotImplemented(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cities", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

var _ store.Store = (*stubStore)(nil)
