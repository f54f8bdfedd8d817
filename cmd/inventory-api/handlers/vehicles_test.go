package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/inventory"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

type stubService struct {
	ready bool
	err   error
}

func (s *stubService) Ready() bool           { return s.ready }
func (s *stubService) Catalog() catalog.View { return catalog.Empty().View() }
func (s *stubService) Advanced(context.Context, url.Values) (*inventory.AdvancedResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.AdvancedResult{CatalogReady: s.ready}, nil
}
func (s *stubService) Explain(context.Context, url.Values) (*inventory.Explanation, error) {
	return &inventory.Explanation{}, s.err
}
func (s *stubService) Basic(context.Context, string) ([]storage.Vehicle, error) { return nil, s.err }
func (s *stubService) Category(context.Context, string) ([]storage.Vehicle, error) {
	return nil, s.err
}
func (s *stubService) UsedVehicle(context.Context, string) (storage.Vehicle, error) {
	return storage.Vehicle{}, s.err
}
func (s *stubService) NewVehicle(context.Context, string) (storage.Vehicle, error) {
	return storage.Vehicle{}, s.err
}
func (s *stubService) Stores(context.Context) ([]storage.Dealership, error) { return nil, s.err }

func serve(svc InventoryService, method, target string) *httptest.ResponseRecorder {
	h := NewVehicleHandler(observability.Nop(), svc)
	health := NewHealthHandler(observability.Nop(), svc)

	r := chi.NewRouter()
	r.Get("/ready", health.Ready)
	r.Get("/stores", h.Stores)
	r.Get("/search", h.Search)
	r.Get("/advanced", h.Advanced)
	r.Get("/used/{vin}", h.UsedVehicle)
	r.Get("/new/{model}", h.NewVehicle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestVehicleHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target string
		want   int
	}{
		{"not found", fmt.Errorf("used vehicle X: %w", inventory.ErrNotFound), "/used/X", http.StatusNotFound},
		{"ambiguous", fmt.Errorf("used vehicle X: %w", inventory.ErrAmbiguousVIN), "/used/X", http.StatusConflict},
		{"new model missing", inventory.ErrNotFound, "/new/Supra", http.StatusNotFound},
		{"database down", errors.New("connection reset"), "/search?q=x", http.StatusInternalServerError},
		{"advanced failure", errors.New("connection reset"), "/advanced", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&stubService{err: tt.err}, http.MethodGet, tt.target)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestVehicleHandler_InternalErrorsHideDetail(t *testing.T) {
	rec := serve(&stubService{err: errors.New("pq: password authentication failed")}, http.MethodGet, "/stores")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestVehicleHandler_EmptyListsAreArrays(t *testing.T) {
	rec := serve(&stubService{ready: true}, http.MethodGet, "/stores")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(&stubService{ready: true}, http.MethodGet, "/advanced")
	assert.JSONEq(t, `[]`, jsonField(t, rec, "vehicles"))
	assert.JSONEq(t, `[]`, jsonField(t, rec, "diagnostics"))
}

func TestHealthHandler_Ready(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, serve(&stubService{}, http.MethodGet, "/ready").Code)
	assert.Equal(t, http.StatusOK, serve(&stubService{ready: true}, http.MethodGet, "/ready").Code)
}

func jsonField(t *testing.T, rec *httptest.ResponseRecorder, field string) string {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return string(m[field])
}
