package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/inventory"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/search"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

// VehicleHandler handles vehicle search and lookup requests.
type VehicleHandler struct {
	logger  *observability.Logger
	service InventoryService
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(logger *observability.Logger, service InventoryService) *VehicleHandler {
	return &VehicleHandler{logger: logger, service: service}
}

// VehicleListDTO is a list of vehicles.
type VehicleListDTO struct {
	Count    int               `json:"count"`
	Vehicles []storage.Vehicle `json:"vehicles"`
}

// AdvancedSearchDTO is the response to an advanced search.
type AdvancedSearchDTO struct {
	Count        int                 `json:"count"`
	Vehicles     []storage.Vehicle   `json:"vehicles"`
	Filter       search.Filter       `json:"filter"`
	Diagnostics  []search.Diagnostic `json:"diagnostics"`
	CatalogReady bool                `json:"catalogReady"`
}

// Search handles GET /vehicles/search?q=.
func (h *VehicleHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	vehicles, err := h.service.Basic(r.Context(), q)
	if err != nil {
		h.fail(w, r, "basic search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, listDTO(vehicles))
}

// Category handles GET /vehicles/category/{model}.
func (h *VehicleHandler) Category(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	vehicles, err := h.service.Category(r.Context(), model)
	if err != nil {
		h.fail(w, r, "category search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, listDTO(vehicles))
}

// Advanced handles GET and POST /vehicles/advanced. Parameters come from the
// query string and, for POST, the form body. With explain=true the compiled
// statement is returned instead of results.
func (h *VehicleHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form", err.Error())
		return
	}

	if explain, _ := strconv.ParseBool(r.Form.Get("explain")); explain {
		exp, err := h.service.Explain(r.Context(), r.Form)
		if err != nil {
			h.fail(w, r, "explain failed", err)
			return
		}
		writeJSON(w, http.StatusOK, exp)
		return
	}

	res, err := h.service.Advanced(r.Context(), r.Form)
	if err != nil {
		h.fail(w, r, "advanced search failed", err)
		return
	}

	diags := res.Diagnostics
	if diags == nil {
		diags = []search.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, AdvancedSearchDTO{
		Count:        len(res.Vehicles),
		Vehicles:     nonNil(res.Vehicles),
		Filter:       res.Filter,
		Diagnostics:  diags,
		CatalogReady: res.CatalogReady,
	})
}

// UsedVehicle handles GET /vehicles/used/{vin}.
func (h *VehicleHandler) UsedVehicle(w http.ResponseWriter, r *http.Request) {
	vin := chi.URLParam(r, "vin")
	v, err := h.service.UsedVehicle(r.Context(), vin)
	if err != nil {
		h.fail(w, r, "used vehicle lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// NewVehicle handles GET /vehicles/new/{model}.
func (h *VehicleHandler) NewVehicle(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	v, err := h.service.NewVehicle(r.Context(), model)
	if err != nil {
		h.fail(w, r, "new vehicle lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Stores handles GET /stores.
func (h *VehicleHandler) Stores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.Stores(r.Context())
	if err != nil {
		h.fail(w, r, "store listing failed", err)
		return
	}
	if stores == nil {
		stores = []storage.Dealership{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *VehicleHandler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "vehicle not found", err.Error())
	case errors.Is(err, inventory.ErrAmbiguousVIN):
		writeError(w, http.StatusConflict, "ambiguous vin", err.Error())
	default:
		h.logger.WithContext(r.Context()).Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, "")
	}
}

func listDTO(vehicles []storage.Vehicle) VehicleListDTO {
	return VehicleListDTO{Count: len(vehicles), Vehicles: nonNil(vehicles)}
}

func nonNil(vehicles []storage.Vehicle) []storage.Vehicle {
	if vehicles == nil {
		return []storage.Vehicle{}
	}
	return vehicles
}
