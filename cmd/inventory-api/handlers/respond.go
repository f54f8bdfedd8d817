// Package handlers provides HTTP handlers for the Inventory Engine API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/inventory"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/storage"
)

// InventoryService is the part of inventory.Service the handlers use.
type InventoryService interface {
	Ready() bool
	Catalog() catalog.View
	Advanced(ctx context.Context, params url.Values) (*inventory.AdvancedResult, error)
	Explain(ctx context.Context, params url.Values) (*inventory.Explanation, error)
	Basic(ctx context.Context, text string) ([]storage.Vehicle, error)
	Category(ctx context.Context, model string) ([]storage.Vehicle, error)
	UsedVehicle(ctx context.Context, vin string) (storage.Vehicle, error)
	NewVehicle(ctx context.Context, model string) (storage.Vehicle, error)
	Stores(ctx context.Context) ([]storage.Dealership, error)
}

var _ InventoryService = (*inventory.Service)(nil)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
