package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/querysql"
)

// VehicleFromRow maps a search result row. Rows that are not used listings
// get NotApplicable for the used-only text fields and zero miles.
func VehicleFromRow(row Row) (Vehicle, error) {
	v := Vehicle{
		Category:    row["category"],
		Make:        row["make_name"],
		Model:       row["model_name"],
		BodyStyle:   row["model_type"],
		Description: row["description"],
		Picture:     row["picture"],
	}

	var err error
	if v.Year, err = intColumn(row, "year_model"); err != nil {
		return Vehicle{}, err
	}
	if v.Price, err = intColumn(row, "price"); err != nil {
		return Vehicle{}, err
	}
	if v.MPGCity, err = intColumn(row, "mpg_city"); err != nil {
		return Vehicle{}, err
	}
	if v.MPGHwy, err = intColumn(row, "mpg_hwy"); err != nil {
		return Vehicle{}, err
	}

	if v.IsUsed() {
		v.VIN = row["vin"]
		v.IntColor = row["int_color"]
		v.ExtColor = row["ext_color"]
		v.Engine = row["engine_type"]
		v.Transmission = row["transmission"]
		if v.Miles, err = intColumn(row, "miles"); err != nil {
			return Vehicle{}, err
		}
	} else {
		v.VIN = NotApplicable
		v.IntColor = NotApplicable
		v.ExtColor = NotApplicable
		v.Engine = NotApplicable
		v.Transmission = NotApplicable
	}

	if store := row["store_name"]; store != "" {
		count, err := intColumn(row, "count_total")
		if err != nil {
			return Vehicle{}, err
		}
		v.Inventory = map[string]int{store: count}
	}

	return v, nil
}

func intColumn(row Row, col string) (int, error) {
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// numeric aggregates can come back as decimals
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, fmt.Errorf("column %s: %w", col, err)
		}
		n = int(f)
	}
	return n, nil
}

// VehicleRepository loads vehicles for compiled search statements.
type VehicleRepository struct {
	gw *Gateway
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(gw *Gateway) *VehicleRepository {
	return &VehicleRepository{gw: gw}
}

// Find runs stmt and maps every row.
func (r *VehicleRepository) Find(ctx context.Context, stmt querysql.Statement) ([]Vehicle, error) {
	rows, err := r.gw.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}

	vehicles := make([]Vehicle, 0, len(rows))
	for i, row := range rows {
		v, err := VehicleFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("map vehicle row %d: %w", i, err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

// FindOne expects stmt to match exactly one used vehicle.
func (r *VehicleRepository) FindOne(ctx context.Context, stmt querysql.Statement) (Vehicle, error) {
	vehicles, err := r.Find(ctx, stmt)
	if err != nil {
		return Vehicle{}, err
	}
	switch len(vehicles) {
	case 0:
		return Vehicle{}, ErrNotFound
	case 1:
		return vehicles[0], nil
	default:
		return Vehicle{}, ErrAmbiguousVIN
	}
}

// FindModel folds per-store rows of one model into a single vehicle whose
// inventory lists every store. The first row supplies the vehicle details.
func (r *VehicleRepository) FindModel(ctx context.Context, stmt querysql.Statement) (Vehicle, error) {
	vehicles, err := r.Find(ctx, stmt)
	if err != nil {
		return Vehicle{}, err
	}
	if len(vehicles) == 0 {
		return Vehicle{}, ErrNotFound
	}

	merged := vehicles[0]
	merged.Inventory = make(map[string]int, len(vehicles))
	for _, v := range vehicles {
		for store, n := range v.Inventory {
			merged.Inventory[store] += n
		}
	}
	return merged, nil
}
