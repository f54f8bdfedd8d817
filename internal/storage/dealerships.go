package storage

import (
	"context"
	"fmt"
)

// DealershipRepository reads store locations.
type DealershipRepository struct {
	db DB
}

// NewDealershipRepository creates a new dealership repository.
func NewDealershipRepository(db DB) *DealershipRepository {
	return &DealershipRepository{db: db}
}

// All returns every dealership ordered by name.
func (r *DealershipRepository) All(ctx context.Context) ([]Dealership, error) {
	query := `
		SELECT store_id, store_name, store_address, store_city, store_state,
		       store_zip, store_phone_no, store_hours
		FROM store_information
		ORDER BY store_name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query dealerships: %w", err)
	}
	defer rows.Close()

	var stores []Dealership
	for rows.Next() {
		var d Dealership
		if err := rows.Scan(&d.ID, &d.Name, &d.Address, &d.City, &d.State, &d.Zip, &d.Phone, &d.Hours); err != nil {
			return nil, fmt.Errorf("scan dealership: %w", err)
		}
		stores = append(stores, d)
	}
	return stores, rows.Err()
}
