package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

// LookupRepository reads the reference vocabulary. It implements
// catalog.Source.
type LookupRepository struct {
	db     *sql.DB
	driver string
}

// NewLookupRepository creates a lookup repository for driver.
func NewLookupRepository(db *sql.DB, driver string) *LookupRepository {
	return &LookupRepository{db: db, driver: driver}
}

var _ catalog.Source = (*LookupRepository)(nil)

const (
	bodyStylesQuery = `SELECT DISTINCT model_type FROM vehicle_model WHERE model_type <> '' ORDER BY model_type`
	extColorsQuery  = `SELECT DISTINCT ext_color FROM vehicle_details
		WHERE category = 'used' AND ext_color <> '' ORDER BY ext_color`
	intColorsQuery = `SELECT DISTINCT int_color FROM vehicle_details
		WHERE category = 'used' AND int_color <> '' ORDER BY int_color`
	locationsQuery  = `SELECT store_name FROM store_information ORDER BY store_name`
	makeModelsQuery = `
		SELECT t1.make_name, t2.model_name
		FROM vehicle_make t1
		JOIN vehicle_model t2 ON t1.make_id = t2.make_id
		ORDER BY t1.make_name, t2.model_name`
)

// LookupLists reads the four lists inside one transaction so they describe
// the same snapshot.
func (r *LookupRepository) LookupLists(ctx context.Context) (catalog.LookupLists, error) {
	var opts *sql.TxOptions
	if r.driver == "postgres" {
		opts = &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}
	}

	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return catalog.LookupLists{}, fmt.Errorf("begin lookup read: %w", err)
	}
	defer tx.Rollback()

	var lists catalog.LookupLists
	targets := []struct {
		name  string
		query string
		dst   *[]string
	}{
		{"body styles", bodyStylesQuery, &lists.BodyStyles},
		{"exterior colors", extColorsQuery, &lists.ExteriorColors},
		{"interior colors", intColorsQuery, &lists.InteriorColors},
		{"locations", locationsQuery, &lists.Locations},
	}
	for _, t := range targets {
		values, err := queryStrings(ctx, tx, t.query)
		if err != nil {
			return catalog.LookupLists{}, fmt.Errorf("read %s: %w", t.name, err)
		}
		*t.dst = values
	}

	if err := tx.Commit(); err != nil {
		return catalog.LookupLists{}, fmt.Errorf("commit lookup read: %w", err)
	}
	return lists, nil
}

// MakeModels reads (make, model) pairs ordered by make then model.
func (r *LookupRepository) MakeModels(ctx context.Context) ([]catalog.MakeModel, error) {
	rows, err := r.db.QueryContext(ctx, makeModelsQuery)
	if err != nil {
		return nil, fmt.Errorf("query make/model pairs: %w", err)
	}
	defer rows.Close()

	pairs := []catalog.MakeModel{}
	for rows.Next() {
		var p catalog.MakeModel
		if err := rows.Scan(&p.Make, &p.Model); err != nil {
			return nil, fmt.Errorf("scan make/model pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func queryStrings(ctx context.Context, db DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
