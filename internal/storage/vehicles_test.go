package storage

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/querysql"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/search"
)

func statement(sql string, args ...any) querysql.Statement {
	return querysql.Statement{SQL: sql, Args: args}
}

func TestVehicleFromRow_Used(t *testing.T) {
	v, err := VehicleFromRow(Row{
		"vin": "2HGFC2F59KH100004", "category": "used", "make_name": "Honda", "model_name": "Civic",
		"model_type": "Sedan", "year_model": "2019", "price": "17400", "miles": "28000",
		"mpg_city": "30", "mpg_hwy": "38", "int_color": "Black", "ext_color": "Red",
		"engine_type": "2.0L I4", "transmission": "manual", "store_name": "Downtown", "count_total": "1",
	})
	require.NoError(t, err)

	assert.True(t, v.IsUsed())
	assert.Equal(t, "2HGFC2F59KH100004", v.VIN)
	assert.Equal(t, 2019, v.Year)
	assert.Equal(t, 28000, v.Miles)
	assert.Equal(t, "manual", v.Transmission)
	assert.Equal(t, map[string]int{"Downtown": 1}, v.Inventory)
}

func TestVehicleFromRow_NewHidesUsedOnlyFields(t *testing.T) {
	v, err := VehicleFromRow(Row{
		"vin": "ignored", "category": "new", "make_name": "Toyota", "model_name": "Camry",
		"year_model": "2024", "price": "28400.0", "miles": "0", "int_color": "", "ext_color": "",
		"engine_type": "2.5L I4", "transmission": "automatic", "store_name": "Downtown", "count_total": "9",
	})
	require.NoError(t, err)

	assert.False(t, v.IsUsed())
	assert.Equal(t, 28400, v.Price)
	for _, field := range []string{v.VIN, v.IntColor, v.ExtColor, v.Engine, v.Transmission} {
		assert.Equal(t, NotApplicable, field)
	}
	assert.Zero(t, v.Miles)
	assert.Equal(t, 9, v.TotalInventory())
}

func TestVehicleFromRow_BadNumber(t *testing.T) {
	_, err := VehicleFromRow(Row{"category": "used", "price": "cheap"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column price")
}

// searchFixture wires the seeded database, its catalog and a sqlite compiler.
type searchFixture struct {
	repo     *VehicleRepository
	catalog  *catalog.Catalog
	compiler *querysql.Compiler
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	db := seededDB(t)

	cat, err := catalog.Load(context.Background(), NewLookupRepository(db, "sqlite"))
	require.NoError(t, err)

	return &searchFixture{
		repo:     NewVehicleRepository(NewGateway(db)),
		catalog:  cat,
		compiler: querysql.NewCompiler(querysql.SQLite),
	}
}

func (f *searchFixture) statement(t *testing.T, q queryir.Query) querysql.Statement {
	t.Helper()
	stmt, err := f.compiler.Compile(q)
	require.NoError(t, err)
	return stmt
}

func (f *searchFixture) advanced(t *testing.T, rawQuery string) ([]Vehicle, search.Result) {
	t.Helper()
	params, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)

	res := search.Parse(params, f.catalog, search.DefaultOptions())
	plan := search.Compile(res.Filter)

	vehicles, err := f.repo.Find(context.Background(), f.statement(t, plan.Query))
	require.NoError(t, err)
	return vehicles, res
}

func prices(vs []Vehicle) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = v.Price
	}
	return out
}

func TestAdvancedSearch_EndToEnd(t *testing.T) {
	f := newSearchFixture(t)

	tests := []struct {
		name       string
		query      string
		wantPrices []int
		wantCount  int
	}{
		{
			name:       "used by make sorted by price",
			query:      "category=used&make=Honda&SortBy1=price&SortOrder1=ASC",
			wantPrices: []int{12900, 17400, 24800},
		},
		{
			name:       "new by location collapses per model",
			query:      "category=new&location=Downtown&SortBy1=price&SortOrder1=ASC",
			wantPrices: []int{25100, 28400, 31500},
		},
		{
			name:       "model with owning make searches by model only",
			query:      "make=Ford&model=Taurus&SortBy1=price&SortOrder1=DESC",
			wantPrices: []int{11800, 9800},
		},
		{
			name:       "mileage cap applies to used only",
			query:      "category=used&milesMax=30000&SortBy1=miles&SortOrder1=ASC",
			wantPrices: []int{24800, 17400},
		},
		{
			name:      "manual transmission",
			query:     "category=used&transmission=manual",
			wantCount: 2,
		},
		{
			name:      "union of used and new",
			query:     "model=Civic",
			wantCount: 3,
		},
		{
			name:      "everything",
			query:     "",
			wantCount: 17,
		},
		{
			name:      "unrecognized color matches nothing",
			query:     "category=used&extColor=Purple",
			wantCount: 0,
		},
		{
			name:      "make and unrelated model",
			query:     "make=Toyota&model=Civic",
			wantCount: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles, res := f.advanced(t, tt.query)
			assert.True(t, res.CatalogReady)
			if tt.wantPrices != nil {
				assert.Equal(t, tt.wantPrices, prices(vehicles))
				return
			}
			assert.Len(t, vehicles, tt.wantCount)
		})
	}
}

func TestAdvancedSearch_NewInventorySummed(t *testing.T) {
	f := newSearchFixture(t)

	vehicles, _ := f.advanced(t, "category=new&model=Camry")
	require.Len(t, vehicles, 1)
	assert.Equal(t, "Camry", vehicles[0].Model)
	assert.Equal(t, NotApplicable, vehicles[0].VIN)
	assert.Equal(t, 9, vehicles[0].TotalInventory())
}

func TestAdvancedSearch_InjectionIsInert(t *testing.T) {
	f := newSearchFixture(t)

	vehicles, res := f.advanced(t, "category=used&make=Honda%27%20OR%20%271%27%3D%271&SortBy1=price%3B%20DROP%20TABLE%20vehicle_details&SortOrder1=ASC")
	assert.Empty(t, vehicles)
	assert.NotEmpty(t, res.Diagnostics)

	// the table is still there
	vehicles, _ = f.advanced(t, "category=used")
	assert.Len(t, vehicles, 12)
}

func TestKeywordSearch(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	vehicles, err := f.repo.Find(ctx, f.statement(t, search.Keyword("CIVIC")))
	require.NoError(t, err)
	assert.Equal(t, []int{12900, 17400, 25100}, prices(vehicles))

	vehicles, err = f.repo.Find(ctx, f.statement(t, search.Keyword("honda suv")))
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "CR-V", vehicles[0].Model)

	vehicles, err = f.repo.Find(ctx, f.statement(t, search.Keyword("100%")))
	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestCategorySearch(t *testing.T) {
	f := newSearchFixture(t)

	vehicles, err := f.repo.Find(context.Background(), f.statement(t, search.Category("Camry")))
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, []int{18300, 28400}, prices(vehicles))
	assert.True(t, vehicles[0].IsUsed())
	assert.False(t, vehicles[1].IsUsed())
}

func TestVehicleRepository_FindOne(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	v, err := f.repo.FindOne(ctx, f.statement(t, search.UsedByVIN("2HGFC2F59KH100004")))
	require.NoError(t, err)
	assert.Equal(t, "Civic", v.Model)
	assert.Equal(t, 28000, v.Miles)
	assert.Equal(t, map[string]int{"Downtown": 1}, v.Inventory)

	_, err = f.repo.FindOne(ctx, f.statement(t, search.UsedByVIN("NOPE")))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.repo.FindOne(ctx, f.statement(t, search.Keyword("civic")))
	assert.ErrorIs(t, err, ErrAmbiguousVIN)
}

func TestVehicleRepository_FindModel(t *testing.T) {
	f := newSearchFixture(t)
	ctx := context.Background()

	v, err := f.repo.FindModel(ctx, f.statement(t, search.NewByModel("Camry")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Downtown": 2, "Lakeshore": 4, "Northside": 3}, v.Inventory)
	assert.Equal(t, 9, v.TotalInventory())
	assert.Equal(t, NotApplicable, v.VIN)

	_, err = f.repo.FindModel(ctx, f.statement(t, search.NewByModel("Tacoma")))
	assert.ErrorIs(t, err, ErrNotFound)
}
