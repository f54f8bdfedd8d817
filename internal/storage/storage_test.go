package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

// openTestDB returns a migrated in-memory sqlite database. One connection
// keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewMigrator(db, "sqlite").Up(ctx)
	require.NoError(t, err)
	return db
}

// seededDB returns a test database loaded with the demo fixture.
func seededDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)

	fx, err := LoadFixture("")
	require.NoError(t, err)
	_, err = Seed(context.Background(), db, "sqlite", fx, nil)
	require.NoError(t, err)
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, rebind("sqlite", q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", rebind("postgres", q))
}

func TestMigrator(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()

	m := NewMigrator(db, "sqlite")

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.Applied)
	assert.Equal(t, []string{"0001_inventory"}, status.Pending)
	assert.False(t, status.UpToDate())

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_inventory"}, applied)

	applied, err = m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.UpToDate())
	assert.Equal(t, []string{"0001_inventory"}, status.Applied)

	for _, table := range []string{"vehicle_make", "vehicle_model", "vehicle_details", "store_information", "vehicle_count"} {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n), table)
		assert.Zero(t, n, table)
	}
}

func TestLoadFixture_Demo(t *testing.T) {
	fx, err := LoadFixture("")
	require.NoError(t, err)

	assert.Len(t, fx.Stores, 3)
	assert.Len(t, fx.Makes, 4)
	assert.Len(t, fx.Used, 12)
	assert.Len(t, fx.New, 5)
	assert.Equal(t, 37, fx.Total())
}

func TestLoadFixture_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lot.yaml")
	data := `
stores:
  - {name: Airport}
makes:
  - name: Mazda
    models:
      - {name: CX-5, type: SUV}
used:
  - {vin: JM3KFBCM1N0100001, model: CX-5, store: Airport, year: 2022, price: 23900, miles: 18000, ext_color: Red, int_color: Black, transmission: automatic}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	fx, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, fx.Used, 1)
	assert.Equal(t, "CX-5", fx.Used[0].Model)
	assert.Equal(t, 18000, fx.Used[0].Miles)
	assert.Equal(t, 4, fx.Total())

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fx, err := LoadFixture("")
	require.NoError(t, err)

	var calls, last, total int
	stats, err := Seed(ctx, db, "sqlite", fx, func(done, n int) {
		calls++
		last, total = done, n
	})
	require.NoError(t, err)

	assert.Equal(t, SeedStats{Stores: 3, Makes: 4, Models: 9, Vehicles: 21}, stats)
	assert.Equal(t, fx.Total(), calls)
	assert.Equal(t, total, last)

	// seeding again replaces rather than duplicates
	_, err = Seed(ctx, db, "sqlite", fx, nil)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicle_details").Scan(&n))
	assert.Equal(t, 21, n)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vehicle_details WHERE category = 'new'").Scan(&n))
	assert.Equal(t, 9, n)
}

func TestSeed_UnknownModelRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	fx := &Fixture{
		Stores: []Dealership{{Name: "Downtown"}},
		Makes:  []FixtureMake{{Name: "Ford", Models: []FixtureModel{{Name: "Taurus", Type: "Sedan"}}}},
		Used: []FixtureUsed{{
			FixtureSpec: FixtureSpec{Model: "Mustang", Year: 2015, Price: 15000},
			VIN:         "1FA6P8AM0F5100001",
			Store:       "Downtown",
		}},
	}

	_, err := Seed(ctx, db, "sqlite", fx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "Mustang"`)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM store_information").Scan(&n))
	assert.Zero(t, n)
}

func TestGateway_Query(t *testing.T) {
	db := openTestDB(t)
	gw := NewGateway(db)

	rows, err := gw.Query(context.Background(), statement("SELECT 1 AS One, NULL AS Two, ? AS Three", "x"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"one": "1", "two": "", "three": "x"}, rows[0])

	_, err = gw.Query(context.Background(), statement("SELECT * FROM no_such_table"))
	require.Error(t, err)
}

func TestDealershipRepository_All(t *testing.T) {
	db := seededDB(t)

	stores, err := NewDealershipRepository(db).All(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 3)

	assert.Equal(t, "Downtown", stores[0].Name)
	assert.Equal(t, "Lakeshore", stores[1].Name)
	assert.Equal(t, "Northside", stores[2].Name)
	assert.Equal(t, "100 Main St", stores[0].Address)
	assert.Equal(t, "62701", stores[0].Zip)
}

func TestLookupRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLookupRepository(seededDB(t), "sqlite")

	lists, err := repo.LookupLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUV", "Sedan", "Truck"}, lists.BodyStyles)
	assert.Equal(t, []string{"Black", "Blue", "Gray", "Red", "Silver", "White"}, lists.ExteriorColors)
	assert.Equal(t, []string{"Black", "Gray", "Tan"}, lists.InteriorColors)
	assert.Equal(t, []string{"Downtown", "Lakeshore", "Northside"}, lists.Locations)

	pairs, err := repo.MakeModels(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 9)
	assert.Equal(t, catalog.MakeModel{Make: "Ford", Model: "Escape"}, pairs[0])
	assert.Equal(t, catalog.MakeModel{Make: "Toyota", Model: "Tacoma"}, pairs[8])
}

func TestLookupRepository_EmptyDatabaseStillComplete(t *testing.T) {
	repo := NewLookupRepository(openTestDB(t), "sqlite")

	cat, err := catalog.Load(context.Background(), repo)
	require.NoError(t, err)
	assert.True(t, cat.Ready())
	assert.Empty(t, cat.Makes())
}

func TestLookupRepository_FeedsCatalog(t *testing.T) {
	cat, err := catalog.Load(context.Background(), NewLookupRepository(seededDB(t), "sqlite"))
	require.NoError(t, err)

	assert.True(t, cat.IsMake("Toyota"))
	assert.True(t, cat.IsModel("CR-V"))
	assert.True(t, cat.MakeOwnsModel("Honda", "CR-V"))
	assert.False(t, cat.MakeOwnsModel("Ford", "CR-V"))
	assert.True(t, cat.IsLocation("Lakeshore"))
	assert.False(t, cat.IsExteriorColor("Purple"))
	assert.Equal(t, []string{"Ford", "Honda", "Nissan", "Toyota"}, cat.Makes())
}
