package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is a seed data set.
type Fixture struct {
	Stores []Dealership  `yaml:"stores"`
	Makes  []FixtureMake `yaml:"makes"`
	Used   []FixtureUsed `yaml:"used"`
	New    []FixtureNew  `yaml:"new"`
}

// FixtureMake is a make with its models.
type FixtureMake struct {
	Name   string         `yaml:"name"`
	Models []FixtureModel `yaml:"models"`
}

// FixtureModel is one model and its body style.
type FixtureModel struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// FixtureSpec holds the fields shared by used and new listings.
type FixtureSpec struct {
	Model        string `yaml:"model"`
	Year         int    `yaml:"year"`
	Price        int    `yaml:"price"`
	MPGCity      int    `yaml:"mpg_city"`
	MPGHwy       int    `yaml:"mpg_hwy"`
	Engine       string `yaml:"engine"`
	Transmission string `yaml:"transmission"`
	Description  string `yaml:"description"`
	Picture      string `yaml:"picture"`
}

// FixtureUsed is one used vehicle on one lot.
type FixtureUsed struct {
	FixtureSpec `yaml:",inline"`
	VIN         string `yaml:"vin"`
	Store       string `yaml:"store"`
	IntColor    string `yaml:"int_color"`
	ExtColor    string `yaml:"ext_color"`
	Miles       int    `yaml:"miles"`
}

// FixtureNew is a new model and its stock per store.
type FixtureNew struct {
	FixtureSpec `yaml:",inline"`
	Stock       map[string]int `yaml:"stock"`
}

// SeedStats counts inserted rows.
type SeedStats struct {
	Stores   int `json:"stores"`
	Makes    int `json:"makes"`
	Models   int `json:"models"`
	Vehicles int `json:"vehicles"`
}

// ProgressFunc is told how many of total rows were written.
type ProgressFunc func(done, total int)

// LoadFixture reads a fixture file. An empty path returns the built-in demo
// data set.
func LoadFixture(path string) (*Fixture, error) {
	data := demoFixture
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// Total is the number of rows Seed writes for fx, used for progress.
func (fx *Fixture) Total() int {
	n := len(fx.Stores) + len(fx.Makes) + len(fx.Used)
	for _, m := range fx.Makes {
		n += len(m.Models)
	}
	for _, nv := range fx.New {
		n += len(nv.Stock)
	}
	return n
}

// Seed replaces all inventory data with fx inside one transaction.
func Seed(ctx context.Context, db *sql.DB, driver string, fx *Fixture, progress ProgressFunc) (SeedStats, error) {
	if progress == nil {
		progress = func(int, int) {}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return SeedStats{}, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	s := &seeder{tx: tx, driver: driver, total: fx.Total(), progress: progress}
	if err := s.run(ctx, fx); err != nil {
		return SeedStats{}, err
	}
	if err := tx.Commit(); err != nil {
		return SeedStats{}, fmt.Errorf("commit seed: %w", err)
	}
	return s.stats, nil
}

type seeder struct {
	tx       *sql.Tx
	driver   string
	total    int
	done     int
	progress ProgressFunc
	stats    SeedStats

	storeIDs map[string]int
	models   map[string]modelKey
	countID  int
}

type modelKey struct {
	makeID  int
	modelID int
}

func (s *seeder) exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := s.tx.ExecContext(ctx, rebind(s.driver, query), args...); err != nil {
		return err
	}
	return nil
}

func (s *seeder) step() {
	s.done++
	s.progress(s.done, s.total)
}

func (s *seeder) run(ctx context.Context, fx *Fixture) error {
	for _, table := range []string{"vehicle_details", "vehicle_count", "store_information", "vehicle_model", "vehicle_make"} {
		if err := s.exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	s.storeIDs = make(map[string]int, len(fx.Stores))
	for i, st := range fx.Stores {
		id := st.ID
		if id == 0 {
			id = i + 1
		}
		err := s.exec(ctx, `INSERT INTO store_information
			(store_id, store_name, store_address, store_city, store_state, store_zip, store_phone_no, store_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, st.Name, st.Address, st.City, st.State, st.Zip, st.Phone, st.Hours)
		if err != nil {
			return fmt.Errorf("insert store %s: %w", st.Name, err)
		}
		s.storeIDs[st.Name] = id
		s.stats.Stores++
		s.step()
	}

	s.models = make(map[string]modelKey)
	modelID := 0
	for i, mk := range fx.Makes {
		makeID := i + 1
		if err := s.exec(ctx, "INSERT INTO vehicle_make (make_id, make_name) VALUES (?, ?)", makeID, mk.Name); err != nil {
			return fmt.Errorf("insert make %s: %w", mk.Name, err)
		}
		s.stats.Makes++
		s.step()

		for _, m := range mk.Models {
			modelID++
			err := s.exec(ctx, "INSERT INTO vehicle_model (model_id, make_id, model_name, model_type) VALUES (?, ?, ?, ?)",
				modelID, makeID, m.Name, m.Type)
			if err != nil {
				return fmt.Errorf("insert model %s: %w", m.Name, err)
			}
			s.models[m.Name] = modelKey{makeID: makeID, modelID: modelID}
			s.stats.Models++
			s.step()
		}
	}

	for _, u := range fx.Used {
		if err := s.vehicle(ctx, u.VIN, "used", u.Store, 1, u.FixtureSpec, u.IntColor, u.ExtColor, u.Miles); err != nil {
			return err
		}
	}

	for _, nv := range fx.New {
		for _, store := range sortedKeys(nv.Stock) {
			vin := uuid.NewSHA1(uuid.NameSpaceOID, []byte(nv.Model+"|"+store)).String()
			if err := s.vehicle(ctx, vin, "new", store, nv.Stock[store], nv.FixtureSpec, "", "", 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) vehicle(ctx context.Context, vin, category, store string, units int, spec FixtureSpec, intColor, extColor string, miles int) error {
	key, ok := s.models[spec.Model]
	if !ok {
		return fmt.Errorf("vehicle %s: unknown model %q", vin, spec.Model)
	}
	storeID, ok := s.storeIDs[store]
	if !ok {
		return fmt.Errorf("vehicle %s: unknown store %q", vin, store)
	}

	s.countID++
	if err := s.exec(ctx, "INSERT INTO vehicle_count (count_id, store_id, count_total) VALUES (?, ?, ?)", s.countID, storeID, units); err != nil {
		return fmt.Errorf("insert count for %s: %w", vin, err)
	}

	err := s.exec(ctx, `INSERT INTO vehicle_details
		(vin, make_id, model_id, count_id, year_model, price, int_color, ext_color, miles,
		 mpg_city, mpg_hwy, category, engine_type, transmission, description, picture)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vin, key.makeID, key.modelID, s.countID, spec.Year, spec.Price, intColor, extColor, miles,
		spec.MPGCity, spec.MPGHwy, category, spec.Engine, spec.Transmission, spec.Description, spec.Picture)
	if err != nil {
		return fmt.Errorf("insert vehicle %s: %w", vin, err)
	}
	s.stats.Vehicles++
	s.step()
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
