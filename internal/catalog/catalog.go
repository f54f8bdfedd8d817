// Package catalog holds the reference vocabulary used to validate search
// requests: makes, models and their ownership, body styles, colors and
// dealership locations.
//
// A Catalog is immutable once built. Callers share one through a Store,
// which publishes it atomically after a successful load.
package catalog

import (
	"time"
)

// LookupLists are the four flat vocabularies, each read from its own column.
type LookupLists struct {
	BodyStyles     []string `json:"body_styles"`
	ExteriorColors []string `json:"exterior_colors"`
	InteriorColors []string `json:"interior_colors"`
	Locations      []string `json:"locations"`
}

// MakeModel is one (make, model) ownership pair.
type MakeModel struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}

type set map[string]struct{}

func newSet(values []string) (set, []string) {
	s := make(set, len(values))
	ordered := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := s[v]; dup {
			continue
		}
		s[v] = struct{}{}
		ordered = append(ordered, v)
	}
	return s, ordered
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// Catalog is a read-only reference vocabulary. The zero value and Empty()
// are uninitialized and reject every value.
type Catalog struct {
	ready bool

	makes          set
	models         set
	bodyStyles     set
	exteriorColors set
	interiorColors set
	locations      set

	makeOrder    []string
	modelOrder   []string
	makeToModels map[string][]string
	owned        map[MakeModel]struct{}
	lists        LookupLists
	loadedAt     time.Time
}

// Empty returns an uninitialized catalog.
func Empty() *Catalog {
	return &Catalog{}
}

// New builds a ready catalog. Listings keep first-seen order with duplicates
// removed; models keep their order within each make.
func New(lists LookupLists, pairs []MakeModel) *Catalog {
	c := &Catalog{
		ready:        true,
		makes:        make(set),
		models:       make(set),
		makeToModels: make(map[string][]string),
		owned:        make(map[MakeModel]struct{}, len(pairs)),
		loadedAt:     time.Now().UTC(),
	}

	c.bodyStyles, c.lists.BodyStyles = newSet(lists.BodyStyles)
	c.exteriorColors, c.lists.ExteriorColors = newSet(lists.ExteriorColors)
	c.interiorColors, c.lists.InteriorColors = newSet(lists.InteriorColors)
	c.locations, c.lists.Locations = newSet(lists.Locations)

	for _, p := range pairs {
		if !c.makes.has(p.Make) {
			c.makes[p.Make] = struct{}{}
			c.makeOrder = append(c.makeOrder, p.Make)
		}
		if !c.models.has(p.Model) {
			c.models[p.Model] = struct{}{}
			c.modelOrder = append(c.modelOrder, p.Model)
		}
		if _, dup := c.owned[p]; dup {
			continue
		}
		c.owned[p] = struct{}{}
		c.makeToModels[p.Make] = append(c.makeToModels[p.Make], p.Model)
	}

	return c
}

// Ready reports whether the catalog was loaded.
func (c *Catalog) Ready() bool { return c != nil && c.ready }

// LoadedAt is when the catalog was built. Zero for an uninitialized catalog.
func (c *Catalog) LoadedAt() time.Time {
	if !c.Ready() {
		return time.Time{}
	}
	return c.loadedAt
}

// IsMake reports whether v is a known make.
func (c *Catalog) IsMake(v string) bool { return c.Ready() && c.makes.has(v) }

// IsModel reports whether v is a known model of any make.
func (c *Catalog) IsModel(v string) bool { return c.Ready() && c.models.has(v) }

// IsBodyStyle reports whether v is a known body style.
func (c *Catalog) IsBodyStyle(v string) bool { return c.Ready() && c.bodyStyles.has(v) }

// IsExteriorColor reports whether v is a known exterior color.
func (c *Catalog) IsExteriorColor(v string) bool { return c.Ready() && c.exteriorColors.has(v) }

// IsInteriorColor reports whether v is a known interior color.
func (c *Catalog) IsInteriorColor(v string) bool { return c.Ready() && c.interiorColors.has(v) }

// IsLocation reports whether v is a known dealership location.
func (c *Catalog) IsLocation(v string) bool { return c.Ready() && c.locations.has(v) }

// MakeOwnsModel reports whether model is listed under makeName.
func (c *Catalog) MakeOwnsModel(makeName, model string) bool {
	if !c.Ready() {
		return false
	}
	_, ok := c.owned[MakeModel{Make: makeName, Model: model}]
	return ok
}

// Makes lists makes in load order.
func (c *Catalog) Makes() []string {
	if !c.Ready() {
		return nil
	}
	return clone(c.makeOrder)
}

// Models lists every model in load order.
func (c *Catalog) Models() []string {
	if !c.Ready() {
		return nil
	}
	return clone(c.modelOrder)
}

// ModelsOf lists the models of makeName in load order.
func (c *Catalog) ModelsOf(makeName string) []string {
	if !c.Ready() {
		return nil
	}
	return clone(c.makeToModels[makeName])
}

// Lists returns copies of the four lookup lists.
func (c *Catalog) Lists() LookupLists {
	if !c.Ready() {
		return LookupLists{}
	}
	return LookupLists{
		BodyStyles:     clone(c.lists.BodyStyles),
		ExteriorColors: clone(c.lists.ExteriorColors),
		InteriorColors: clone(c.lists.InteriorColors),
		Locations:      clone(c.lists.Locations),
	}
}

// View is a serializable snapshot used by listing endpoints.
type View struct {
	Ready        bool                `json:"ready"`
	LoadedAt     *time.Time          `json:"loaded_at,omitempty"`
	Makes        []string            `json:"makes"`
	MakeToModels map[string][]string `json:"make_models"`
	LookupLists
}

// View returns a snapshot of the catalog contents.
func (c *Catalog) View() View {
	v := View{
		Ready:        c.Ready(),
		Makes:        c.Makes(),
		MakeToModels: make(map[string][]string),
		LookupLists:  c.Lists(),
	}
	if v.Ready {
		at := c.loadedAt
		v.LoadedAt = &at
		for _, m := range c.makeOrder {
			v.MakeToModels[m] = c.ModelsOf(m)
		}
	}
	return v
}

func clone(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
