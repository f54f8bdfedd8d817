// Package search interprets advanced-search requests and compiles them into
// query plans.
//
// Parse turns untrusted form parameters into a validated, reconciled Filter
// plus a list of diagnostics for everything it dropped. Compile turns a
// Filter into a queryir tree. Neither step returns an error: malformed input
// narrows or widens the search but never aborts it.
package search

// Unbounded marks a numeric bound that does not constrain the search.
const Unbounded = -1

// Vocabulary is the reference data a request is validated against.
// *catalog.Catalog implements it.
type Vocabulary interface {
	Ready() bool
	IsMake(v string) bool
	IsModel(v string) bool
	IsBodyStyle(v string) bool
	IsExteriorColor(v string) bool
	IsInteriorColor(v string) bool
	IsLocation(v string) bool
	MakeOwnsModel(makeName, model string) bool
}

// SortOption is one ORDER BY request as submitted. Field and Direction are
// untrusted until Compile maps them. Position is the pair's 1-based number in
// the request, zero when the option was built in code.
type SortOption struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
	Position  int    `json:"position,omitempty"`
}

// Filter is one validated advanced-search request.
//
// For the categorical slices nil means the field was not submitted and does
// not constrain the search. A non-nil empty slice means the field was
// submitted but nothing in it was valid, which matches no vehicle.
type Filter struct {
	IncludeUsed bool `json:"include_used"`
	IncludeNew  bool `json:"include_new"`

	BodyStyles     []string `json:"body_styles"`
	Makes          []string `json:"makes"`
	Models         []string `json:"models"`
	ExteriorColors []string `json:"exterior_colors"`
	InteriorColors []string `json:"interior_colors"`
	Locations      []string `json:"locations"`

	MinYear    int `json:"min_year"`
	MaxYear    int `json:"max_year"`
	MinPrice   int `json:"min_price"`
	MaxPrice   int `json:"max_price"`
	MaxMiles   int `json:"max_miles"`
	MinMPGCity int `json:"min_mpg_city"`
	MinMPGHwy  int `json:"min_mpg_hwy"`

	IncludeAutomatic bool `json:"include_automatic"`
	IncludeManual    bool `json:"include_manual"`

	Sort []SortOption `json:"sort"`
}

// NewFilter returns a filter that constrains nothing.
func NewFilter() Filter {
	return Filter{
		MinYear:    Unbounded,
		MaxYear:    Unbounded,
		MinPrice:   Unbounded,
		MaxPrice:   Unbounded,
		MaxMiles:   Unbounded,
		MinMPGCity: Unbounded,
		MinMPGHwy:  Unbounded,
	}
}

// UnionRequired reports whether both the used and new branches are searched.
// Selecting both categories or neither means both.
func (f Filter) UnionRequired() bool {
	return f.IncludeUsed == f.IncludeNew
}

// SearchesUsed reports whether the used branch is part of the query.
func (f Filter) SearchesUsed() bool {
	return f.IncludeUsed || f.UnionRequired()
}

// SearchesNew reports whether the new branch is part of the query.
func (f Filter) SearchesNew() bool {
	return f.IncludeNew || f.UnionRequired()
}

// Reason classifies a diagnostic.
type Reason string

const (
	ReasonUnrecognized       Reason = "unrecognized_value"
	ReasonNotANumber         Reason = "not_a_number"
	ReasonCatalogUnavailable Reason = "catalog_unavailable"
	ReasonIncompleteSort     Reason = "incomplete_sort"
	ReasonUnknownSortField   Reason = "unknown_sort_field"
	ReasonInvalidDirection   Reason = "invalid_sort_direction"
)

// Diagnostic records one submitted value that was dropped or reset.
type Diagnostic struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason Reason `json:"reason"`
}
