package search

import (
	"net/url"
	"strconv"
)

// Request parameter names.
const (
	ParamCategory     = "category"
	ParamStyle        = "style"
	ParamMake         = "make"
	ParamModel        = "model"
	ParamYearMin      = "yearMin"
	ParamYearMax      = "yearMax"
	ParamPriceMin     = "priceMin"
	ParamPriceMax     = "priceMax"
	ParamMilesMax     = "milesMax"
	ParamTransmission = "transmission"
	ParamMPGCityMin   = "MPGCityMin"
	ParamMPGHwyMin    = "MPGHwyMin"
	ParamIntColor     = "intColor"
	ParamExtColor     = "extColor"
	ParamLocation     = "location"
	ParamSortBy       = "SortBy"
	ParamSortOrder    = "SortOrder"
)

// DefaultMaxSortOptions is the number of SortBy{i}/SortOrder{i} pairs read.
const DefaultMaxSortOptions = 3

// Options tunes request interpretation.
type Options struct {
	MaxSortOptions int
}

// DefaultOptions returns the standard parse options.
func DefaultOptions() Options {
	return Options{MaxSortOptions: DefaultMaxSortOptions}
}

// Result is the outcome of parsing one request.
type Result struct {
	Filter       Filter       `json:"filter"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
	CatalogReady bool         `json:"catalog_ready"`
}

type parser struct {
	params url.Values
	vocab  Vocabulary
	ready  bool
	diags  []Diagnostic
}

// Parse interprets params against vocab. It never fails: every rejected
// value is reported in Result.Diagnostics and the rest of the request is
// kept. A nil or unready vocab rejects every categorical value.
func Parse(params url.Values, vocab Vocabulary, opts Options) Result {
	p := &parser{
		params: params,
		vocab:  vocab,
		ready:  vocab != nil && vocab.Ready(),
	}

	f := NewFilter()
	p.category(&f)

	f.BodyStyles = p.categorical(ParamStyle, func(v string) bool { return p.vocab.IsBodyStyle(v) })
	f.Makes = p.categorical(ParamMake, func(v string) bool { return p.vocab.IsMake(v) })
	f.Models = p.categorical(ParamModel, func(v string) bool { return p.vocab.IsModel(v) })

	f.MinYear = p.bound(ParamYearMin)
	f.MaxYear = p.bound(ParamYearMax)
	f.MinPrice = p.bound(ParamPriceMin)
	f.MaxPrice = p.bound(ParamPriceMax)
	f.MaxMiles = p.bound(ParamMilesMax)

	p.transmission(&f)

	f.MinMPGCity = p.bound(ParamMPGCityMin)
	f.MinMPGHwy = p.bound(ParamMPGHwyMin)

	f.InteriorColors = p.categorical(ParamIntColor, func(v string) bool { return p.vocab.IsInteriorColor(v) })
	f.ExteriorColors = p.categorical(ParamExtColor, func(v string) bool { return p.vocab.IsExteriorColor(v) })
	f.Locations = p.categorical(ParamLocation, func(v string) bool { return p.vocab.IsLocation(v) })

	f.Sort = p.sort(opts.MaxSortOptions)

	if p.ready {
		reconcile(&f, p.vocab)
	}

	return Result{Filter: f, Diagnostics: p.diags, CatalogReady: p.ready}
}

func (p *parser) values(key string) ([]string, bool) {
	vals, ok := p.params[key]
	return vals, ok && len(vals) > 0
}

func (p *parser) reject(field, value string, reason Reason) {
	p.diags = append(p.diags, Diagnostic{Field: field, Value: value, Reason: reason})
}

// categorical keeps the values valid accepts, in submitted order with
// duplicates. An absent field yields nil and a submitted field yields a
// non-nil slice even when every value was rejected.
func (p *parser) categorical(key string, valid func(string) bool) []string {
	vals, ok := p.values(key)
	if !ok {
		return nil
	}

	accepted := make([]string, 0, len(vals))
	for _, v := range vals {
		switch {
		case !p.ready:
			p.reject(key, v, ReasonCatalogUnavailable)
		case valid(v):
			accepted = append(accepted, v)
		default:
			p.reject(key, v, ReasonUnrecognized)
		}
	}
	return accepted
}

func (p *parser) category(f *Filter) {
	vals, _ := p.values(ParamCategory)
	for _, v := range vals {
		switch v {
		case "used":
			f.IncludeUsed = true
		case "new":
			f.IncludeNew = true
		default:
			p.reject(ParamCategory, v, ReasonUnrecognized)
		}
	}
}

func (p *parser) transmission(f *Filter) {
	vals, _ := p.values(ParamTransmission)
	for _, v := range vals {
		switch v {
		case "automatic":
			f.IncludeAutomatic = true
		case "manual":
			f.IncludeManual = true
		default:
			p.reject(ParamTransmission, v, ReasonUnrecognized)
		}
	}
}

// bound reads the first value of key as an integer. Extra values are
// ignored. Unparseable input resets the bound to Unbounded.
func (p *parser) bound(key string) int {
	vals, ok := p.values(key)
	if !ok {
		return Unbounded
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil {
		p.reject(key, vals[0], ReasonNotANumber)
		return Unbounded
	}
	if n < 0 {
		return Unbounded
	}
	return n
}

func (p *parser) sort(limit int) []SortOption {
	var out []SortOption
	for i := 1; i <= limit; i++ {
		byKey := ParamSortBy + strconv.Itoa(i)
		orderKey := ParamSortOrder + strconv.Itoa(i)
		by, hasBy := p.values(byKey)
		order, hasOrder := p.values(orderKey)

		switch {
		case hasBy && hasOrder:
			out = append(out, SortOption{Field: by[0], Direction: order[0], Position: i})
		case hasBy:
			p.reject(orderKey, "", ReasonIncompleteSort)
		case hasOrder:
			p.reject(byKey, "", ReasonIncompleteSort)
		}
	}
	return out
}
