package search

import (
	"strconv"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
)

// Plan is a compiled search ready for rendering. Diagnostics lists sort
// options that could not be mapped and were left out of the ORDER BY.
type Plan struct {
	Query       queryir.Query
	Diagnostics []Diagnostic
}

// Compile builds the query for f. It is deterministic and never fails.
//
// The used branch is emitted when used vehicles are searched, the new branch
// when new vehicles are, joined by UNION ALL when both are. The new branch
// collapses store inventory rows to one row per model.
func Compile(f Filter) Plan {
	var branches []queryir.Query
	if f.SearchesUsed() {
		branches = append(branches, usedBranch(f))
	}
	if f.SearchesNew() {
		branches = append(branches, newBranch(f))
	}

	keys, diags := sortKeys(f.Sort)
	return Plan{
		Query:       queryir.Ordered{Query: queryir.UnionAll{Queries: branches}, Keys: keys},
		Diagnostics: diags,
	}
}

func usedBranch(f Filter) queryir.Select {
	terms := baseTerms(CategoryUsed)
	terms = appendMakeModel(terms, f)
	terms = appendMax(terms, ColMiles, f.MaxMiles)
	terms = appendMin(terms, ColMPGCity, f.MinMPGCity)
	terms = appendMin(terms, ColMPGHwy, f.MinMPGHwy)
	terms = appendMin(terms, ColYear, f.MinYear)
	terms = appendMax(terms, ColYear, f.MaxYear)
	terms = appendMin(terms, ColPrice, f.MinPrice)
	terms = appendMax(terms, ColPrice, f.MaxPrice)

	if f.IncludeAutomatic != f.IncludeManual {
		value := "manual"
		if f.IncludeAutomatic {
			value = "automatic"
		}
		terms = append(terms, queryir.Eq{Column: exprOf[ColTransmission], Value: queryir.Str(value)})
	}

	terms = appendAnyOf(terms, ColExtColor, f.ExteriorColors)
	terms = appendAnyOf(terms, ColIntColor, f.InteriorColors)
	terms = appendAnyOf(terms, ColStore, f.Locations)
	terms = appendAnyOf(terms, ColBodyStyle, f.BodyStyles)

	return queryir.Select{
		Columns: plainColumns(),
		From:    sources,
		Where:   queryir.And{Terms: terms},
	}
}

func newBranch(f Filter) queryir.Select {
	terms := baseTerms(CategoryNew)
	terms = appendMakeModel(terms, f)
	terms = appendMin(terms, ColMPGCity, f.MinMPGCity)
	terms = appendMin(terms, ColMPGHwy, f.MinMPGHwy)
	terms = appendMin(terms, ColPrice, f.MinPrice)
	terms = appendMax(terms, ColPrice, f.MaxPrice)
	terms = appendAnyOf(terms, ColStore, f.Locations)
	terms = appendAnyOf(terms, ColBodyStyle, f.BodyStyles)

	return queryir.Select{
		Columns: groupedColumns(),
		From:    sources,
		Where:   queryir.And{Terms: terms},
		GroupBy: []string{exprOf[ColModel]},
	}
}

func baseTerms(category string) []queryir.Predicate {
	terms := make([]queryir.Predicate, 0, len(joins)+16)
	terms = append(terms, joins...)
	return append(terms, queryir.Eq{Column: exprOf[ColCategory], Value: queryir.Str(category)})
}

// appendMakeModel adds one OR group holding every make equality followed by
// every model equality.
func appendMakeModel(terms []queryir.Predicate, f Filter) []queryir.Predicate {
	if f.Makes == nil && f.Models == nil {
		return terms
	}
	group := make([]queryir.Predicate, 0, len(f.Makes)+len(f.Models))
	for _, mk := range f.Makes {
		group = append(group, queryir.Eq{Column: exprOf[ColMake], Value: queryir.Str(mk)})
	}
	for _, m := range f.Models {
		group = append(group, queryir.Eq{Column: exprOf[ColModel], Value: queryir.Str(m)})
	}
	return append(terms, queryir.Or{Terms: group})
}

// appendAnyOf adds an OR group over values. An empty non-nil slice adds a
// group with no terms, which matches nothing.
func appendAnyOf(terms []queryir.Predicate, col string, values []string) []queryir.Predicate {
	if values == nil {
		return terms
	}
	group := make([]queryir.Predicate, 0, len(values))
	for _, v := range values {
		group = append(group, queryir.Eq{Column: exprOf[col], Value: queryir.Str(v)})
	}
	return append(terms, queryir.Or{Terms: group})
}

func appendMin(terms []queryir.Predicate, col string, bound int) []queryir.Predicate {
	if bound < 0 {
		return terms
	}
	return append(terms, queryir.Cmp{Column: exprOf[col], Op: queryir.OpGE, Value: queryir.Int(bound)})
}

func appendMax(terms []queryir.Predicate, col string, bound int) []queryir.Predicate {
	if bound < 0 {
		return terms
	}
	return append(terms, queryir.Cmp{Column: exprOf[col], Op: queryir.OpLE, Value: queryir.Int(bound)})
}

func sortKeys(opts []SortOption) ([]queryir.SortKey, []Diagnostic) {
	var keys []queryir.SortKey
	var diags []Diagnostic
	for _, opt := range opts {
		key, reason, ok := SortKey(opt)
		switch {
		case ok:
			keys = append(keys, key)
		case reason == ReasonInvalidDirection:
			diags = append(diags, Diagnostic{Field: sortParam(ParamSortOrder, opt.Position), Value: opt.Direction, Reason: reason})
		default:
			diags = append(diags, Diagnostic{Field: sortParam(ParamSortBy, opt.Position), Value: opt.Field, Reason: reason})
		}
	}
	return keys, diags
}

// sortParam names the request key of a sort pair, e.g. SortBy2.
func sortParam(base string, position int) string {
	if position <= 0 {
		return base
	}
	return base + strconv.Itoa(position)
}
