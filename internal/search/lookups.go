package search

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
)

// keywordColumns are matched by basic search tokens.
var keywordColumns = []string{ColMake, ColModel, ColBodyStyle, ColDescription}

// Keyword compiles a basic search. Every whitespace separated token must
// appear, case-insensitively, in the make, model, body style or description.
// Blank text matches every vehicle.
func Keyword(text string) queryir.Query {
	var terms []queryir.Predicate
	for _, tok := range strings.Fields(text) {
		anyCol := make([]queryir.Predicate, 0, len(keywordColumns))
		for _, col := range keywordColumns {
			anyCol = append(anyCol, queryir.Contains{Column: exprOf[col], Substring: tok})
		}
		terms = append(terms, queryir.Or{Terms: anyCol})
	}
	return bothCategories(terms, defaultOrder())
}

// Category compiles the listing of every used and new vehicle of one model.
func Category(model string) queryir.Query {
	terms := []queryir.Predicate{queryir.Eq{Column: exprOf[ColModel], Value: queryir.Str(model)}}
	return bothCategories(terms, []queryir.SortKey{{Column: ColPrice}})
}

// UsedByVIN compiles the lookup of one used vehicle.
func UsedByVIN(vin string) queryir.Query {
	where := baseTerms(CategoryUsed)
	where = append(where, queryir.Eq{Column: exprOf[ColVIN], Value: queryir.Str(vin)})
	return queryir.Select{Columns: plainColumns(), From: sources, Where: queryir.And{Terms: where}}
}

// NewByModel compiles the per-store inventory rows of one new model, one row
// per store.
func NewByModel(model string) queryir.Query {
	where := baseTerms(CategoryNew)
	where = append(where, queryir.Eq{Column: exprOf[ColModel], Value: queryir.Str(model)})
	return queryir.Ordered{
		Query: queryir.Select{Columns: plainColumns(), From: sources, Where: queryir.And{Terms: where}},
		Keys:  []queryir.SortKey{{Column: ColStore}},
	}
}

func bothCategories(extra []queryir.Predicate, keys []queryir.SortKey) queryir.Query {
	used := append(baseTerms(CategoryUsed), extra...)
	fresh := append(baseTerms(CategoryNew), extra...)
	return queryir.Ordered{
		Query: queryir.UnionAll{Queries: []queryir.Query{
			queryir.Select{Columns: plainColumns(), From: sources, Where: queryir.And{Terms: used}},
			queryir.Select{
				Columns: groupedColumns(),
				From:    sources,
				Where:   queryir.And{Terms: fresh},
				GroupBy: []string{exprOf[ColModel]},
			},
		}},
		Keys: keys,
	}
}

func defaultOrder() []queryir.SortKey {
	return []queryir.SortKey{{Column: ColMake}, {Column: ColModel}, {Column: ColPrice}}
}
