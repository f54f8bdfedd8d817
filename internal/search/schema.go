package search

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
)

// Result column names. Rows returned by every plan in this package carry
// exactly these columns.
const (
	ColVIN          = "vin"
	ColMake         = "make_name"
	ColModel        = "model_name"
	ColBodyStyle    = "model_type"
	ColYear         = "year_model"
	ColPrice        = "price"
	ColIntColor     = "int_color"
	ColExtColor     = "ext_color"
	ColMiles        = "miles"
	ColMPGCity      = "mpg_city"
	ColMPGHwy       = "mpg_hwy"
	ColCategory     = "category"
	ColEngine       = "engine_type"
	ColTransmission = "transmission"
	ColDescription  = "description"
	ColPicture      = "picture"
	ColStore        = "store_name"
	ColCount        = "count_total"
)

// Category values stored in vehicle_details.category.
const (
	CategoryUsed = "used"
	CategoryNew  = "new"
)

var sources = []queryir.Source{
	{Table: "vehicle_make", Alias: "t1"},
	{Table: "vehicle_model", Alias: "t2"},
	{Table: "vehicle_details", Alias: "t3"},
	{Table: "store_information", Alias: "t4"},
	{Table: "vehicle_count", Alias: "t5"},
}

var joins = []queryir.Predicate{
	queryir.ColumnEq{Left: "t1.make_id", Right: "t2.make_id"},
	queryir.ColumnEq{Left: "t1.make_id", Right: "t3.make_id"},
	queryir.ColumnEq{Left: "t2.model_id", Right: "t3.model_id"},
	queryir.ColumnEq{Left: "t3.count_id", Right: "t5.count_id"},
	queryir.ColumnEq{Left: "t5.store_id", Right: "t4.store_id"},
}

type column struct {
	alias string
	expr  string
}

// projection lists result columns in output order.
var projection = []column{
	{ColVIN, "t3.vin"},
	{ColMake, "t1.make_name"},
	{ColModel, "t2.model_name"},
	{ColBodyStyle, "t2.model_type"},
	{ColYear, "t3.year_model"},
	{ColPrice, "t3.price"},
	{ColIntColor, "t3.int_color"},
	{ColExtColor, "t3.ext_color"},
	{ColMiles, "t3.miles"},
	{ColMPGCity, "t3.mpg_city"},
	{ColMPGHwy, "t3.mpg_hwy"},
	{ColCategory, "t3.category"},
	{ColEngine, "t3.engine_type"},
	{ColTransmission, "t3.transmission"},
	{ColDescription, "t3.description"},
	{ColPicture, "t3.picture"},
	{ColStore, "t4.store_name"},
	{ColCount, "t5.count_total"},
}

var exprOf = func() map[string]string {
	m := make(map[string]string, len(projection))
	for _, c := range projection {
		m[c.alias] = c.expr
	}
	return m
}()

func plainColumns() []queryir.Column {
	cols := make([]queryir.Column, len(projection))
	for i, c := range projection {
		cols[i] = queryir.Column{Expr: c.expr, Alias: c.alias}
	}
	return cols
}

// groupedColumns projects one row per model: count_total is summed across
// stores and every other column takes its minimum.
func groupedColumns() []queryir.Column {
	cols := make([]queryir.Column, len(projection))
	for i, c := range projection {
		agg := queryir.AggMin
		switch c.alias {
		case ColModel:
			agg = queryir.AggNone
		case ColCount:
			agg = queryir.AggSum
		}
		cols[i] = queryir.Column{Expr: c.expr, Alias: c.alias, Agg: agg}
	}
	return cols
}

// sortFields maps accepted SortBy values, lower-cased, to result columns.
var sortFields = map[string]string{
	"price":       ColPrice,
	"miles":       ColMiles,
	"year":        ColYear,
	"year_model":  ColYear,
	"make":        ColMake,
	"make_name":   ColMake,
	"model":       ColModel,
	"model_name":  ColModel,
	"mpgcity":     ColMPGCity,
	"mpg_city":    ColMPGCity,
	"mpghwy":      ColMPGHwy,
	"mpg_hwy":     ColMPGHwy,
	"style":       ColBodyStyle,
	"bodystyle":   ColBodyStyle,
	"model_type":  ColBodyStyle,
	"location":    ColStore,
	"store_name":  ColStore,
	"extcolor":    ColExtColor,
	"ext_color":   ColExtColor,
	"intcolor":    ColIntColor,
	"int_color":   ColIntColor,
	"count_total": ColCount,
}

// SortKey maps a submitted sort option to a result column. ok is false when
// either the field or the direction is not recognized.
func SortKey(opt SortOption) (queryir.SortKey, Reason, bool) {
	col, known := sortFields[strings.ToLower(strings.TrimSpace(opt.Field))]
	if !known {
		return queryir.SortKey{}, ReasonUnknownSortField, false
	}
	switch strings.ToUpper(strings.TrimSpace(opt.Direction)) {
	case "ASC":
		return queryir.SortKey{Column: col}, "", true
	case "DESC":
		return queryir.SortKey{Column: col, Desc: true}, "", true
	default:
		return queryir.SortKey{}, ReasonInvalidDirection, false
	}
}
