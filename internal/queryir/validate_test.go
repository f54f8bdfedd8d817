package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branch(aliases ...string) Select {
	cols := make([]Column, len(aliases))
	for i, a := range aliases {
		cols[i] = Column{Expr: "t." + a, Alias: a}
	}
	return Select{Columns: cols, From: []Source{{Table: "vehicle_details", Alias: "t"}}}
}

func TestValidate_WellFormed(t *testing.T) {
	q := Ordered{
		Query: UnionAll{Queries: []Query{branch("vin", "price"), branch("vin", "price")}},
		Keys:  []SortKey{{Column: "price", Desc: true}},
	}
	require.NoError(t, Validate(q))
	assert.Equal(t, []string{"vin", "price"}, Aliases(q))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"nil", nil, "nil query"},
		{"no columns", Select{From: []Source{{Table: "x", Alias: "x"}}}, "without columns"},
		{"no sources", Select{Columns: []Column{{Expr: "a", Alias: "a"}}}, "without sources"},
		{"missing alias", Select{Columns: []Column{{Expr: "a"}}, From: []Source{{Table: "x"}}}, "alias"},
		{"empty union", UnionAll{}, "empty union"},
		{"mismatched union", UnionAll{Queries: []Query{branch("a", "b"), branch("a")}}, "projects 1 columns"},
		{"renamed column", UnionAll{Queries: []Query{branch("a", "b"), branch("a", "c")}}, "column 1"},
		{"unknown order key", Ordered{Query: branch("a"), Keys: []SortKey{{Column: "z"}}}, "not a result column"},
		{"nested order", UnionAll{Queries: []Query{Ordered{Query: branch("a")}}}, "outermost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.q)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValues(t *testing.T) {
	assert.Equal(t, "Ford", Str("Ford").Any())
	assert.Equal(t, int64(2010), Int(2010).Any())
	assert.Equal(t, "MIN", AggMin.String())
	assert.Equal(t, "", AggNone.String())
}
