package queryir

// Query represents a query node. The interface is sealed to this package so
// renderers can switch over it exhaustively.
type Query interface {
	queryNode()
}

// Predicate represents a boolean condition. Sealed like Query.
type Predicate interface {
	predicateNode()
}

// Value is a literal that will be bound as a query parameter.
type Value interface {
	valueNode()
	// Any returns the Go value handed to the database driver.
	Any() any
}

// Str is a text literal.
type Str string

func (Str) valueNode() {}

// Any returns the string.
func (s Str) Any() any { return string(s) }

// Int is an integer literal.
type Int int64

func (Int) valueNode() {}

// Any returns the integer as int64.
func (i Int) Any() any { return int64(i) }

// Aggregate wraps a projected column in an aggregate function.
type Aggregate int

const (
	AggNone Aggregate = iota
	AggMin
	AggSum
)

func (a Aggregate) String() string {
	switch a {
	case AggMin:
		return "MIN"
	case AggSum:
		return "SUM"
	default:
		return ""
	}
}

// Column is one projected expression. Alias is the result column name and is
// what ORDER BY keys refer to.
type Column struct {
	Expr  string
	Alias string
	Agg   Aggregate
}

// Source is a table in the FROM list.
type Source struct {
	Table string
	Alias string
}

// Select is a single SELECT statement:
//
//	SELECT <columns> FROM <from...> [WHERE <where>] [GROUP BY <group by>]
//
// Sources are comma joined; join conditions live in Where as ColumnEq terms.
type Select struct {
	Columns []Column
	From    []Source
	Where   Predicate // nil = no WHERE clause
	GroupBy []string
}

func (Select) queryNode() {}

// UnionAll concatenates branches that project the same result columns.
type UnionAll struct {
	Queries []Query
}

func (UnionAll) queryNode() {}

// SortKey orders results by a result column alias.
type SortKey struct {
	Column string
	Desc   bool
}

// Ordered applies ORDER BY to the whole of Query. An empty key list renders
// no ORDER BY clause.
type Ordered struct {
	Query Query
	Keys  []SortKey
}

func (Ordered) queryNode() {}

// CmpOp is a range comparison operator.
type CmpOp string

const (
	OpLE CmpOp = "<="
	OpGE CmpOp = ">="
)

// Eq is column = value.
type Eq struct {
	Column string
	Value  Value
}

func (Eq) predicateNode() {}

// Cmp is column <op> value.
type Cmp struct {
	Column string
	Op     CmpOp
	Value  Value
}

func (Cmp) predicateNode() {}

// Contains is a case-insensitive substring match of Substring in Column.
type Contains struct {
	Column    string
	Substring string
}

func (Contains) predicateNode() {}

// ColumnEq is left = right over two columns.
type ColumnEq struct {
	Left  string
	Right string
}

func (ColumnEq) predicateNode() {}

// And is true when every term is true. No terms means true.
type And struct {
	Terms []Predicate
}

func (And) predicateNode() {}

// Or is true when any term is true. No terms means false.
type Or struct {
	Terms []Predicate
}

func (Or) predicateNode() {}

// Aliases returns the result column names of q, or nil for an empty union.
func Aliases(q Query) []string {
	switch query := q.(type) {
	case Select:
		out := make([]string, len(query.Columns))
		for i, c := range query.Columns {
			out[i] = c.Alias
		}
		return out
	case *Select:
		return Aliases(*query)
	case UnionAll:
		if len(query.Queries) == 0 {
			return nil
		}
		return Aliases(query.Queries[0])
	case *UnionAll:
		return Aliases(*query)
	case Ordered:
		return Aliases(query.Query)
	case *Ordered:
		return Aliases(*query)
	default:
		return nil
	}
}
