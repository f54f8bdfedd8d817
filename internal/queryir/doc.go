// Package queryir defines the intermediate representation for inventory
// search queries.
//
// A search is built as a tree of Query and Predicate nodes and only then
// rendered to SQL by package querysql. Values never appear in identifier
// positions: every literal is a Value and is rendered as a bound parameter,
// while table and column names come from fixed schema constants owned by the
// code that builds the tree.
//
// Query nodes:
//   - Select: one SELECT over a comma join of sources with a WHERE predicate
//   - UnionAll: branches concatenated with UNION ALL
//   - Ordered: a query with an ORDER BY key list
//
// Predicate nodes:
//   - Eq, Cmp, Contains: column against a bound value
//   - ColumnEq: column against column (join conditions)
//   - And, Or: boolean groups. An empty And is true, an empty Or is false.
package queryir
