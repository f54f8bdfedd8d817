package queryir

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is wrapped by every structural error returned from Validate.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks structural rules the renderer relies on:
//   - every Select projects at least one aliased column from at least one source
//   - union branches project identical aliases in identical order
//   - Ordered keys name a result column
//   - Ordered only appears at the root
//
// It returns nil for a well-formed tree.
func Validate(q Query) error {
	if o, ok := asOrdered(q); ok {
		if err := validateBody(o.Query); err != nil {
			return err
		}
		known := make(map[string]bool)
		for _, a := range Aliases(o.Query) {
			known[a] = true
		}
		for _, k := range o.Keys {
			if !known[k.Column] {
				return fmt.Errorf("%w: order key %q is not a result column", ErrInvalidQuery, k.Column)
			}
		}
		return nil
	}
	return validateBody(q)
}

func asOrdered(q Query) (Ordered, bool) {
	switch query := q.(type) {
	case Ordered:
		return query, true
	case *Ordered:
		if query == nil {
			return Ordered{}, false
		}
		return *query, true
	}
	return Ordered{}, false
}

func validateBody(q Query) error {
	switch query := q.(type) {
	case nil:
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	case Select:
		return validateSelect(query)
	case *Select:
		if query == nil {
			return fmt.Errorf("%w: nil select", ErrInvalidQuery)
		}
		return validateSelect(*query)
	case UnionAll:
		return validateUnion(query)
	case *UnionAll:
		if query == nil {
			return fmt.Errorf("%w: nil union", ErrInvalidQuery)
		}
		return validateUnion(*query)
	case Ordered, *Ordered:
		return fmt.Errorf("%w: ORDER BY must be the outermost node", ErrInvalidQuery)
	default:
		return fmt.Errorf("%w: unsupported query type %T", ErrInvalidQuery, q)
	}
}

func validateSelect(s Select) error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: select without columns", ErrInvalidQuery)
	}
	if len(s.From) == 0 {
		return fmt.Errorf("%w: select without sources", ErrInvalidQuery)
	}
	for _, c := range s.Columns {
		if c.Expr == "" || c.Alias == "" {
			return fmt.Errorf("%w: column needs expression and alias", ErrInvalidQuery)
		}
	}
	return nil
}

func validateUnion(u UnionAll) error {
	if len(u.Queries) == 0 {
		return fmt.Errorf("%w: empty union", ErrInvalidQuery)
	}
	want := Aliases(u.Queries[0])
	for i, branch := range u.Queries {
		if err := validateBody(branch); err != nil {
			return fmt.Errorf("union branch %d: %w", i, err)
		}
		got := Aliases(branch)
		if len(got) != len(want) {
			return fmt.Errorf("%w: union branch %d projects %d columns, want %d", ErrInvalidQuery, i, len(got), len(want))
		}
		for j := range got {
			if got[j] != want[j] {
				return fmt.Errorf("%w: union branch %d column %d is %q, want %q", ErrInvalidQuery, i, j, got[j], want[j])
			}
		}
	}
	return nil
}
