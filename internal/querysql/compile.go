// Package querysql renders queryir trees to parameterized SQL.
//
// Every literal becomes a bound parameter. Identifiers come verbatim from the
// tree, which is only ever built from fixed schema constants.
package querysql

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/queryir"
)

// Dialect selects the placeholder style.
type Dialect string

const (
	// SQLite uses positional ? placeholders.
	SQLite Dialect = "sqlite"
	// Postgres uses numbered $n placeholders.
	Postgres Dialect = "postgres"
)

// DialectFor maps a configured database driver name to a Dialect.
func DialectFor(driver string) Dialect {
	if driver == "postgres" {
		return Postgres
	}
	return SQLite
}

// Statement is rendered SQL with its bound arguments in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

// Fingerprint returns a stable hash of the SQL text and arguments, suitable
// as a cache key.
func (s Statement) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(s.SQL))
	for _, a := range s.Args {
		fmt.Fprintf(h, "\x00%T:%v", a, a)
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Compiler renders queries for one dialect. It holds no state between calls
// and is safe for concurrent use.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a Compiler for the given dialect.
func NewCompiler(d Dialect) *Compiler {
	if d != Postgres {
		d = SQLite
	}
	return &Compiler{dialect: d}
}

// Dialect reports the compiler's dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Compile validates q and renders it. The same tree always renders the same
// text and argument list.
func (c *Compiler) Compile(q queryir.Query) (Statement, error) {
	if err := queryir.Validate(q); err != nil {
		return Statement{}, err
	}

	r := &renderer{dialect: c.dialect}
	if err := r.query(q); err != nil {
		return Statement{}, err
	}
	return Statement{SQL: r.sb.String(), Args: r.args}, nil
}

type renderer struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func (r *renderer) bind(v queryir.Value) string {
	r.args = append(r.args, v.Any())
	if r.dialect == Postgres {
		return "$" + strconv.Itoa(len(r.args))
	}
	return "?"
}

func (r *renderer) query(q queryir.Query) error {
	switch query := q.(type) {
	case queryir.Select:
		return r.selectStmt(query)
	case *queryir.Select:
		return r.selectStmt(*query)
	case queryir.UnionAll:
		return r.union(query)
	case *queryir.UnionAll:
		return r.union(*query)
	case queryir.Ordered:
		return r.ordered(query)
	case *queryir.Ordered:
		return r.ordered(*query)
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func (r *renderer) selectStmt(s queryir.Select) error {
	r.sb.WriteString("SELECT ")
	for i, col := range s.Columns {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		if col.Agg != queryir.AggNone {
			r.sb.WriteString(col.Agg.String() + "(" + col.Expr + ")")
		} else {
			r.sb.WriteString(col.Expr)
		}
		r.sb.WriteString(" AS " + col.Alias)
	}

	r.sb.WriteString(" FROM ")
	for i, src := range s.From {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		r.sb.WriteString(src.Table)
		if src.Alias != "" {
			r.sb.WriteString(" " + src.Alias)
		}
	}

	if s.Where != nil {
		where, err := r.predicate(s.Where)
		if err != nil {
			return fmt.Errorf("compile where: %w", err)
		}
		r.sb.WriteString(" WHERE " + where)
	}

	if len(s.GroupBy) > 0 {
		r.sb.WriteString(" GROUP BY " + strings.Join(s.GroupBy, ", "))
	}
	return nil
}

// union writes branches without parentheses; SQLite rejects parenthesized
// compound members.
func (r *renderer) union(u queryir.UnionAll) error {
	for i, branch := range u.Queries {
		if i > 0 {
			r.sb.WriteString(" UNION ALL ")
		}
		if err := r.query(branch); err != nil {
			return fmt.Errorf("union branch %d: %w", i, err)
		}
	}
	return nil
}

func (r *renderer) ordered(o queryir.Ordered) error {
	if err := r.query(o.Query); err != nil {
		return err
	}
	if len(o.Keys) == 0 {
		return nil
	}
	r.sb.WriteString(" ORDER BY ")
	for i, k := range o.Keys {
		if i > 0 {
			r.sb.WriteString(", ")
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		r.sb.WriteString(k.Column + " " + dir)
	}
	return nil
}

// predicate renders p. Arguments are appended in the order their
// placeholders appear in the returned text.
func (r *renderer) predicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Eq:
		return pred.Column + " = " + r.bind(pred.Value), nil
	case queryir.Cmp:
		if pred.Op != queryir.OpLE && pred.Op != queryir.OpGE {
			return "", fmt.Errorf("unsupported comparison operator: %q", pred.Op)
		}
		return pred.Column + " " + string(pred.Op) + " " + r.bind(pred.Value), nil
	case queryir.Contains:
		return "LOWER(" + pred.Column + ") LIKE " + r.bind(queryir.Str(likePattern(pred.Substring))) + ` ESCAPE '\'`, nil
	case queryir.ColumnEq:
		return pred.Left + " = " + pred.Right, nil
	case queryir.And:
		return r.group(pred.Terms, " AND ", "1 = 1", isOr)
	case queryir.Or:
		return r.group(pred.Terms, " OR ", "1 = 0", isAnd)
	case *queryir.And:
		return r.predicate(*pred)
	case *queryir.Or:
		return r.predicate(*pred)
	case nil:
		return "", fmt.Errorf("nil predicate")
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// group joins terms with sep. A term that is a group of the other kind with
// more than one member is parenthesized.
func (r *renderer) group(terms []queryir.Predicate, sep, empty string, needsParens func(queryir.Predicate) bool) (string, error) {
	if len(terms) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		s, err := r.predicate(term)
		if err != nil {
			return "", err
		}
		if needsParens(term) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func isOr(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case queryir.Or:
		return len(pred.Terms) > 1
	case *queryir.Or:
		return len(pred.Terms) > 1
	}
	return false
}

func isAnd(p queryir.Predicate) bool {
	switch pred := p.(type) {
	case queryir.And:
		return len(pred.Terms) > 1
	case *queryir.And:
		return len(pred.Terms) > 1
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(sub string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(sub)) + "%"
}
