package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/querysql"
)

// Gateway executes rendered statements and returns rows as text.
type Gateway struct {
	db DB
}

// NewGateway creates a gateway over db.
func NewGateway(db DB) *Gateway {
	return &Gateway{db: db}
}

// Query runs stmt and collects every row.
func (g *Gateway) Query(ctx context.Context, stmt querysql.Statement) ([]Row, error) {
	rows, err := g.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	for i := range cols {
		cols[i] = strings.ToLower(cols[i])
	}

	var out []Row
	values := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
