package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Table describes a table as introspected from a live database.
type Table struct {
	Name string
	// Columns in declaration order.
	Columns []string
	// PrimaryKey columns in key order; empty when the table has none.
	PrimaryKey []string
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Catalog maps table names to descriptors and remembers enumeration order.
type Catalog struct {
	tables map[string]*Table
	order  []string
}

// NewCatalog builds a catalog from descriptors, keeping their order. A later
// descriptor with the same name replaces the earlier one.
func NewCatalog(tables ...*Table) *Catalog {
	c := &Catalog{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if _, seen := c.tables[t.Name]; !seen {
			c.order = append(c.order, t.Name)
		}
		c.tables[t.Name] = t
	}
	return c
}

// Table looks a table up by exact name.
func (c *Catalog) Table(name string) (*Table, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.tables[name]
	return t, ok
}

// Names returns table names in enumeration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Describe introspects every base table of the default schema.
func Describe(ctx context.Context, db *DB) (*Catalog, error) {
	names, err := listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", db, err)
	}

	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		t, err := describeTable(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return NewCatalog(tables...), nil
}

func listTables(ctx context.Context, db *DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, db.Dialect.tablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func describeTable(ctx context.Context, db *DB, name string) (*Table, error) {
	rows, err := db.QueryContext(ctx, db.Dialect.columnsQuery, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type keyCol struct {
		name string
		pos  int64
	}
	t := &Table{Name: name, Columns: make([]string, 0)}
	var keys []keyCol
	for rows.Next() {
		var col string
		var pos sql.NullInt64
		if err := rows.Scan(&col, &pos); err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, col)
		if pos.Valid && pos.Int64 > 0 {
			keys = append(keys, keyCol{col, pos.Int64})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].pos < keys[j].pos })
	t.PrimaryKey = make([]string, len(keys))
	for i, k := range keys {
		t.PrimaryKey[i] = k.name
	}
	return t, nil
}

// CountRows returns the exact row count of a table.
func CountRows(ctx context.Context, db *DB, table string) (int64, error) {
	query := "SELECT COUNT(*) FROM " + db.Dialect.QuoteIdent(table) // #nosec G202 - identifier is quoted
	var n int64
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return n, nil
}
