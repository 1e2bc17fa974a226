package database

import (
	"strconv"
	"strings"

	"github.com/D3f0/dbglue/internal/utils"
)

// Dialect captures the SQL differences the copier cares about: identifier
// quoting, bind placeholders, parameter limits and catalog queries.
type Dialect struct {
	Name string

	quote    string
	numbered bool // $1, $2 ... instead of ?

	// MaxParams bounds the bind parameters of a single statement.
	MaxParams int

	// tablesQuery lists base tables of the default schema, ordered by name.
	tablesQuery string
	// columnsQuery takes the table name and returns (column, pk position)
	// in declaration order; pk position is 0 for non-key columns.
	columnsQuery string
}

// Supported dialects.
var (
	Postgres = &Dialect{
		Name:      "postgresql",
		quote:     `"`,
		numbered:  true,
		MaxParams: 65000,
		tablesQuery: `
			SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		columnsQuery: `
			SELECT c.column_name, COALESCE(k.ordinal_position, 0)
			FROM information_schema.columns c
			LEFT JOIN information_schema.table_constraints tc
				ON tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND tc.constraint_type = 'PRIMARY KEY'
			LEFT JOIN information_schema.key_column_usage k
				ON k.constraint_schema = tc.constraint_schema
				AND k.constraint_name = tc.constraint_name
				AND k.table_name = c.table_name
				AND k.column_name = c.column_name
			WHERE c.table_schema = current_schema() AND c.table_name = $1
			ORDER BY c.ordinal_position`,
	}

	MySQL = &Dialect{
		Name:      "mysql",
		quote:     "`",
		MaxParams: 65000,
		tablesQuery: `
			SELECT TABLE_NAME
			FROM information_schema.TABLES
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
			ORDER BY TABLE_NAME`,
		columnsQuery: `
			SELECT c.COLUMN_NAME, COALESCE(k.ORDINAL_POSITION, 0)
			FROM information_schema.COLUMNS c
			LEFT JOIN information_schema.KEY_COLUMN_USAGE k
				ON k.TABLE_SCHEMA = c.TABLE_SCHEMA
				AND k.TABLE_NAME = c.TABLE_NAME
				AND k.COLUMN_NAME = c.COLUMN_NAME
				AND k.CONSTRAINT_NAME = 'PRIMARY'
			WHERE c.TABLE_SCHEMA = DATABASE() AND c.TABLE_NAME = ?
			ORDER BY c.ORDINAL_POSITION`,
	}

	SQLite = &Dialect{
		Name:      "sqlite",
		quote:     `"`,
		MaxParams: 32000,
		tablesQuery: `
			SELECT name
			FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		columnsQuery: `SELECT name, pk FROM pragma_table_info(?) ORDER BY cid`,
	}
)

// QuoteIdent quotes a single identifier.
func (d *Dialect) QuoteIdent(name string) string {
	return utils.QuoteIdentWith(name, d.quote)
}

// QuoteIdents quotes and comma-joins identifiers.
func (d *Dialect) QuoteIdents(names []string) string {
	return utils.QuoteJoinIdentsWith(names, d.quote)
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d *Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// ValuesClause writes rows×cols placeholders, "(…), (…)", into sb starting at
// parameter number start and returns the next parameter number.
func (d *Dialect) ValuesClause(sb *strings.Builder, cols, rows, start int) int {
	param := start
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(param))
			param++
		}
		sb.WriteByte(')')
	}
	return param
}

// RowsPerStatement returns how many rows of cols columns fit in one statement.
func (d *Dialect) RowsPerStatement(cols int) int {
	if cols <= 0 {
		return 1
	}
	n := d.MaxParams / cols
	if n <= 0 {
		return 1
	}
	return n
}
