package database

import (
	"strings"
	"testing"
)

func TestDialect_Placeholder(t *testing.T) {
	if got := Postgres.Placeholder(3); got != "$3" {
		t.Errorf("Postgres.Placeholder(3) = %q", got)
	}
	if got := MySQL.Placeholder(3); got != "?" {
		t.Errorf("MySQL.Placeholder(3) = %q", got)
	}
	if got := SQLite.Placeholder(1); got != "?" {
		t.Errorf("SQLite.Placeholder(1) = %q", got)
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	tests := []struct {
		dialect *Dialect
		in      string
		want    string
	}{
		{Postgres, "orders", `"orders"`},
		{Postgres, `we"ird`, `"we""ird"`},
		{MySQL, "orders", "`orders`"},
		{MySQL, "we`ird", "`we``ird`"},
		{SQLite, "order items", `"order items"`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name+"/"+tt.in, func(t *testing.T) {
			if got := tt.dialect.QuoteIdent(tt.in); got != tt.want {
				t.Errorf("QuoteIdent(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if got := MySQL.QuoteIdents([]string{"id", "amount"}); got != "`id`, `amount`" {
		t.Errorf("QuoteIdents = %s", got)
	}
}

func TestDialect_ValuesClause(t *testing.T) {
	tests := []struct {
		name       string
		dialect    *Dialect
		cols, rows int
		start      int
		want       string
		next       int
	}{
		{"numbered", Postgres, 2, 2, 1, "($1, $2), ($3, $4)", 5},
		{"numbered offset", Postgres, 1, 3, 4, "($4), ($5), ($6)", 7},
		{"positional", MySQL, 3, 1, 1, "(?, ?, ?)", 4},
		{"no rows", SQLite, 2, 0, 1, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			next := tt.dialect.ValuesClause(&sb, tt.cols, tt.rows, tt.start)
			if sb.String() != tt.want {
				t.Errorf("ValuesClause = %q, want %q", sb.String(), tt.want)
			}
			if next != tt.next {
				t.Errorf("next param = %d, want %d", next, tt.next)
			}
		})
	}
}

func TestDialect_RowsPerStatement(t *testing.T) {
	tests := []struct {
		dialect *Dialect
		cols    int
		want    int
	}{
		{Postgres, 1, 65000},
		{Postgres, 10, 6500},
		{Postgres, 7, 9285},
		{SQLite, 2, 16000},
		{Postgres, 0, 1},
		{Postgres, 100000, 1},
	}

	for _, tt := range tests {
		if got := tt.dialect.RowsPerStatement(tt.cols); got != tt.want {
			t.Errorf("%s.RowsPerStatement(%d) = %d, want %d", tt.dialect.Name, tt.cols, got, tt.want)
		}
	}
}
