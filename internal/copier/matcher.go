package copier

import "github.com/D3f0/dbglue/internal/database"

// ColumnSet is the ordered list of columns copied for one table: the names
// present on both sides, in source declaration order.
type ColumnSet []string

// Contains reports whether name is part of the set.
func (c ColumnSet) Contains(name string) bool {
	return c.Index(name) >= 0
}

// Index returns the position of name, or -1.
func (c ColumnSet) Index(name string) int {
	for i, col := range c {
		if col == name {
			return i
		}
	}
	return -1
}

// MatchColumns returns the columns shared by source and dest. An empty result
// is valid output; callers decide what an empty intersection means.
func MatchColumns(source, dest *database.Table) ColumnSet {
	if source == nil || dest == nil {
		return ColumnSet{}
	}

	out := make(ColumnSet, 0, len(source.Columns))
	seen := make(map[string]struct{}, len(source.Columns))
	for _, c := range source.Columns {
		if !dest.HasColumn(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
