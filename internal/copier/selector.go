package copier

import (
	"github.com/D3f0/dbglue/internal/database"
	"github.com/D3f0/dbglue/internal/utils"
)

// ResolveTables returns the table names to process, in order. With selectAll
// it is every source table in catalog order minus names matching an exclude
// pattern; otherwise the explicit list verbatim, duplicates included.
func ResolveTables(explicit []string, selectAll bool, source *database.Catalog, exclude []string) []string {
	if !selectAll {
		out := make([]string, len(explicit))
		copy(out, explicit)
		return out
	}

	names := source.Names()
	out := make([]string, 0, len(names))
	for _, name := range names {
		if utils.MatchesAnyPattern(name, exclude) {
			continue
		}
		out = append(out, name)
	}
	return out
}
