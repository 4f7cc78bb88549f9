package sqlstore

import (
	"strings"

	"github.com/sakif/devlog/internal/repository"
)

// likeEscape is the LIKE escape character; it is not special in any of the
// three dialects' string literals.
const likeEscape = "!"

// containsPattern turns a user query into a "contains" LIKE pattern.
// Wildcards in the query are escaped so "50%" matches literally. Case is
// left alone: both sides are folded by the same SQL LOWER().
func containsPattern(query string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return "%" + r.Replace(query) + "%"
}

// containsAny builds "(LOWER(a) LIKE LOWER(?) ESCAPE '!' OR ...)" over
// columns and the matching argument list.
func containsAny(query string, columns ...string) (string, []any) {
	pattern := containsPattern(query)

	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE LOWER(?) ESCAPE '" + likeEscape + "'"
		args[i] = pattern
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// filterColumn maps a filter field to its column, restricted to the columns
// the record kind exposes for filtering.
func filterColumn(field repository.Field, allowed ...repository.Field) (string, bool) {
	for _, f := range allowed {
		if f == field {
			return string(f), true
		}
	}
	return "", false
}
