package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/salesvisit/visit-service/internal/policy"
)

// where accumulates AND-ed predicates written with ? placeholders
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// scope restricts ownerCol to the scope's owners. Unrestricted scopes add nothing.
func (w *where) scope(ownerCol string, s policy.Scope) {
	if s.All {
		return
	}
	w.add(ownerCol+" = ANY(?::uuid[])", ownerArray(s))
}

// customerScope applies the scope to manually created customers only
func (w *where) customerScope(alias string, s policy.Scope) {
	if s.All {
		return
	}
	w.add("("+alias+".source = 'IMPORT' OR "+alias+".created_by = ANY(?::uuid[]))", ownerArray(s))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// build appends the predicates to base and rebinds to postgres placeholders
func (w *where) build(base string, tail string, tailArgs ...any) (string, []any) {
	query := base + w.String() + tail
	args := append(append([]any{}, w.args...), tailArgs...)
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s anywhere in an ILIKE ... ESCAPE '\' comparison
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func ownerArray(s policy.Scope) pq.StringArray {
	ids := make(pq.StringArray, len(s.OwnerIDs))
	for i, id := range s.OwnerIDs {
		ids[i] = id.String()
	}
	return ids
}
