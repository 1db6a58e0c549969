package postgres

import (
	"fmt"
	"strings"

	"github.com/99minutos/user-directory/internal/core/ports"
)

const userColumns = "id, username, email, first_name, last_name, role, active, created_at, updated_at"

// sortColumns is the whitelist of ORDER BY columns. Sort fields never reach
// SQL text any other way.
var sortColumns = map[ports.SortField]string{
	ports.SortByID:        "id",
	ports.SortByUsername:  "username",
	ports.SortByEmail:     "email",
	ports.SortByFirstName: "first_name",
	ports.SortByLastName:  "last_name",
	ports.SortByRole:      "role",
	ports.SortByActive:    "active",
	ports.SortByCreatedAt: "created_at",
	ports.SortByUpdatedAt: "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern wraps s for a substring ILIKE match with its wildcards
// escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whereBuilder accumulates ANDed conditions with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// buildWhere translates a UserFilter into a WHERE clause and its arguments.
func buildWhere(f ports.UserFilter) (string, []any) {
	w := &whereBuilder{}
	text := []struct {
		column, value string
	}{
		{"username", f.Username},
		{"email", f.Email},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
	}
	for _, t := range text {
		if t.value != "" {
			w.add(t.column + " ILIKE " + w.arg(containsPattern(t.value)))
		}
	}
	if f.Role != "" {
		w.add("role = " + w.arg(string(f.Role)))
	}
	if f.Active != nil {
		w.add("active = " + w.arg(*f.Active))
	}
	if f.Search != "" {
		p := w.arg(containsPattern(f.Search))
		w.add(fmt.Sprintf("(username ILIKE %[1]s OR email ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s)", p))
	}
	return w.sql(), w.args
}

// buildOrderBy orders by the requested column with id as the tie-breaker in
// the same direction.
func buildOrderBy(field ports.SortField, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	col, ok := sortColumns[field]
	if !ok {
		col = sortColumns[ports.DefaultSortField]
	}
	if col == "id" {
		return " ORDER BY id " + dir
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}
