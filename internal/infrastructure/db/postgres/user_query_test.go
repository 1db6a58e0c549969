package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%john%`, containsPattern("john"))
	assert.Equal(t, `%a\_b\%c%`, containsPattern("a_b%c"))
	assert.Equal(t, `%back\\slash%`, containsPattern(`back\slash`))
}

func TestBuildWhere_Empty(t *testing.T) {
	where, args := buildWhere(ports.UserFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere_AllFilters(t *testing.T) {
	active := true
	where, args := buildWhere(ports.UserFilter{
		Username: "jo",
		LastName: "do",
		Role:     domain.RoleAdmin,
		Active:   &active,
		Search:   "x_y",
	})

	assert.Equal(t,
		" WHERE username ILIKE $1 AND last_name ILIKE $2 AND role = $3 AND active = $4"+
			" AND (username ILIKE $5 OR email ILIKE $5 OR first_name ILIKE $5 OR last_name ILIKE $5)",
		where)
	assert.Equal(t, []any{"%jo%", "%do%", "admin", true, `%x\_y%`}, args)
}

func TestBuildOrderBy(t *testing.T) {
	assert.Equal(t, " ORDER BY created_at DESC, id DESC", buildOrderBy(ports.SortByCreatedAt, true))
	assert.Equal(t, " ORDER BY last_name ASC, id ASC", buildOrderBy(ports.SortByLastName, false))
	assert.Equal(t, " ORDER BY id DESC", buildOrderBy(ports.SortByID, true))
	assert.Equal(t, " ORDER BY created_at ASC, id ASC", buildOrderBy("1; DROP TABLE users", false))
}

func TestBuildUpdate(t *testing.T) {
	ts := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	email := "x@ex.com"
	active := false

	query, args := buildUpdate("u-1", domain.UserPatch{Email: &email, Active: &active, UpdatedAt: ts})

	assert.Equal(t,
		"UPDATE users SET updated_at = $1, email = $2, active = $3 WHERE id = $4 RETURNING "+userColumns,
		query)
	assert.Equal(t, []any{ts, email, false, "u-1"}, args)
}

func TestUniqueViolationField(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		field string
		ok    bool
	}{
		{"email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "email", true},
		{"username wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}), "username", true},
		{"other constraint", &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}, "", false},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "users_role_check"}, "", false},
		{"plain error", errors.New("boom"), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field, ok := uniqueViolationField(tc.err)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	up, err := migrationsFS.ReadFile("migrations/000001_create_users.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, string(up), "CONSTRAINT users_email_key UNIQUE (email)")

	assert.Contains(t, string(up), "ON users (role, active)")
	assert.Contains(t, string(up), "ON users (created_at DESC, id DESC)")

	_, err = migrationsFS.ReadFile("migrations/000001_create_users.down.sql")
	require.NoError(t, err)

	up, err = migrationsFS.ReadFile("migrations/000002_users_name_index.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "ON users (last_name, first_name)")

	down, err := migrationsFS.ReadFile("migrations/000002_users_name_index.down.sql")
	require.NoError(t, err)
	assert.Contains(t, string(down), "DROP INDEX IF EXISTS idx_users_last_name_first_name")
}
