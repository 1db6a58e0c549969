package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	constraintUsernameKey = "users_username_key"
	constraintEmailKey    = "users_email_key"
)

// UserRepository implements ports.UserRepository on PostgreSQL. Uniqueness is
// enforced by the users_username_key and users_email_key constraints.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(u.Role), u.Active, u.CreatedAt, u.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return nil, domain.NewConflictError(field, fieldValue(field, &u.Username, &u.Email))
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

// getBy is only called with fixed column names.
func (r *UserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewUserNotFound(value)
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	return r.exists(ctx, "username", username, excludeID)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *UserRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var found bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE "+column+" = $1 AND id <> $2)",
		value, excludeID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", column, err)
	}
	return found, nil
}

// Update applies the patch in a single statement and returns the new row.
func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args := buildUpdate(id, patch)
	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewUserNotFound(id)
		}
		if field, ok := uniqueViolationField(err); ok {
			return nil, domain.NewConflictError(field, fieldValue(field, patch.Username, patch.Email))
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func buildUpdate(id string, p domain.UserPatch) (string, []any) {
	sets := []string{"updated_at = $1"}
	args := []any{p.UpdatedAt}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Username != nil {
		set("username", *p.Username)
	}
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.FirstName != nil {
		set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		set("last_name", *p.LastName)
	}
	if p.Role != nil {
		set("role", string(*p.Role))
	}
	if p.Active != nil {
		set("active", *p.Active)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)
	return query, args
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewUserNotFound(id)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, q ports.ListUsersQuery) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := buildWhere(q.Filter)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if total <= q.Offset() {
		return []*domain.User{}, total, nil
	}

	n := len(args)
	query := "SELECT " + userColumns + " FROM users" + where +
		buildOrderBy(q.SortBy, q.SortDesc) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, q.PageSize, q.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan users: %w", err)
	}
	return users, total, nil
}

// Statistics groups by role and active flag in one query.
func (r *UserRepository) Statistics(ctx context.Context) (*domain.UserStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, "SELECT role, active, COUNT(*) FROM users GROUP BY role, active")
	if err != nil {
		return nil, fmt.Errorf("user statistics: %w", err)
	}
	defer rows.Close()

	stats := domain.NewUserStatistics()
	for rows.Next() {
		var (
			role   string
			active bool
			count  int64
		)
		if err := rows.Scan(&role, &active, &count); err != nil {
			return nil, fmt.Errorf("scan user statistics: %w", err)
		}
		stats.Total += count
		if active {
			stats.Active += count
		} else {
			stats.Inactive += count
		}
		stats.ByRole[domain.Role(role)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user statistics: %w", err)
	}
	return stats, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// uniqueViolationField maps a unique_violation to the column it guards.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	switch pgErr.ConstraintName {
	case constraintEmailKey:
		return "email", true
	case constraintUsernameKey:
		return "username", true
	}
	return "", false
}

func fieldValue(field string, username, email *string) string {
	v := username
	if field == "email" {
		v = email
	}
	if v == nil {
		return ""
	}
	return *v
}
