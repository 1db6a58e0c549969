package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
	"github.com/99minutos/user-directory/internal/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

const (
	opCreate     = "create_user"
	opGet        = "get_user"
	opGetByName  = "get_user_by_username"
	opGetByEmail = "get_user_by_email"
	opList       = "list_users"
	opUpdate     = "update_user"
	opPatch      = "patch_user"
	opDelete     = "delete_user"
	opActivate   = "activate_user"
	opDeactivate = "deactivate_user"
	opStatistics = "get_user_statistics"
)

// Options tunes pagination. Zero values fall back to 20 and 100.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// UserService owns the directory's business rules: normalization, field
// validation, uniqueness handling, activation and page envelopes.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	opts   Options
	now    func() time.Time
	newID  func() string
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger, opts Options) *UserService {
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = maxPageSize
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	return &UserService{
		repo:   repo,
		logger: logger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:  uuid.NewString,
	}
}

var _ ports.UserService = (*UserService)(nil)

// CreateUser normalizes and validates the input, probes for duplicates and
// persists the user. A duplicate detected only by the store's unique
// constraint is reported as the same ConflictError; it is never retried.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opCreate, start, err) }()

	f, err := normalizeUser(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, opCreate, &f.Username, &f.Email, ""); err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Insert(ctx, &domain.User{
		ID:        s.newID(),
		Username:  f.Username,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Role:      f.Role,
		Active:    f.Active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, s.storageError(opCreate, err)
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(created.Role)).Inc()
	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user created")
	return created, nil
}

// GetUser returns the user with the given id.
func (s *UserService) GetUser(ctx context.Context, id string) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opGet, start, err) }()

	user, err = s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, s.storageError(opGet, err)
	}
	return user, nil
}

// GetUserByUsername looks a user up by username, case-insensitively.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opGetByName, start, err) }()

	user, err = s.repo.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, s.storageError(opGetByName, err)
	}
	return user, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opGetByEmail, start, err) }()

	user, err = s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, s.storageError(opGetByEmail, err)
	}
	return user, nil
}

// ListUsers validates and clamps the paging parameters, then returns one page
// of the filtered, sorted set.
//
// Page 0 means the first page and page size 0 the configured default.
// Negative values are rejected; a page size above the maximum is clamped.
func (s *UserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (page *ports.UserPage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opList, start, err) }()

	q, err := s.buildListQuery(in)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, s.storageError(opList, err)
	}
	if items == nil {
		items = []*domain.User{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	}

	return &ports.UserPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1,
	}, nil
}

func (s *UserService) buildListQuery(in ports.ListUsersInput) (ports.ListUsersQuery, error) {
	page := in.Page
	switch {
	case page == 0:
		page = 1
	case page < 0:
		return ports.ListUsersQuery{}, domain.NewValidationError("page", "page must be greater than or equal to 1")
	}

	size := in.PageSize
	switch {
	case size == 0:
		size = s.opts.DefaultPageSize
	case size < 0:
		return ports.ListUsersQuery{}, domain.NewValidationError("page_size", "page_size must be greater than or equal to 1")
	case size > s.opts.MaxPageSize:
		size = s.opts.MaxPageSize
	}

	sortBy := ports.SortField(strings.ToLower(strings.TrimSpace(in.SortBy)))
	if sortBy == "" {
		sortBy = ports.DefaultSortField
	}
	if !sortBy.Valid() {
		return ports.ListUsersQuery{}, domain.NewValidationError("sort_by", "sort_by must be a user field")
	}

	var role domain.Role
	if strings.TrimSpace(in.Role) != "" {
		r, err := domain.ParseRole(in.Role)
		if err != nil {
			return ports.ListUsersQuery{}, err
		}
		role = r
	}

	return ports.ListUsersQuery{
		Filter: ports.UserFilter{
			Username:  strings.TrimSpace(in.Username),
			Email:     strings.TrimSpace(in.Email),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Role:      role,
			Active:    in.Active,
			Search:    strings.TrimSpace(in.Search),
		},
		SortBy:   sortBy,
		SortDesc: in.SortDesc,
		Page:     page,
		PageSize: size,
	}, nil
}

// UpdateUser replaces every mutable field of an existing user. Omitted role
// and active fall back to their creation defaults.
func (s *UserService) UpdateUser(ctx context.Context, id string, in ports.ReplaceUserInput) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opUpdate, start, err) }()

	f, err := normalizeUser(ports.CreateUserInput(in))
	if err != nil {
		return nil, err
	}
	return s.applyPatch(ctx, opUpdate, id, f.patch())
}

// PatchUser changes only the supplied fields; at least one is required.
func (s *UserService) PatchUser(ctx context.Context, id string, in ports.PatchUserInput) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opPatch, start, err) }()

	patch, err := normalizePatch(in)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, domain.NewValidationError("body", "at least one field must be provided for update")
	}
	return s.applyPatch(ctx, opPatch, id, patch)
}

// applyPatch confirms the target exists, re-checks uniqueness of any supplied
// username/email against every other user, and writes the patch.
func (s *UserService) applyPatch(ctx context.Context, op, id string, patch domain.UserPatch) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, s.storageError(op, err)
	}
	if err := s.checkUnique(ctx, op, patch.Username, patch.Email, id); err != nil {
		return nil, err
	}

	patch.UpdatedAt = s.now()
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storageError(op, err)
	}

	s.logger.Info().Str("user_id", id).Strs("fields", patchedFields(patch)).Msg("user updated")
	return updated, nil
}

// DeleteUser removes a user permanently.
func (s *UserService) DeleteUser(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opDelete, start, err) }()

	id = strings.TrimSpace(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storageError(opDelete, err)
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// ActivateUser marks a user active. Activating an active user is a no-op
// that returns the stored record unchanged.
func (s *UserService) ActivateUser(ctx context.Context, id string) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opActivate, start, err) }()

	return s.setActive(ctx, opActivate, id, true)
}

// DeactivateUser marks a user inactive. Deactivating an inactive user is a
// no-op that returns the stored record unchanged.
func (s *UserService) DeactivateUser(ctx context.Context, id string) (user *domain.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opDeactivate, start, err) }()

	return s.setActive(ctx, opDeactivate, id, false)
}

func (s *UserService) setActive(ctx context.Context, op, id string, active bool) (*domain.User, error) {
	id = strings.TrimSpace(id)
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageError(op, err)
	}
	if current.Active == active {
		s.logger.Debug().Str("user_id", id).Bool("active", active).Msg("activation state unchanged")
		return current, nil
	}

	updated, err := s.repo.Update(ctx, id, domain.UserPatch{Active: &active, UpdatedAt: s.now()})
	if err != nil {
		return nil, s.storageError(op, err)
	}
	s.logger.Info().Str("user_id", id).Bool("active", active).Msg("activation state changed")
	return updated, nil
}

// GetUserStatistics returns totals, active/inactive counts and per-role
// counts. The snapshot is not isolated from concurrent writes.
func (s *UserService) GetUserStatistics(ctx context.Context) (stats *domain.UserStatistics, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation(opStatistics, start, err) }()

	stats, err = s.repo.Statistics(ctx)
	if err != nil {
		return nil, s.storageError(opStatistics, err)
	}
	return stats, nil
}

// checkUnique runs the advisory existence probes for whichever of username
// and email is non-nil. The store's unique constraint remains the source of
// truth; this only fails the common duplicate case early.
func (s *UserService) checkUnique(ctx context.Context, op string, username, email *string, excludeID string) error {
	if username != nil {
		taken, err := s.repo.ExistsByUsername(ctx, *username, excludeID)
		if err != nil {
			return s.storageError(op, err)
		}
		if taken {
			return s.precheckConflict(op, "username", *username)
		}
	}
	if email != nil {
		taken, err := s.repo.ExistsByEmail(ctx, *email, excludeID)
		if err != nil {
			return s.storageError(op, err)
		}
		if taken {
			return s.precheckConflict(op, "email", *email)
		}
	}
	return nil
}

func (s *UserService) precheckConflict(op, field, value string) error {
	metrics.UniquenessConflictsTotal.WithLabelValues(field, "precheck").Inc()
	s.logger.Warn().Str("op", op).Str("field", field).Msg("uniqueness conflict")
	return domain.NewConflictError(field, value)
}

// storageError passes domain-meaningful errors through unchanged and hides
// anything else behind an InternalError.
func (s *UserService) storageError(op string, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		metrics.UniquenessConflictsTotal.WithLabelValues(conflict.Field, "constraint").Inc()
		s.logger.Warn().Str("op", op).Str("field", conflict.Field).Msg("unique constraint rejected write")
		return conflict
	}
	if domain.IsDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Str("op", op).Msg("storage failure")
	return &domain.InternalError{Op: op, Err: err}
}
