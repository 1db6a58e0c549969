package ports

import (
	"context"
	"math"

	"github.com/99minutos/user-directory/internal/core/domain"
)

// SortField names a scalar user field a listing can be ordered by.
type SortField string

const (
	SortByID        SortField = "id"
	SortByUsername  SortField = "username"
	SortByEmail     SortField = "email"
	SortByFirstName SortField = "first_name"
	SortByLastName  SortField = "last_name"
	SortByRole      SortField = "role"
	SortByActive    SortField = "active"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

// DefaultSortField is used when the caller does not pick one.
const DefaultSortField = SortByCreatedAt

var sortFields = map[SortField]struct{}{
	SortByID: {}, SortByUsername: {}, SortByEmail: {}, SortByFirstName: {}, SortByLastName: {},
	SortByRole: {}, SortByActive: {}, SortByCreatedAt: {}, SortByUpdatedAt: {},
}

// Valid reports whether f is a sortable field.
func (f SortField) Valid() bool {
	_, ok := sortFields[f]
	return ok
}

// UserFilter narrows a listing. Text fields are case-insensitive substring
// matches and are ignored when empty; Role and Active are exact matches and
// ignored when zero/nil. Search matches when any of the four text fields
// contains it.
type UserFilter struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      domain.Role
	Active    *bool
	Search    string
}

// ListUsersQuery is a fully validated listing request. Ties on SortBy are
// broken by id in the same direction.
type ListUsersQuery struct {
	Filter   UserFilter
	SortBy   SortField
	SortDesc bool
	Page     int // 1-based
	PageSize int
}

// Offset is the number of matching rows skipped before the requested page.
// It saturates at math.MaxInt64 so a huge page always lands past the end.
func (q ListUsersQuery) Offset() int64 {
	if q.Page < 1 || q.PageSize < 1 {
		return 0
	}
	pages, size := int64(q.Page-1), int64(q.PageSize)
	if pages > math.MaxInt64/size {
		return math.MaxInt64
	}
	return pages * size
}

// UserRepository is the storage boundary of the directory.
//
// Implementations return *domain.NotFoundError when a record is absent and
// *domain.ConflictError when a write violates the username or email unique
// constraint. That constraint is authoritative: it must be reported even when
// an earlier Exists* probe said the value was free.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByUsername and ExistsByEmail ignore the record whose id equals
	// excludeID; pass "" to consider every record.
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	// Update applies the non-nil fields of patch and writes patch.UpdatedAt.
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// List returns the requested page and the size of the whole filtered set.
	List(ctx context.Context, q ListUsersQuery) ([]*domain.User, int64, error)
	// Statistics is computed over the full record set at call time.
	Statistics(ctx context.Context) (*domain.UserStatistics, error)
}
