package ports

import (
	"context"

	"github.com/99minutos/user-directory/internal/core/domain"
)

// CreateUserInput is the raw, not yet normalized payload for a new user.
// Role defaults to "user" and Active to true when omitted.
type CreateUserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Active    *bool
}

// ReplaceUserInput is a full replacement of a user's mutable fields. It is
// validated exactly like CreateUserInput, defaults included.
type ReplaceUserInput CreateUserInput

// PatchUserInput carries only the fields the caller wants to change.
type PatchUserInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
	Active    *bool
}

// ListUsersInput is the raw listing request from the transport layer.
type ListUsersInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Active    *bool
	Search    string
	SortBy    string
	SortDesc  bool
	Page      int
	PageSize  int
}

// UserPage is one page of a listing.
type UserPage struct {
	Items      []*domain.User
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// UserService defines the use-case operations of the directory.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*UserPage, error)
	UpdateUser(ctx context.Context, id string, in ReplaceUserInput) (*domain.User, error)
	PatchUser(ctx context.Context, id string, in PatchUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	ActivateUser(ctx context.Context, id string) (*domain.User, error)
	DeactivateUser(ctx context.Context, id string) (*domain.User, error)
	GetUserStatistics(ctx context.Context) (*domain.UserStatistics, error)
}
