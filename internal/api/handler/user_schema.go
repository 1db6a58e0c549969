package handler

import "time"

// These are intentionally separate from ports/domain types so the JSON
// contract can evolve independently of the core.

// --- Request types ---

// createUserRequest is the body of POST /users and PUT /users/:id. Presence is
// checked here; format rules live in the domain.
type createUserRequest struct {
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role"`
	Active    *bool  `json:"active"`
}

type patchUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	Active    *bool   `json:"active"`
}

// listUsersQuery holds GET /users query parameters after parsing.
type listUsersQuery struct {
	Page      int
	PageSize  int
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Active    *bool
	Search    string
	SortBy    string
	SortDesc  bool
}

// --- Response types ---

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type pageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type listUsersResponse struct {
	Data []userResponse `json:"data"`
	Meta pageMeta       `json:"meta"`
}

type statisticsResponse struct {
	TotalUsers    int64            `json:"total_users"`
	ActiveUsers   int64            `json:"active_users"`
	InactiveUsers int64            `json:"inactive_users"`
	ByRole        map[string]int64 `json:"by_role"`
}
