package domain

import "time"

// Role is the authorization tier recorded on a user. It carries no
// permissions by itself; consumers of the directory interpret it.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RoleUser, RoleGuest}

// DefaultRole is assigned when a caller does not pick one.
const DefaultRole = RoleUser

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is the directory's only aggregate.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email" bson:"email"`
	FirstName string    `json:"first_name" bson:"first_name"`
	LastName  string    `json:"last_name" bson:"last_name"`
	Role      Role      `json:"role" bson:"role"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// FullName joins first and last name with a single space.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserPatch carries a partial field set. Nil fields are left untouched by the
// store; UpdatedAt is always written.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *Role
	Active    *bool
	UpdatedAt time.Time
}

// IsEmpty reports whether no field is set.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.FirstName == nil &&
		p.LastName == nil && p.Role == nil && p.Active == nil
}

// UserStatistics is an aggregate snapshot over the whole directory.
type UserStatistics struct {
	Total    int64
	Active   int64
	Inactive int64
	ByRole   map[Role]int64
}

// NewUserStatistics returns a snapshot with every role present at zero.
func NewUserStatistics() *UserStatistics {
	byRole := make(map[Role]int64, len(Roles))
	for _, r := range Roles {
		byRole[r] = 0
	}
	return &UserStatistics{ByRole: byRole}
}
