package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

// stubUserRepo enforces the username/email unique constraint atomically under
// its mutex, the way a real store's unique index does.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User

	blindProbes bool  // if set, Exists* always report false (simulates a lost race)
	failErr     error // if set, every method returns this error
	updates     int   // number of successful Update calls
	lastQuery   ports.ListUsersQuery
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) conflictLocked(username, email, excludeID string) error {
	for _, u := range r.users {
		if u.ID == excludeID {
			continue
		}
		if username != "" && u.Username == username {
			return domain.NewConflictError("username", username)
		}
		if email != "" && u.Email == email {
			return domain.NewConflictError("email", email)
		}
	}
	return nil
}

func (r *stubUserRepo) Insert(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflictLocked(u.Username, u.Email, ""); err != nil {
		return nil, err
	}
	clone := *u
	r.users[u.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool, key string) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.NewUserNotFound(key)
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id }, id)
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username }, username)
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email }, email)
}

func (r *stubUserRepo) exists(match func(*domain.User) bool, excludeID string) (bool, error) {
	if r.failErr != nil {
		return false, r.failErr
	}
	if r.blindProbes {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != excludeID && match(u) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username, excludeID string) (bool, error) {
	return r.exists(func(u *domain.User) bool { return u.Username == username }, excludeID)
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	return r.exists(func(u *domain.User) bool { return u.Email == email }, excludeID)
}

func (r *stubUserRepo) Update(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewUserNotFound(id)
	}
	var username, email string
	if p.Username != nil {
		username = *p.Username
	}
	if p.Email != nil {
		email = *p.Email
	}
	if err := r.conflictLocked(username, email, id); err != nil {
		return nil, err
	}
	next := *u
	if p.Username != nil {
		next.Username = *p.Username
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.FirstName != nil {
		next.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		next.LastName = *p.LastName
	}
	if p.Role != nil {
		next.Role = *p.Role
	}
	if p.Active != nil {
		next.Active = *p.Active
	}
	next.UpdatedAt = p.UpdatedAt
	r.users[id] = &next
	r.updates++
	out := next
	return &out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.NewUserNotFound(id)
	}
	delete(r.users, id)
	return nil
}

// List applies the same filter, sort and paging rules the real stores use.
func (r *stubUserRepo) List(_ context.Context, q ports.ListUsersQuery) ([]*domain.User, int64, error) {
	if r.failErr != nil {
		return nil, 0, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = q

	contains := func(s, sub string) bool {
		return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	f := q.Filter
	var matched []*domain.User
	for _, u := range r.users {
		if !contains(u.Username, f.Username) || !contains(u.Email, f.Email) ||
			!contains(u.FirstName, f.FirstName) || !contains(u.LastName, f.LastName) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if f.Search != "" && !(contains(u.Username, f.Search) || contains(u.Email, f.Search) ||
			contains(u.FirstName, f.Search) || contains(u.LastName, f.Search)) {
			continue
		}
		clone := *u
		matched = append(matched, &clone)
	}

	sort.Slice(matched, func(i, j int) bool {
		c := compareField(matched[i], matched[j], q.SortBy)
		if c == 0 {
			c = strings.Compare(matched[i].ID, matched[j].ID)
		}
		if q.SortDesc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	if total <= q.Offset() {
		return []*domain.User{}, total, nil
	}
	skip := int(q.Offset())
	end := skip + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func compareField(a, b *domain.User, f ports.SortField) int {
	switch f {
	case ports.SortByID:
		return strings.Compare(a.ID, b.ID)
	case ports.SortByUsername:
		return strings.Compare(a.Username, b.Username)
	case ports.SortByEmail:
		return strings.Compare(a.Email, b.Email)
	case ports.SortByFirstName:
		return strings.Compare(a.FirstName, b.FirstName)
	case ports.SortByLastName:
		return strings.Compare(a.LastName, b.LastName)
	case ports.SortByRole:
		return strings.Compare(string(a.Role), string(b.Role))
	case ports.SortByActive:
		switch {
		case a.Active == b.Active:
			return 0
		case !a.Active:
			return -1
		default:
			return 1
		}
	case ports.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *stubUserRepo) Statistics(_ context.Context) (*domain.UserStatistics, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := domain.NewUserStatistics()
	for _, u := range r.users {
		stats.Total++
		if u.Active {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByRole[u.Role]++
	}
	return stats, nil
}
