package service

import (
	"strings"

	"github.com/99minutos/user-directory/internal/core/domain"
	"github.com/99minutos/user-directory/internal/core/ports"
)

// userFields is a fully normalized and validated field set.
type userFields struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      domain.Role
	Active    bool
}

func (f userFields) patch() domain.UserPatch {
	return domain.UserPatch{
		Username:  &f.Username,
		Email:     &f.Email,
		FirstName: &f.FirstName,
		LastName:  &f.LastName,
		Role:      &f.Role,
		Active:    &f.Active,
	}
}

// normalizeUser applies the normalization rules and validates the result.
// Fields are checked in a fixed order and the first failure wins.
func normalizeUser(in ports.CreateUserInput) (userFields, error) {
	f := userFields{
		Username:  domain.NormalizeUsername(in.Username),
		Email:     domain.NormalizeEmail(in.Email),
		FirstName: domain.NormalizeName(in.FirstName),
		LastName:  domain.NormalizeName(in.LastName),
		Active:    true,
	}
	if err := domain.ValidateUsername(f.Username); err != nil {
		return userFields{}, err
	}
	if err := domain.ValidateEmail(f.Email); err != nil {
		return userFields{}, err
	}
	if err := domain.ValidateName("first_name", f.FirstName); err != nil {
		return userFields{}, err
	}
	if err := domain.ValidateName("last_name", f.LastName); err != nil {
		return userFields{}, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return userFields{}, err
	}
	f.Role = role
	if in.Active != nil {
		f.Active = *in.Active
	}
	return f, nil
}

// normalizePatch normalizes and validates only the supplied fields. An
// explicitly empty role is rejected rather than defaulted.
func normalizePatch(in ports.PatchUserInput) (domain.UserPatch, error) {
	var p domain.UserPatch
	if in.Username != nil {
		v := domain.NormalizeUsername(*in.Username)
		if err := domain.ValidateUsername(v); err != nil {
			return p, err
		}
		p.Username = &v
	}
	if in.Email != nil {
		v := domain.NormalizeEmail(*in.Email)
		if err := domain.ValidateEmail(v); err != nil {
			return p, err
		}
		p.Email = &v
	}
	if in.FirstName != nil {
		v := domain.NormalizeName(*in.FirstName)
		if err := domain.ValidateName("first_name", v); err != nil {
			return p, err
		}
		p.FirstName = &v
	}
	if in.LastName != nil {
		v := domain.NormalizeName(*in.LastName)
		if err := domain.ValidateName("last_name", v); err != nil {
			return p, err
		}
		p.LastName = &v
	}
	if in.Role != nil {
		if strings.TrimSpace(*in.Role) == "" {
			return p, domain.NewValidationError("role", "role must be one of: admin, user, guest")
		}
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return p, err
		}
		p.Role = &r
	}
	if in.Active != nil {
		v := *in.Active
		p.Active = &v
	}
	return p, nil
}

func patchedFields(p domain.UserPatch) []string {
	fields := make([]string, 0, 6)
	if p.Username != nil {
		fields = append(fields, "username")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.FirstName != nil {
		fields = append(fields, "first_name")
	}
	if p.LastName != nil {
		fields = append(fields, "last_name")
	}
	if p.Role != nil {
		fields = append(fields, "role")
	}
	if p.Active != nil {
		fields = append(fields, "active")
	}
	return fields
}
