package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	EmailMaxLength    = 255
	NameMinLength     = 1
	NameMaxLength     = 100
)

var (
	validate = validator.New()

	// Single-character usernames fail the length rule before this is consulted.
	usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9_-]*[a-z0-9])?$`)
	namePattern     = regexp.MustCompile(`^\p{L}[\p{L} '\-]*$`)
)

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateUsername checks an already normalized username.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case username == "":
		return NewValidationError("username", "username is required")
	case n < UsernameMinLength:
		return NewValidationError("username", "username must be at least 3 characters")
	case n > UsernameMaxLength:
		return NewValidationError("username", "username must not exceed 50 characters")
	case !usernamePattern.MatchString(username):
		return NewValidationError("username",
			"username must start and end with a letter or number and contain only letters, numbers, underscores and hyphens")
	case hasConsecutiveSpecials(username):
		return NewValidationError("username", "username cannot contain consecutive underscores or hyphens")
	}
	return nil
}

func hasConsecutiveSpecials(s string) bool {
	prevSpecial := false
	for _, r := range s {
		special := r == '_' || r == '-'
		if special && prevSpecial {
			return true
		}
		prevSpecial = special
	}
	return false
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail checks an already normalized email address.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "email is required")
	}
	if len(email) > EmailMaxLength {
		return NewValidationError("email", "email must not exceed 255 characters")
	}
	if err := validate.Var(email, "email"); err != nil {
		return NewValidationError("email", "email must be a valid email address")
	}
	return nil
}

// NormalizeName trims a personal name and title-cases it: the first letter of
// every word is upper case, the rest lower. Spaces, hyphens and apostrophes
// start a new word, so "o'brien" becomes "O'Brien".
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// ValidateName checks an already normalized first or last name. field is the
// wire name reported back in the error.
func ValidateName(field, name string) error {
	label := strings.ReplaceAll(field, "_", " ")
	n := utf8.RuneCountInString(name)
	switch {
	case n < NameMinLength:
		return NewValidationError(field, label+" is required")
	case n > NameMaxLength:
		return NewValidationError(field, label+" must not exceed 100 characters")
	case !namePattern.MatchString(name):
		return NewValidationError(field, label+" must start with a letter and contain only letters, spaces, hyphens and apostrophes")
	}
	return nil
}

// ParseRole resolves a role name case-insensitively. An empty string yields
// DefaultRole.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultRole, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", NewValidationError("role", "role must be one of: admin, user, guest")
	}
	return r, nil
}
