package requirement

import (
	"errors"
	"regexp"
	"strings"
)

// Identity uniquely identifies a requirement within a project.
// It doubles as the key under which resolved configuration is persisted,
// so it must stay stable across resolution runs (e.g., "DB_URL",
// "env:default").
type Identity struct {
	value string
}

// Errors for Identity validation.
var (
	ErrEmptyIdentity   = errors.New("requirement identity cannot be empty")
	ErrInvalidIdentity = errors.New("requirement identity format invalid: must be alphanumeric with colons, dots, hyphens, or underscores")
)

// identityPattern validates identity format. Allows alphanumeric segments
// separated by colons or dots, with hyphens and underscores inside a
// segment. No spaces, no leading or trailing separator.
var identityPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*(?:[:.][a-zA-Z0-9][a-zA-Z0-9_-]*)*$`)

// NewIdentity creates a new Identity from a string.
func NewIdentity(value string) (Identity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Identity{}, ErrEmptyIdentity
	}

	if !identityPattern.MatchString(trimmed) {
		return Identity{}, ErrInvalidIdentity
	}

	return Identity{value: trimmed}, nil
}

// MustNewIdentity creates a new Identity, panicking on error.
// Use this for compile-time known values that should never fail validation.
func MustNewIdentity(value string) Identity {
	id, err := NewIdentity(value)
	if err != nil {
		panic("invalid requirement identity: " + value + ": " + err.Error())
	}
	return id
}

// String returns the string representation.
func (id Identity) String() string {
	return id.value
}

// Equals checks equality with another Identity.
func (id Identity) Equals(other Identity) bool {
	return id.value == other.value
}

// IsZero returns true if this is a zero-value Identity.
func (id Identity) IsZero() bool {
	return id.value == ""
}
