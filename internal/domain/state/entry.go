// Package state holds the persisted configuration produced by resolution
// runs: user-supplied answers, auto-provisioned values, and lock records,
// keyed by requirement identity.
package state

import (
	"errors"
	"fmt"
)

// Entry errors.
var (
	ErrEmptyKey      = errors.New("entry key cannot be empty")
	ErrInvalidOrigin = errors.New("invalid entry origin")
)

// Origin records who produced a configuration entry. The merge policy
// treats user-provided entries as authoritative.
type Origin string

const (
	// OriginUser marks a value explicitly supplied by the user.
	OriginUser Origin = "user-provided"
	// OriginAuto marks a value produced by a provider during provisioning.
	OriginAuto Origin = "auto-provisioned"
	// OriginLocked marks a value captured by the lock recorder.
	OriginLocked Origin = "locked"
)

// Valid returns true for one of the three known origins.
func (o Origin) Valid() bool {
	switch o {
	case OriginUser, OriginAuto, OriginLocked:
		return true
	}
	return false
}

// String returns the string representation of the origin.
func (o Origin) String() string {
	return string(o)
}

// Key addresses one configuration entry: a requirement identity plus an
// optional sub-field (e.g., a resolved path alongside the main value).
type Key struct {
	identity string
	field    string
}

// NewKey creates a Key for the requirement identity and optional field.
func NewKey(identity, field string) (Key, error) {
	if identity == "" {
		return Key{}, ErrEmptyKey
	}
	return Key{identity: identity, field: field}, nil
}

// MustNewKey creates a Key, panicking on error. For compile-time known
// values only.
func MustNewKey(identity, field string) Key {
	k, err := NewKey(identity, field)
	if err != nil {
		panic("invalid state key: " + err.Error())
	}
	return k
}

// Identity returns the requirement identity half of the key.
func (k Key) Identity() string {
	return k.identity
}

// Field returns the sub-field, empty for the main value.
func (k Key) Field() string {
	return k.field
}

// String returns "identity" or "identity#field".
func (k Key) String() string {
	if k.field == "" {
		return k.identity
	}
	return k.identity + "#" + k.field
}

// IsZero returns true for a zero-value Key.
func (k Key) IsZero() bool {
	return k.identity == ""
}

// Entry is one persisted configuration value. It is an immutable value
// object; the store replaces entries rather than mutating them.
type Entry struct {
	key    Key
	value  string
	origin Origin
}

// NewEntry creates an Entry.
func NewEntry(key Key, value string, origin Origin) (Entry, error) {
	if key.IsZero() {
		return Entry{}, ErrEmptyKey
	}
	if !origin.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}
	return Entry{key: key, value: value, origin: origin}, nil
}

// Key returns the entry's key.
func (e Entry) Key() Key {
	return e.key
}

// Value returns the stored value.
func (e Entry) Value() string {
	return e.value
}

// Origin returns who produced the value.
func (e Entry) Origin() Origin {
	return e.origin
}

// WithOrigin returns a copy of the entry tagged with a different origin.
func (e Entry) WithOrigin(origin Origin) Entry {
	e.origin = origin
	return e
}

// IsZero returns true for a zero-value Entry.
func (e Entry) IsZero() bool {
	return e.key.IsZero()
}

// String returns a human-readable representation.
func (e Entry) String() string {
	return fmt.Sprintf("%s=%s (%s)", e.key, e.value, e.origin)
}
