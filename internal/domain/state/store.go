package state

import (
	"sort"
)

// Reader is the read-only view of the store handed to providers during
// the checking phase. Checks must not mutate configuration, so they only
// see this interface.
type Reader interface {
	// Get returns the entry for a key.
	Get(key Key) (Entry, bool)
	// Value returns the value for (identity, field), false if absent.
	Value(identity, field string) (string, bool)
}

// Store is the in-memory aggregate of all configuration entries for one
// project. It enforces the merge policy: user-provided entries are never
// silently overwritten by auto-provisioned or locked ones.
//
// The store is not safe for concurrent mutation. One resolution run owns
// it at a time; run serialization is the repository's job.
type Store struct {
	entries map[string]Entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Get returns the entry for a key.
func (s *Store) Get(key Key) (Entry, bool) {
	e, ok := s.entries[key.String()]
	return e, ok
}

// Value returns the value for (identity, field), false if absent.
func (s *Store) Value(identity, field string) (string, bool) {
	e, ok := s.entries[Key{identity: identity, field: field}.String()]
	if !ok {
		return "", false
	}
	return e.Value(), true
}

// Merge applies an incoming entry under the merge policy and reports
// whether it was stored. Incoming user-provided entries always win (they
// represent an explicit user action). Auto-provisioned and locked entries
// never displace an existing user-provided entry unless force is set;
// force is reserved for an explicit relock.
func (s *Store) Merge(entry Entry, force bool) bool {
	if entry.IsZero() {
		return false
	}

	existing, ok := s.entries[entry.Key().String()]
	if ok && existing.Origin() == OriginUser && entry.Origin() != OriginUser && !force {
		return false
	}

	s.entries[entry.Key().String()] = entry
	return true
}

// MergeAll applies a batch of entries and returns how many were stored.
func (s *Store) MergeAll(entries []Entry, force bool) int {
	applied := 0
	for _, e := range entries {
		if s.Merge(e, force) {
			applied++
		}
	}
	return applied
}

// Remove deletes the entry for a key, reporting whether it existed.
func (s *Store) Remove(key Key) bool {
	k := key.String()
	if _, ok := s.entries[k]; !ok {
		return false
	}
	delete(s.entries, k)
	return true
}

// RemoveIdentity deletes every entry for a requirement identity,
// including sub-fields, and returns how many were removed. Used when a
// requirement is unprepared or removed from the project.
func (s *Store) RemoveIdentity(identity string) int {
	removed := 0
	for k, e := range s.entries {
		if e.Key().Identity() == identity {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// ForIdentity returns all entries for a requirement identity, main value
// first, then sub-fields in lexical order.
func (s *Store) ForIdentity(identity string) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.Key().Identity() == identity {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Field() < out[j].Key().Field()
	})
	return out
}

// Entries returns all entries in deterministic key order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// IsEmpty returns true if the store has no entries.
func (s *Store) IsEmpty() bool {
	return len(s.entries) == 0
}

// Clone returns a deep copy. Resolution runs mutate a clone and the
// caller decides whether the result is persisted.
func (s *Store) Clone() *Store {
	clone := NewStore()
	for k, e := range s.entries {
		clone.entries[k] = e
	}
	return clone
}

// Ensure Store satisfies the read-only view.
var _ Reader = (*Store)(nil)
