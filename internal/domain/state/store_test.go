package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEntry(t *testing.T, identity, field, value string, origin Origin) Entry {
	t.Helper()
	entry, err := NewEntry(MustNewKey(identity, field), value, origin)
	require.NoError(t, err)
	return entry
}

func TestStore_MergePolicy_UserValueWins(t *testing.T) {
	t.Parallel()

	store := NewStore()
	user := mustEntry(t, "DB_URL", "", "postgres://db.internal/app", OriginUser)
	require.True(t, store.Merge(user, false))

	auto := mustEntry(t, "DB_URL", "", "redis://localhost:6379", OriginAuto)
	assert.False(t, store.Merge(auto, false), "auto value must not replace a user value")

	value, ok := store.Value("DB_URL", "")
	require.True(t, ok)
	assert.Equal(t, "postgres://db.internal/app", value)
}

func TestStore_MergePolicy_ForceOverridesUserValue(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "DB_URL", "", "postgres://db.internal/app", OriginUser), false)

	locked := mustEntry(t, "DB_URL", "", "redis://localhost:6379", OriginLocked)
	assert.True(t, store.Merge(locked, true))

	entry, ok := store.Get(MustNewKey("DB_URL", ""))
	require.True(t, ok)
	assert.Equal(t, OriginLocked, entry.Origin())
}

func TestStore_MergePolicy_AutoReplacesAuto(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "db", "port", "6379", OriginAuto), false)
	assert.True(t, store.Merge(mustEntry(t, "db", "port", "6380", OriginAuto), false))

	value, _ := store.Value("db", "port")
	assert.Equal(t, "6380", value)
}

func TestStore_MergePolicy_IncomingUserAlwaysWins(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "API_KEY", "", "generated", OriginAuto), false)
	assert.True(t, store.Merge(mustEntry(t, "API_KEY", "", "secret", OriginUser), false))

	entry, _ := store.Get(MustNewKey("API_KEY", ""))
	assert.Equal(t, OriginUser, entry.Origin())
	assert.Equal(t, "secret", entry.Value())
}

func TestStore_ForIdentity(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "db", "", "redis://localhost:6379", OriginAuto), false)
	store.Merge(mustEntry(t, "db", "port", "6379", OriginAuto), false)
	store.Merge(mustEntry(t, "other", "", "x", OriginAuto), false)

	entries := store.ForIdentity("db")
	require.Len(t, entries, 2)
	assert.Equal(t, "db", entries[0].Key().String())
	assert.Equal(t, "db#port", entries[1].Key().String())
}

func TestStore_RemoveIdentity(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "db", "", "a", OriginAuto), false)
	store.Merge(mustEntry(t, "db", "port", "b", OriginAuto), false)
	store.Merge(mustEntry(t, "keep", "", "c", OriginAuto), false)

	assert.Equal(t, 2, store.RemoveIdentity("db"))
	assert.Equal(t, 1, store.Len())
}

func TestStore_Clone_IsIndependent(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "a", "", "1", OriginAuto), false)

	clone := store.Clone()
	clone.Merge(mustEntry(t, "b", "", "2", OriginAuto), false)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestStoreDTO_RoundTripPreservesOrigins(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Merge(mustEntry(t, "DB_URL", "", "redis://localhost:6379", OriginUser), false)
	store.Merge(mustEntry(t, "db", "port", "6379", OriginLocked), false)
	store.Merge(mustEntry(t, "env:default", "prefix", "/proj/envs/default", OriginAuto), false)

	dto := StoreToDTO(store)
	assert.Equal(t, StoreFileVersion, dto.Version)

	restored, err := StoreFromDTO(dto)
	require.NoError(t, err)
	require.Equal(t, store.Len(), restored.Len())

	// The round trip must not run the merge policy: locked and auto
	// entries come back exactly as written.
	entry, ok := restored.Get(MustNewKey("db", "port"))
	require.True(t, ok)
	assert.Equal(t, OriginLocked, entry.Origin())
}

func TestStoreFromDTO_RejectsInvalidOrigin(t *testing.T) {
	t.Parallel()

	dto := StoreDTO{
		Version: StoreFileVersion,
		Entries: []EntryDTO{{Identity: "x", Value: "1", Origin: "guessed"}},
	}
	_, err := StoreFromDTO(dto)
	assert.Error(t, err)
}
