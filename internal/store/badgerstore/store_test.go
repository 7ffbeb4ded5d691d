package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	u := storetest.NewUser("alice", "alice@x.com")
	require.NoError(t, s.CreateUser(ctx, u))
	_, err = s.AddSavedBook(ctx, u.ID, storetest.NewBook("B1", "The Hobbit"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Len(t, got.SavedBooks, 1)
	assert.Equal(t, "B1", got.SavedBooks[0].BookID)
	assert.Equal(t, "badger", s.Driver())
}

func TestStore_NoopMutationKeepsUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	u := storetest.NewUser("alice", "alice@x.com")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.RemoveSavedBook(ctx, u.ID, "missing")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(u.UpdatedAt))
}
