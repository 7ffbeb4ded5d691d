// Package storetest is a behavioral suite every store.Store backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/id"
	"github.com/readlist/readlist-server/internal/store"
)

// Factory opens an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// NewUser builds a user ready for CreateUser.
func NewUser(username, email string) *domain.User {
	u := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	}
	u.InitTimestamps()
	return u
}

// NewBook builds a saved-book entry with a fresh internal ID.
func NewBook(bookID, title string, authors ...string) domain.Book {
	return domain.Book{
		ID:          id.MustGenerate(id.PrefixBook),
		BookID:      bookID,
		Title:       title,
		Authors:     authors,
		Description: "A description of " + title,
		Image:       "https://covers.example.com/" + bookID + ".jpg",
		Link:        "https://books.example.com/" + bookID,
	}
}

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndGetUser", testCreateAndGetUser},
		{"GetUserNotFound", testGetUserNotFound},
		{"DuplicateUserID", testDuplicateUserID},
		{"DuplicateEmail", testDuplicateEmail},
		{"DuplicateUsername", testDuplicateUsername},
		{"GetUserByEmail", testGetUserByEmail},
		{"CountUsers", testCountUsers},
		{"AddSavedBook", testAddSavedBook},
		{"AddSavedBookIsIdempotent", testAddSavedBookIdempotent},
		{"RemoveSavedBook", testRemoveSavedBook},
		{"RemoveAbsentBookIsNoop", testRemoveAbsentBook},
		{"SaveThenRemoveRestores", testSaveThenRemoveRestores},
		{"SetOperationsOnMissingUser", testSetOperationsMissingUser},
		{"CollectionsAreIsolated", testCollectionsIsolated},
		{"ConcurrentAdds", testConcurrentAdds},
		{"ConcurrentDuplicateAdds", testConcurrentDuplicateAdds},
		{"CanceledContext", testCanceledContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func mustCreate(t *testing.T, s store.Store, u *domain.User) *domain.User {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func bookIDs(u *domain.User) []string {
	ids := make([]string, 0, len(u.SavedBooks))
	for _, b := range u.SavedBooks {
		ids = append(ids, b.BookID)
	}
	return ids
}

func testCreateAndGetUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.Empty(t, got.SavedBooks)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testGetUserNotFound(t *testing.T, s store.Store) {
	_, err := s.GetUser(context.Background(), "user-missing")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func testDuplicateUserID(t *testing.T, s store.Store) {
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	dup := NewUser("bob", "bob@x.com")
	dup.ID = u.ID
	assert.ErrorIs(t, s.CreateUser(context.Background(), dup), store.ErrUserExists)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	mustCreate(t, s, NewUser("alice", "alice@x.com"))

	err := s.CreateUser(context.Background(), NewUser("alice2", "alice@x.com"))
	assert.ErrorIs(t, err, store.ErrEmailExists)

	n, err := s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "failed create leaves no partial record")
}

func testDuplicateUsername(t *testing.T, s store.Store) {
	mustCreate(t, s, NewUser("alice", "alice@x.com"))

	err := s.CreateUser(context.Background(), NewUser("Alice", "other@x.com"))
	assert.ErrorIs(t, err, store.ErrUsernameExists)
}

func testGetUserByEmail(t *testing.T, s store.Store) {
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	got, err := s.GetUserByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.GetUserByEmail(context.Background(), "  ALICE@X.COM ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func testCountUsers(t *testing.T, s store.Store) {
	n, err := s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	mustCreate(t, s, NewUser("alice", "alice@x.com"))
	mustCreate(t, s, NewUser("bob", "bob@x.com"))

	n, err = s.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testAddSavedBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	b1 := NewBook("B1", "The Hobbit", "J.R.R. Tolkien")
	got, err := s.AddSavedBook(ctx, u.ID, b1)
	require.NoError(t, err)
	require.Len(t, got.SavedBooks, 1)
	assert.Equal(t, b1, got.SavedBooks[0])

	got, err = s.AddSavedBook(ctx, u.ID, NewBook("B2", "Dune", "Frank Herbert"))
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B2"}, bookIDs(got))

	reloaded, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, got.SavedBooks, reloaded.SavedBooks)
}

func testAddSavedBookIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	first := NewBook("B1", "The Hobbit", "J.R.R. Tolkien")
	_, err := s.AddSavedBook(ctx, u.ID, first)
	require.NoError(t, err)

	second := NewBook("B1", "The Hobbit (reissue)", "J.R.R. Tolkien")
	got, err := s.AddSavedBook(ctx, u.ID, second)
	require.NoError(t, err)

	require.Len(t, got.SavedBooks, 1)
	assert.Equal(t, first.ID, got.SavedBooks[0].ID, "first entry kept")
	assert.Equal(t, "The Hobbit", got.SavedBooks[0].Title)
}

func testRemoveSavedBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))
	for _, bid := range []string{"B1", "B2", "B3"} {
		_, err := s.AddSavedBook(ctx, u.ID, NewBook(bid, "Book "+bid))
		require.NoError(t, err)
	}

	got, err := s.RemoveSavedBook(ctx, u.ID, "B2")
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B3"}, bookIDs(got))

	reloaded, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B3"}, bookIDs(reloaded))
}

func testRemoveAbsentBook(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))
	_, err := s.AddSavedBook(ctx, u.ID, NewBook("B1", "The Hobbit"))
	require.NoError(t, err)

	got, err := s.RemoveSavedBook(ctx, u.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, bookIDs(got))

	empty := mustCreate(t, s, NewUser("bob", "bob@x.com"))
	got, err = s.RemoveSavedBook(ctx, empty.ID, "missing")
	require.NoError(t, err)
	assert.Empty(t, got.SavedBooks)
}

func testSaveThenRemoveRestores(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))
	before, err := s.AddSavedBook(ctx, u.ID, NewBook("B1", "The Hobbit"))
	require.NoError(t, err)

	_, err = s.AddSavedBook(ctx, u.ID, NewBook("B9", "Temporary"))
	require.NoError(t, err)
	after, err := s.RemoveSavedBook(ctx, u.ID, "B9")
	require.NoError(t, err)

	assert.Equal(t, before.SavedBooks, after.SavedBooks)
}

func testSetOperationsMissingUser(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AddSavedBook(ctx, "user-missing", NewBook("B1", "The Hobbit"))
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.RemoveSavedBook(ctx, "user-missing", "B1")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func testCollectionsIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustCreate(t, s, NewUser("alice", "alice@x.com"))
	bob := mustCreate(t, s, NewUser("bob", "bob@x.com"))

	_, err := s.AddSavedBook(ctx, alice.ID, NewBook("B1", "The Hobbit"))
	require.NoError(t, err)
	_, err = s.AddSavedBook(ctx, bob.ID, NewBook("B1", "The Hobbit"))
	require.NoError(t, err)

	_, err = s.RemoveSavedBook(ctx, alice.ID, "B1")
	require.NoError(t, err)

	got, err := s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, bookIDs(got))
}

func testConcurrentAdds(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Go(func() {
			_, err := s.AddSavedBook(ctx, u.ID, NewBook(fmt.Sprintf("B%02d", i), "Book"))
			errs <- err
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.SavedBooks, n, "no lost updates")
}

func testConcurrentDuplicateAdds(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, NewUser("alice", "alice@x.com"))

	const n = 8
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			_, err := s.AddSavedBook(ctx, u.ID, NewBook("B1", "The Hobbit"))
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.SavedBooks, 1)
}

func testCanceledContext(t *testing.T, s store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUser(ctx, "user-any")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrUserNotFound)
}
