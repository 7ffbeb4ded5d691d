package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/domain"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/validation"
)

func hobbit() SaveBookRequest {
	return SaveBookRequest{
		BookID:      "B1",
		Title:       "The Hobbit",
		Authors:     []string{"J.R.R. Tolkien"},
		Description: "<p>There and back again.</p>",
		Image:       "https://covers.example.com/B1.jpg",
		Link:        "https://books.example.com/B1",
	}
}

func bookIDs(u *domain.User) []string {
	ids := make([]string, 0, len(u.SavedBooks))
	for _, b := range u.SavedBooks {
		ids = append(ids, b.BookID)
	}
	return ids
}

func TestBookService_AnonymousViewerIsRejectedWithoutStoreAccess(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	ctx := context.Background()
	anon := auth.Anonymous()

	_, err := svc.books.Me(ctx, anon)
	requireCode(t, err, domainerrors.CodeUnauthenticated, MsgCouldNotAuthenticate)

	_, err = svc.books.SaveBook(ctx, anon, hobbit())
	requireCode(t, err, domainerrors.CodeUnauthenticated, MsgLoginRequired)

	_, err = svc.books.DeleteBook(ctx, anon, DeleteBookRequest{BookID: "B1"})
	requireCode(t, err, domainerrors.CodeUnauthenticated, MsgLoginRequired)

	assert.Zero(t, svc.store.calls.Load())
}

func TestBookService_Me(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, res := svc.register(t, "alice", "alice@x.com", "pw123")

	me, err := svc.books.Me(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, me.ID)
	assert.Empty(t, me.SavedBooks)
}

func TestBookService_Me_DeletedUser(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()

	ghost := auth.Authenticated(auth.Identity{UserID: "user-gone", Username: "ghost", Email: "ghost@x.com"})
	_, err := svc.books.Me(context.Background(), ghost)
	requireCode(t, err, domainerrors.CodeNotFound, MsgUserNotFound)
}

func TestBookService_SaveBook(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")

	user, err := svc.books.SaveBook(context.Background(), viewer, hobbit())
	require.NoError(t, err)

	require.Len(t, user.SavedBooks, 1)
	saved := user.SavedBooks[0]
	assert.Equal(t, "B1", saved.BookID)
	assert.Contains(t, saved.ID, "book-")
	assert.Equal(t, []string{"J.R.R. Tolkien"}, saved.Authors)
	assert.Equal(t, "There and back again.", saved.Description, "html converted")
}

func TestBookService_SaveBookTwiceKeepsOneEntry(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")
	ctx := context.Background()

	first, err := svc.books.SaveBook(ctx, viewer, hobbit())
	require.NoError(t, err)
	second, err := svc.books.SaveBook(ctx, viewer, hobbit())
	require.NoError(t, err)

	assert.Equal(t, []string{"B1"}, bookIDs(second))
	assert.Equal(t, first.SavedBooks[0].ID, second.SavedBooks[0].ID)
}

func TestBookService_DeleteAbsentBookIsNoop(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")
	ctx := context.Background()

	_, err := svc.books.SaveBook(ctx, viewer, hobbit())
	require.NoError(t, err)

	user, err := svc.books.DeleteBook(ctx, viewer, DeleteBookRequest{BookID: "not-saved"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, bookIDs(user))
}

func TestBookService_SaveThenDeleteRestores(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")
	ctx := context.Background()

	dune := hobbit()
	dune.BookID, dune.Title = "B2", "Dune"
	before, err := svc.books.SaveBook(ctx, viewer, dune)
	require.NoError(t, err)

	_, err = svc.books.SaveBook(ctx, viewer, hobbit())
	require.NoError(t, err)
	after, err := svc.books.DeleteBook(ctx, viewer, DeleteBookRequest{BookID: "B1"})
	require.NoError(t, err)

	assert.Equal(t, before.SavedBooks, after.SavedBooks)
}

func TestBookService_SaveBook_Validation(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")

	tests := []struct {
		name   string
		mutate func(*SaveBookRequest)
		field  string
	}{
		{"blank bookId", func(r *SaveBookRequest) { r.BookID = "  " }, "bookId"},
		{"missing title", func(r *SaveBookRequest) { r.Title = "" }, "title"},
		{"nil authors", func(r *SaveBookRequest) { r.Authors = nil }, "authors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := hobbit()
			tt.mutate(&req)

			_, err := svc.books.SaveBook(context.Background(), viewer, req)
			requireCode(t, err, domainerrors.CodeValidation, "")
			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Contains(t, domainErr.Details, tt.field)
		})
	}
}

func TestBookService_SaveBook_EmptyAuthorsAllowed(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	viewer, _ := svc.register(t, "alice", "alice@x.com", "pw123")

	req := hobbit()
	req.Authors = []string{}
	user, err := svc.books.SaveBook(context.Background(), viewer, req)
	require.NoError(t, err)
	assert.Len(t, user.SavedBooks, 1)
}

func TestBookService_StoreFailuresAreInternal(t *testing.T) {
	books := NewBookService(brokenStore{err: errDiskFull}, validation.New(), nil)
	viewer := auth.Authenticated(auth.Identity{UserID: "user-1"})
	ctx := context.Background()

	_, err := books.SaveBook(ctx, viewer, hobbit())
	requireCode(t, err, domainerrors.CodeInternal, MsgSaveBookFailed)
	assert.Equal(t, MsgSaveBookFailed, domainerrors.PublicMessage(err))
	assert.ErrorIs(t, err, errDiskFull)

	_, err = books.DeleteBook(ctx, viewer, DeleteBookRequest{BookID: "B1"})
	requireCode(t, err, domainerrors.CodeInternal, MsgRemoveBookFailed)

	_, err = books.Me(ctx, viewer)
	requireCode(t, err, domainerrors.CodeInternal, MsgLoadUserFailed)
}

func TestBookService_UserVanishedDuringUpdateIsInternal(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	ghost := auth.Authenticated(auth.Identity{UserID: "user-gone"})

	_, err := svc.books.SaveBook(context.Background(), ghost, hobbit())
	requireCode(t, err, domainerrors.CodeInternal, MsgSaveBookFailed)

	_, err = svc.books.DeleteBook(context.Background(), ghost, DeleteBookRequest{BookID: "B1"})
	requireCode(t, err, domainerrors.CodeInternal, MsgRemoveBookFailed)
}

func TestScenario_AliceSavesAndRemovesABook(t *testing.T) {
	svc, cleanup := setupServiceTest(t)
	defer cleanup()
	ctx := context.Background()

	registered, err := svc.auth.AddUser(ctx, AddUserRequest{Username: "alice", Email: "alice@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Empty(t, registered.User.SavedBooks)

	login, err := svc.auth.Login(ctx, LoginRequest{Email: "alice@x.com", Password: "pw123"})
	require.NoError(t, err)
	viewer := svc.auth.Authenticate(login.Token)

	saved, err := svc.books.SaveBook(ctx, viewer, hobbit())
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, bookIDs(saved))

	removed, err := svc.books.DeleteBook(ctx, viewer, DeleteBookRequest{BookID: "B1"})
	require.NoError(t, err)
	assert.Empty(t, removed.SavedBooks)
}
