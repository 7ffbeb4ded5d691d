package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/domain"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/store/badgerstore"
	"github.com/readlist/readlist-server/internal/validation"
)

// spyStore counts every call that reaches the store.
type spyStore struct {
	store.Store
	calls atomic.Int32
}

func (s *spyStore) CreateUser(ctx context.Context, u *domain.User) error {
	s.calls.Add(1)
	return s.Store.CreateUser(ctx, u)
}

func (s *spyStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.calls.Add(1)
	return s.Store.GetUser(ctx, id)
}

func (s *spyStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.calls.Add(1)
	return s.Store.GetUserByEmail(ctx, email)
}

func (s *spyStore) AddSavedBook(ctx context.Context, userID string, b domain.Book) (*domain.User, error) {
	s.calls.Add(1)
	return s.Store.AddSavedBook(ctx, userID, b)
}

func (s *spyStore) RemoveSavedBook(ctx context.Context, userID, bookID string) (*domain.User, error) {
	s.calls.Add(1)
	return s.Store.RemoveSavedBook(ctx, userID, bookID)
}

// brokenStore fails every operation with err.
type brokenStore struct {
	store.Store
	err error
}

func (b brokenStore) CreateUser(context.Context, *domain.User) error { return b.err }
func (b brokenStore) GetUser(context.Context, string) (*domain.User, error) {
	return nil, b.err
}
func (b brokenStore) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, b.err
}
func (b brokenStore) AddSavedBook(context.Context, string, domain.Book) (*domain.User, error) {
	return nil, b.err
}
func (b brokenStore) RemoveSavedBook(context.Context, string, string) (*domain.User, error) {
	return nil, b.err
}

var errDiskFull = errors.New("disk full")

type testServices struct {
	auth   *AuthService
	books  *BookService
	store  *spyStore
	tokens auth.TokenIssuer
}

// setupServiceTest creates services over a Badger store in a temp dir.
func setupServiceTest(t *testing.T) (*testServices, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "readlist-service-test-*")
	require.NoError(t, err)

	s, err := badgerstore.Open(tmpDir, nil)
	require.NoError(t, err)
	spy := &spyStore{Store: s}

	tokens, err := auth.NewPasetoIssuer(bytes.Repeat([]byte{7}, auth.KeyLength), time.Hour)
	require.NoError(t, err)

	v := validation.New()
	svc := &testServices{
		auth:   NewAuthService(spy, tokens, v, nil),
		books:  NewBookService(spy, v, nil),
		store:  spy,
		tokens: tokens,
	}

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}
	return svc, cleanup
}

// register creates a user and returns its authenticated viewer.
func (ts *testServices) register(t *testing.T, username, email, password string) (auth.Viewer, *AuthResult) {
	t.Helper()
	res, err := ts.auth.AddUser(context.Background(), AddUserRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return ts.auth.Authenticate(res.Token), res
}

func requireCode(t *testing.T, err error, code domainerrors.Code, message string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code)
	if message != "" {
		require.Equal(t, message, domainErr.Message)
	}
}
