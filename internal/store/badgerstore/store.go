// Package badgerstore is the default embedded store.Store, backed by Badger.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/normalize"
	"github.com/readlist/readlist-server/internal/store"
)

const (
	driverName = "badger"
	userPrefix = "user:"
)

// Store persists users as JSON documents with their saved books embedded.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users *Entity[domain.User]
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		users: NewEntity[domain.User](db, userPrefix).
			WithUniqueIndex("email", func(u *domain.User) []string {
				return []string{normalize.Email(u.Email)}
			}, normalize.Email, store.ErrEmailExists).
			WithUniqueIndex("username", func(u *domain.User) []string {
				return []string{normalize.UsernameKey(u.Username)}
			}, normalize.UsernameKey, store.ErrUsernameExists),
	}

	if logger != nil {
		logger.Info("badger store opened", "path", dir)
	}
	return s, nil
}

// Driver implements store.Store.
func (s *Store) Driver() string {
	return driverName
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing badger store")
	}
	return s.db.Close()
}

// CreateUser implements store.Store.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.users.Create(ctx, user.ID, user)
	if errors.Is(err, errAlreadyExists) {
		return store.ErrUserExists
	}
	return err
}

// GetUser implements store.Store.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return mapNotFound(s.users.Get(ctx, id))
}

// GetUserByEmail implements store.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return mapNotFound(s.users.GetByIndex(ctx, "email", email))
}

// AddSavedBook implements store.Store.
func (s *Store) AddSavedBook(ctx context.Context, userID string, book domain.Book) (*domain.User, error) {
	return mapNotFound(s.users.Mutate(ctx, userID, func(u *domain.User) (bool, error) {
		if !u.AddSavedBook(book) {
			return false, nil
		}
		u.Touch()
		return true, nil
	}))
}

// RemoveSavedBook implements store.Store.
func (s *Store) RemoveSavedBook(ctx context.Context, userID, bookID string) (*domain.User, error) {
	return mapNotFound(s.users.Mutate(ctx, userID, func(u *domain.User) (bool, error) {
		if !u.RemoveSavedBook(bookID) {
			return false, nil
		}
		u.Touch()
		return true, nil
	}))
}

// CountUsers implements store.Store.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

func mapNotFound(u *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, errNotFound) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
