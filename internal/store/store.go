// Package store defines the persistence contract for users and their saved books.
// Backends live in subpackages: badgerstore (default), sqlite, and mongostore.
package store

import (
	"context"
	"errors"

	"github.com/readlist/readlist-server/internal/domain"
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user with an existing ID.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailExists is returned when the normalized email is already registered.
	ErrEmailExists = errors.New("email already in use")
	// ErrUsernameExists is returned when the username (case-insensitive) is taken.
	ErrUsernameExists = errors.New("username already in use")
)

// Store persists users and their saved-book collections.
//
// AddSavedBook and RemoveSavedBook are atomic per user: concurrent calls never
// lose an update, AddSavedBook never produces two entries with the same BookID,
// and both return the user as it is after the change. Both return
// ErrUserNotFound when the user does not exist.
type Store interface {
	// Driver names the backend ("badger", "sqlite", "mongo").
	Driver() string
	Close() error

	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail matches on the normalized email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// AddSavedBook appends book unless an entry with its BookID exists.
	AddSavedBook(ctx context.Context, userID string, book domain.Book) (*domain.User, error)
	// RemoveSavedBook pulls every entry with bookID. Absent IDs are a no-op.
	RemoveSavedBook(ctx context.Context, userID, bookID string) (*domain.User, error)

	CountUsers(ctx context.Context) (int, error)
}
