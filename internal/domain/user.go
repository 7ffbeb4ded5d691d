// Package domain holds the readlist entities shared by every store backend.
package domain

import (
	"slices"

	"github.com/readlist/readlist-server/internal/auth"
)

// User is a registered account and its saved books.
type User struct {
	Record
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"` // never returned by the API
	SavedBooks   []Book `json:"saved_books"`
}

// IsCorrectPassword reports whether password matches the stored hash.
func (u *User) IsCorrectPassword(password string) bool {
	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	return err == nil && ok
}

// SavedBookCount returns the number of saved books.
func (u *User) SavedBookCount() int {
	return len(u.SavedBooks)
}

// HasSavedBook reports whether an entry with bookID exists.
func (u *User) HasSavedBook(bookID string) bool {
	return u.savedBookIndex(bookID) >= 0
}

// AddSavedBook appends book unless an entry with the same BookID exists.
// It reports whether the collection changed.
func (u *User) AddSavedBook(book Book) bool {
	if u.HasSavedBook(book.BookID) {
		return false
	}
	u.SavedBooks = append(u.SavedBooks, book.Clone())
	return true
}

// RemoveSavedBook removes every entry with bookID.
// It reports whether the collection changed.
func (u *User) RemoveSavedBook(bookID string) bool {
	before := len(u.SavedBooks)
	u.SavedBooks = slices.DeleteFunc(u.SavedBooks, func(b Book) bool {
		return b.BookID == bookID
	})
	return len(u.SavedBooks) != before
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	c := *u
	if u.SavedBooks != nil {
		c.SavedBooks = make([]Book, len(u.SavedBooks))
		for i, b := range u.SavedBooks {
			c.SavedBooks[i] = b.Clone()
		}
	}
	return &c
}

func (u *User) savedBookIndex(bookID string) int {
	return slices.IndexFunc(u.SavedBooks, func(b Book) bool {
		return b.BookID == bookID
	})
}
