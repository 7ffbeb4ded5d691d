package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/normalize"
	"github.com/readlist/readlist-server/internal/store"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// userWithBooksQuery returns one row per saved book, or a single row with
// NULL book columns for a user without books.
const userWithBooksQuery = `
	SELECT u.id, u.created_at, u.updated_at, u.username, u.email, u.password_hash,
	       b.id, b.book_id, b.title, b.authors, b.description, b.image, b.link
	FROM users u
	LEFT JOIN saved_books b ON b.user_id = u.id
	WHERE %s
	ORDER BY b.seq`

// CreateUser inserts a new user. Saved books on the input are ignored.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, username, username_lower, email, email_lower, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Username,
		normalize.UsernameKey(user.Username),
		user.Email,
		normalize.Email(user.Email),
		user.PasswordHash,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "users.id"):
		return store.ErrUserExists
	case isUniqueViolation(err, "users.email_lower"):
		return store.ErrEmailExists
	case isUniqueViolation(err, "users.username_lower"):
		return store.ErrUsernameExists
	default:
		return fmt.Errorf("insert user: %w", err)
	}
}

// GetUser implements store.Store.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return loadUser(ctx, s.db, "u.id = ?", id)
}

// GetUserByEmail implements store.Store.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return loadUser(ctx, s.db, "u.email_lower = ?", normalize.Email(email))
}

// CountUsers implements store.Store.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// AddSavedBook inserts the book unless (user_id, book_id) already exists.
func (s *Store) AddSavedBook(ctx context.Context, userID string, book domain.Book) (*domain.User, error) {
	authors, err := json.Marshal(book.Authors)
	if err != nil {
		return nil, fmt.Errorf("marshal authors: %w", err)
	}

	return s.mutate(ctx, userID, func(tx *sql.Tx) (sql.Result, error) {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO saved_books (user_id, book_id, id, title, authors, description, image, link)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, book_id) DO NOTHING`,
			userID, book.BookID, book.ID, book.Title, string(authors), book.Description, book.Image, book.Link,
		)
		if err != nil && isForeignKeyViolation(err) {
			return nil, store.ErrUserNotFound
		}
		return res, err
	})
}

// RemoveSavedBook deletes every entry with bookID for the user.
func (s *Store) RemoveSavedBook(ctx context.Context, userID, bookID string) (*domain.User, error) {
	return s.mutate(ctx, userID, func(tx *sql.Tx) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`DELETE FROM saved_books WHERE user_id = ? AND book_id = ?`, userID, bookID)
	})
}

// mutate runs write as the first statement of a transaction so the write lock
// is taken up front, bumps updated_at when rows changed, and returns the user
// as seen inside the same transaction.
func (s *Store) mutate(ctx context.Context, userID string, write func(*sql.Tx) (sql.Result, error)) (*domain.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := write(tx)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		_, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`,
			formatTime(time.Now()), userID)
		if err != nil {
			return nil, fmt.Errorf("touch user: %w", err)
		}
	}

	user, err := loadUser(ctx, tx, "u.id = ?", userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

func loadUser(ctx context.Context, q querier, where string, arg any) (*domain.User, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(userWithBooksQuery, where), arg)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	var user *domain.User
	for rows.Next() {
		var (
			u                    domain.User
			createdAt, updatedAt string
			bookRowID, bookID    sql.NullString
			title, authors, desc sql.NullString
			image, link          sql.NullString
		)
		if err := rows.Scan(
			&u.ID, &createdAt, &updatedAt, &u.Username, &u.Email, &u.PasswordHash,
			&bookRowID, &bookID, &title, &authors, &desc, &image, &link,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		if user == nil {
			if u.CreatedAt, err = parseTime(createdAt); err != nil {
				return nil, err
			}
			if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
				return nil, err
			}
			user = &u
		}

		if !bookID.Valid {
			continue
		}
		book := domain.Book{
			ID:          bookRowID.String,
			BookID:      bookID.String,
			Title:       title.String,
			Description: desc.String,
			Image:       image.String,
			Link:        link.String,
		}
		if err := json.Unmarshal([]byte(authors.String), &book.Authors); err != nil {
			return nil, fmt.Errorf("decode authors: %w", err)
		}
		user.SavedBooks = append(user.SavedBooks, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if user == nil {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}
