package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/domain"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/id"
	"github.com/readlist/readlist-server/internal/normalize"
	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/validation"
)

const (
	MsgUserNotFound     = "User not found"
	MsgLoadUserFailed   = "Failed to load the user"
	MsgSaveBookFailed   = "Failed to save the book"
	MsgRemoveBookFailed = "Failed to remove the book"
)

// BookService reads the viewer's profile and edits their saved books.
type BookService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(st store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{store: st, validator: validator, logger: logger}
}

// SaveBookRequest is a book to add to the viewer's collection.
type SaveBookRequest struct {
	BookID      string   `json:"bookId" validate:"required,notblank,max=256"`
	Title       string   `json:"title" validate:"required,notblank,max=1024"`
	Authors     []string `json:"authors" validate:"required,max=100,dive,max=512"`
	Description string   `json:"description" validate:"max=20000"`
	Image       string   `json:"image" validate:"max=2048"`
	Link        string   `json:"link" validate:"max=2048"`
}

// DeleteBookRequest names the book to remove.
type DeleteBookRequest struct {
	BookID string `json:"bookId" validate:"required,notblank,max=256"`
}

// Me returns the viewer's user record with saved books.
func (s *BookService) Me(ctx context.Context, viewer auth.Viewer) (*domain.User, error) {
	identity, ok := viewer.Identity()
	if !ok {
		return nil, domainerrors.Unauthenticated(MsgCouldNotAuthenticate)
	}

	user, err := s.store.GetUser(ctx, identity.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, domainerrors.NotFound(MsgUserNotFound)
	}
	if err != nil {
		s.logger.Error("load user failed", "user_id", identity.UserID, "error", err)
		return nil, domainerrors.Internal(MsgLoadUserFailed).WithCause(err)
	}
	return user, nil
}

// SaveBook adds a book to the viewer's collection. Saving a bookId that is
// already present leaves the existing entry unchanged.
func (s *BookService) SaveBook(ctx context.Context, viewer auth.Viewer, req SaveBookRequest) (*domain.User, error) {
	identity, ok := viewer.Identity()
	if !ok {
		return nil, domainerrors.Unauthenticated(MsgLoginRequired)
	}

	req.BookID = normalize.Text(req.BookID)
	req.Title = normalize.Text(req.Title)
	req.Authors = normalize.Authors(req.Authors)
	req.Description = normalize.Description(req.Description)
	req.Image = normalize.Text(req.Image)
	req.Link = normalize.Text(req.Link)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookRecordID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Internal(MsgSaveBookFailed).WithCause(err)
	}

	book := domain.Book{
		ID:          bookRecordID,
		BookID:      req.BookID,
		Title:       req.Title,
		Authors:     req.Authors,
		Description: req.Description,
		Image:       req.Image,
		Link:        req.Link,
	}

	user, err := s.store.AddSavedBook(ctx, identity.UserID, book)
	if err != nil {
		s.logger.Error("save book failed", "user_id", identity.UserID, "book_id", req.BookID, "error", err)
		return nil, domainerrors.Internal(MsgSaveBookFailed).WithCause(err)
	}

	s.logger.Debug("book saved", "user_id", identity.UserID, "book_id", req.BookID)
	return user, nil
}

// DeleteBook removes a book from the viewer's collection. Removing a bookId
// that is not saved is a no-op.
func (s *BookService) DeleteBook(ctx context.Context, viewer auth.Viewer, req DeleteBookRequest) (*domain.User, error) {
	identity, ok := viewer.Identity()
	if !ok {
		return nil, domainerrors.Unauthenticated(MsgLoginRequired)
	}

	req.BookID = normalize.Text(req.BookID)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.RemoveSavedBook(ctx, identity.UserID, req.BookID)
	if err != nil {
		s.logger.Error("remove book failed", "user_id", identity.UserID, "book_id", req.BookID, "error", err)
		return nil, domainerrors.Internal(MsgRemoveBookFailed).WithCause(err)
	}

	s.logger.Debug("book removed", "user_id", identity.UserID, "book_id", req.BookID)
	return user, nil
}
