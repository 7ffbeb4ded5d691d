package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/domain"
	"github.com/readlist/readlist-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	security := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user with saved books",
		Tags:        []string{"Users"},
		Security:    security,
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/me/books",
		Summary:     "Save book",
		Description: "Adds a book to the saved books. Saving a bookId twice keeps the first entry.",
		Tags:        []string{"Users"},
		Security:    security,
	}, s.handleSaveBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/me/books/{bookId}",
		Summary:     "Remove saved book",
		Description: "Removes a book from the saved books. Unknown bookIds are ignored.",
		Tags:        []string{"Users"},
		Security:    security,
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookResponse is a saved book in API responses.
type BookResponse struct {
	ID          string   `json:"id" doc:"Saved entry ID"`
	BookID      string   `json:"bookId" doc:"External book identifier"`
	Title       string   `json:"title" doc:"Book title"`
	Authors     []string `json:"authors" doc:"Author names"`
	Description string   `json:"description,omitempty" doc:"Description in Markdown"`
	Image       string   `json:"image,omitempty" doc:"Cover image URL"`
	Link        string   `json:"link,omitempty" doc:"Book page URL"`
}

// UserResponse is a user in API responses. The password hash is never included.
type UserResponse struct {
	ID             string         `json:"id" doc:"User ID"`
	Username       string         `json:"username" doc:"Username"`
	Email          string         `json:"email" doc:"Email address"`
	SavedBookCount int            `json:"savedBookCount" doc:"Number of saved books"`
	SavedBooks     []BookResponse `json:"savedBooks" doc:"Saved books in the order they were added"`
	CreatedAt      time.Time      `json:"createdAt" doc:"Account creation time"`
	UpdatedAt      time.Time      `json:"updatedAt" doc:"Last modification time"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// SaveBookRequest is the request body for saving a book.
type SaveBookRequest struct {
	BookID      string   `json:"bookId" doc:"External book identifier"`
	Title       string   `json:"title" doc:"Book title"`
	Authors     []string `json:"authors" doc:"Author names"`
	Description string   `json:"description,omitempty" doc:"Description, HTML is converted to Markdown"`
	Image       string   `json:"image,omitempty" doc:"Cover image URL"`
	Link        string   `json:"link,omitempty" doc:"Book page URL"`
}

// SaveBookInput wraps the save request for Huma.
type SaveBookInput struct {
	Body SaveBookRequest
}

// DeleteBookInput identifies the book to remove.
type DeleteBookInput struct {
	BookID string `path:"bookId" doc:"External book identifier"`
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.services.Books.Me(ctx, auth.ViewerFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleSaveBook(ctx context.Context, input *SaveBookInput) (*UserOutput, error) {
	user, err := s.services.Books.SaveBook(ctx, auth.ViewerFrom(ctx), service.SaveBookRequest{
		BookID:      input.Body.BookID,
		Title:       input.Body.Title,
		Authors:     input.Body.Authors,
		Description: input.Body.Description,
		Image:       input.Body.Image,
		Link:        input.Body.Link,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*UserOutput, error) {
	user, err := s.services.Books.DeleteBook(ctx, auth.ViewerFrom(ctx), service.DeleteBookRequest{
		BookID: input.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

// === Mappers ===

func mapUserResponse(u *domain.User) UserResponse {
	books := make([]BookResponse, len(u.SavedBooks))
	for i, b := range u.SavedBooks {
		books[i] = mapBookResponse(b)
	}
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		SavedBookCount: u.SavedBookCount(),
		SavedBooks:     books,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func mapBookResponse(b domain.Book) BookResponse {
	authors := b.Authors
	if authors == nil {
		authors = []string{}
	}
	return BookResponse{
		ID:          b.ID,
		BookID:      b.BookID,
		Title:       b.Title,
		Authors:     authors,
		Description: b.Description,
		Image:       b.Image,
		Link:        b.Link,
	}
}
