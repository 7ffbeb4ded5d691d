package graph

import (
	"context"
	"log/slog"

	"github.com/readlist/readlist-server/internal/auth"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/service"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	auth   *service.AuthService
	books  *service.BookService
	logger *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(authService *service.AuthService, bookService *service.BookService, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{auth: authService, books: bookService, logger: logger}
}

// fail logs internal failures and converts err for the client.
func (r *Resolver) fail(ctx context.Context, op string, err error) error {
	if domainerrors.CodeOf(err) == domainerrors.CodeInternal {
		r.logger.ErrorContext(ctx, "graphql operation failed", "operation", op, "error", err)
	}
	return toGraphQLError(err)
}

// Me resolves the viewer's own profile.
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	user, err := r.books.Me(ctx, auth.ViewerFrom(ctx))
	if err != nil {
		return nil, r.fail(ctx, "me", err)
	}
	return newUserResolver(user), nil
}

type userInput struct {
	Username string
	Email    string
	Password string
}

// AddUser registers an account and returns a session token for it.
func (r *Resolver) AddUser(ctx context.Context, args struct{ Input userInput }) (*authResolver, error) {
	if err := checkWritable(ctx); err != nil {
		return nil, err
	}

	res, err := r.auth.AddUser(ctx, service.AddUserRequest{
		Username: args.Input.Username,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, r.fail(ctx, "addUser", err)
	}
	return newAuthResolver(res), nil
}

// Login exchanges credentials for a session token.
func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authResolver, error) {
	if err := checkWritable(ctx); err != nil {
		return nil, err
	}

	res, err := r.auth.Login(ctx, service.LoginRequest{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, r.fail(ctx, "login", err)
	}
	return newAuthResolver(res), nil
}

type bookInput struct {
	BookID      string
	Title       string
	Authors     []*string
	Description *string
	Image       *string
	Link        *string
}

// SaveBook adds a book to the viewer's saved books.
func (r *Resolver) SaveBook(ctx context.Context, args struct{ Input bookInput }) (*userResolver, error) {
	if err := checkWritable(ctx); err != nil {
		return nil, err
	}

	in := args.Input
	user, err := r.books.SaveBook(ctx, auth.ViewerFrom(ctx), service.SaveBookRequest{
		BookID:      in.BookID,
		Title:       in.Title,
		Authors:     derefStrings(in.Authors),
		Description: deref(in.Description),
		Image:       deref(in.Image),
		Link:        deref(in.Link),
	})
	if err != nil {
		return nil, r.fail(ctx, "saveBook", err)
	}
	return newUserResolver(user), nil
}

// DeleteBook removes a book from the viewer's saved books.
func (r *Resolver) DeleteBook(ctx context.Context, args struct{ BookID string }) (*userResolver, error) {
	if err := checkWritable(ctx); err != nil {
		return nil, err
	}

	user, err := r.books.DeleteBook(ctx, auth.ViewerFrom(ctx), service.DeleteBookRequest{BookID: args.BookID})
	if err != nil {
		return nil, r.fail(ctx, "deleteBook", err)
	}
	return newUserResolver(user), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// derefStrings drops null list items. A non-null list stays non-nil.
func derefStrings(in []*string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}
