// Package service implements the readlist use cases on top of a store.Store.
// Every method that needs an identity takes an explicit auth.Viewer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/readlist/readlist-server/internal/auth"
	"github.com/readlist/readlist-server/internal/domain"
	domainerrors "github.com/readlist/readlist-server/internal/errors"
	"github.com/readlist/readlist-server/internal/id"
	"github.com/readlist/readlist-server/internal/normalize"
	"github.com/readlist/readlist-server/internal/store"
	"github.com/readlist/readlist-server/internal/validation"
)

// Caller-visible messages. Authentication failures share one message so
// responses never reveal whether an account exists.
const (
	MsgCouldNotAuthenticate = "Could not authenticate user."
	MsgLoginRequired        = "You need to be logged in!"
	MsgEmailInUse           = "email already in use"
	MsgUsernameInUse        = "username already in use"
	MsgCreateUserFailed     = "Failed to create the user"
	MsgLoginFailed          = "Failed to log in"
)

// AuthService registers users, logs them in, and resolves tokens to viewers.
type AuthService struct {
	store     store.Store
	tokens    auth.TokenIssuer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st store.Store, tokens auth.TokenIssuer, validator *validation.Validator, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{store: st, tokens: tokens, validator: validator, logger: logger}
}

// AddUserRequest contains registration data.
type AddUserRequest struct {
	Username string `json:"username" validate:"required,username,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is a signed session token and the user it belongs to.
type AuthResult struct {
	Token string
	User  *domain.User
}

// AddUser creates an account and signs a token for it.
func (s *AuthService) AddUser(ctx context.Context, req AddUserRequest) (*AuthResult, error) {
	req.Username = normalize.Username(req.Username)
	req.Email = normalize.Email(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		return nil, domainerrors.Internal(MsgCreateUserFailed).WithCause(err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		s.logger.Error("generate user id failed", "error", err)
		return nil, domainerrors.Internal(MsgCreateUserFailed).WithCause(err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		SavedBooks:   []domain.Book{},
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			return nil, domainerrors.AlreadyExists(MsgEmailInUse)
		case errors.Is(err, store.ErrUsernameExists):
			return nil, domainerrors.AlreadyExists(MsgUsernameInUse)
		}
		s.logger.Error("create user failed", "error", err)
		return nil, domainerrors.Internal(MsgCreateUserFailed).WithCause(err)
	}

	token, err := s.tokens.SignToken(user.Username, user.Email, user.ID)
	if err != nil {
		s.logger.Error("sign token failed", "user_id", user.ID, "error", err)
		return nil, domainerrors.Internal(MsgCreateUserFailed).WithCause(err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and signs a token. Unknown emails and wrong
// passwords fail identically and take comparable time.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = normalize.Email(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		auth.DummyVerify(req.Password)
		return nil, domainerrors.Unauthenticated(MsgCouldNotAuthenticate)
	}
	if err != nil {
		s.logger.Error("login lookup failed", "error", err)
		return nil, domainerrors.Internal(MsgLoginFailed).WithCause(err)
	}

	if !user.IsCorrectPassword(req.Password) {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, domainerrors.Unauthenticated(MsgCouldNotAuthenticate)
	}

	token, err := s.tokens.SignToken(user.Username, user.Email, user.ID)
	if err != nil {
		return nil, domainerrors.Internal(MsgLoginFailed).WithCause(err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to a Viewer. Missing, invalid, and
// expired tokens all yield the anonymous viewer.
func (s *AuthService) Authenticate(token string) auth.Viewer {
	if token == "" {
		return auth.Anonymous()
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		s.logger.Debug("token rejected", "error", err)
		return auth.Anonymous()
	}
	return auth.Authenticated(claims.Identity)
}

// TokenDuration returns the lifetime of issued tokens.
func (s *AuthService) TokenDuration() time.Duration {
	return s.tokens.TokenDuration()
}
