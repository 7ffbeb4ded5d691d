package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readlist/readlist-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a user account and returns a session token",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns a session token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)
}

// === DTOs ===

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" doc:"Unique username"`
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password (at least 5 characters)"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthResponse contains a session token and its user.
type AuthResponse struct {
	Token     string       `json:"token" doc:"Session token for the Authorization header"`
	TokenType string       `json:"token_type" doc:"Always Bearer"`
	ExpiresIn int          `json:"expires_in" doc:"Token lifetime in seconds"`
	User      UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	res, err := s.services.Auth.AddUser(ctx, service.AddUserRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.authOutput(res), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	res, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.authOutput(res), nil
}

func (s *Server) authOutput(res *service.AuthResult) *AuthOutput {
	return &AuthOutput{
		Body: AuthResponse{
			Token:     res.Token,
			TokenType: "Bearer",
			ExpiresIn: int(s.services.Auth.TokenDuration().Seconds()),
			User:      mapUserResponse(res.User),
		},
	}
}
