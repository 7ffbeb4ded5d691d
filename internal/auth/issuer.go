package auth

import (
	"errors"
	"fmt"
	"time"
)

const (
	tokenIssuer   = "readlist-server"
	tokenAudience = "readlist-client"
)

// Token formats accepted by NewIssuer.
const (
	FormatPaseto = "paseto"
	FormatJWT    = "jwt"
)

var (
	// ErrMissingToken is returned when no token was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers malformed, tampered, or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the decoded subject of a session token.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Claims is a verified token payload.
type Claims struct {
	Identity
	ExpiresAt time.Time
	IssuedAt  time.Time
	TokenID   string
}

// TokenIssuer signs and verifies stateless session tokens.
type TokenIssuer interface {
	SignToken(username, email, userID string) (string, error)
	VerifyToken(token string) (*Claims, error)
	TokenDuration() time.Duration
}

// NewIssuer builds the TokenIssuer for format.
func NewIssuer(format string, key []byte, duration time.Duration) (TokenIssuer, error) {
	switch format {
	case FormatPaseto, "":
		return NewPasetoIssuer(key, duration)
	case FormatJWT:
		return NewJWTIssuer(key, duration)
	default:
		return nil, fmt.Errorf("unsupported token format %q", format)
	}
}

func checkKey(key []byte, duration time.Duration) error {
	if len(key) != KeyLength {
		return fmt.Errorf("token key must be exactly %d bytes, got %d", KeyLength, len(key))
	}
	if duration <= 0 {
		return errors.New("token duration must be positive")
	}
	return nil
}
