package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtData mirrors the {data: {...}} payload used by jsonwebtoken-based clients.
type jwtData struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	ID       string `json:"_id"`
}

type jwtClaims struct {
	Data jwtData `json:"data"`
	jwt.RegisteredClaims
}

// JWTIssuer issues HS256 JSON Web Tokens.
type JWTIssuer struct {
	key      []byte
	duration time.Duration
	now      func() time.Time
}

// NewJWTIssuer creates an issuer from a 32-byte HMAC key.
func NewJWTIssuer(key []byte, duration time.Duration) (*JWTIssuer, error) {
	if err := checkKey(key, duration); err != nil {
		return nil, err
	}
	return &JWTIssuer{key: append([]byte(nil), key...), duration: duration, now: time.Now}, nil
}

// SignToken creates a signed JWT for the given user.
func (j *JWTIssuer) SignToken(username, email, userID string) (string, error) {
	now := j.now()
	claims := jwtClaims{
		Data: jwtData{Username: username, Email: email, ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.duration)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and registered claims of a JWT.
func (j *JWTIssuer) VerifyToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(*jwt.Token) (any, error) {
		return j.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if parsed.Data.ID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	claims := &Claims{
		Identity: Identity{
			UserID:   parsed.Data.ID,
			Username: parsed.Data.Username,
			Email:    parsed.Data.Email,
		},
		ExpiresAt: parsed.ExpiresAt.Time,
		TokenID:   parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}

// TokenDuration returns the configured token lifetime.
func (j *JWTIssuer) TokenDuration() time.Duration {
	return j.duration
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}
