// Package auth signs and verifies session tokens, hashes passwords, and
// carries the per-request Viewer identity.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// KeyLength is the size of the symmetric token key (PASETO v4 and HS256).
	KeyLength    = 32
	keyHexLength = KeyLength * 2
	keyFileName  = "auth.key"
)

// LoadOrGenerateKey returns the token signing key stored in <dataPath>/auth.key.
// A new random key is generated and persisted (hex, 0600) when the file is absent.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- key path is derived from the configured data directory
	keyBytes, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		return ParseKeyHex(strings.TrimSpace(string(keyBytes)))
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, nil
}

// ParseKeyHex decodes a 64-character hex key.
func ParseKeyHex(keyHex string) ([]byte, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	return key, nil
}
