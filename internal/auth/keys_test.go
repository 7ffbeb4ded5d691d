package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("deadbeef"), 0o600))
	_, err := LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "invalid auth key length")

	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte(strings.Repeat("zz", 32)), 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "not valid hex")
}

func TestParseKeyHex(t *testing.T) {
	key, err := ParseKeyHex(strings.Repeat("0f", 32))
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)
	assert.Equal(t, byte(0x0f), key[0])
}
