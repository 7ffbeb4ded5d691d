package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Upper bound on accepted password size; hashing cost grows with input.
const maxPasswordLength = 1024

const dummyPassword = "readlist-timing-equalizer"

var b64 = base64.RawStdEncoding

// argonParams are the cost settings recorded in every stored hash.
type argonParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
	saltLen int
	keyLen  uint32
}

// passwordParams is what new accounts are hashed with. Stored hashes carry
// their own parameters, so raising these never locks out existing users.
var passwordParams = argonParams{
	memory:  64 * 1024,
	time:    3,
	threads: 4,
	saltLen: 16,
	keyLen:  32,
}

// phcHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phcHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func (h phcHash) derive(password string) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.params.time, h.params.memory, h.params.threads, h.params.keyLen)
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.memory, h.params.time, h.params.threads,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

// HashPassword returns the PHC-formatted Argon2id hash of password.
func HashPassword(password string) (string, error) {
	switch {
	case password == "":
		return "", errors.New("password cannot be empty")
	case len(password) > maxPasswordLength:
		return "", errors.New("password exceeds maximum length")
	}

	h := phcHash{params: passwordParams, salt: make([]byte, passwordParams.saltLen)}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	h.key = h.derive(password)
	return h.String(), nil
}

// dummyHash is verified against when no account exists so the response time
// of a failed login does not reveal whether the email is registered.
var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword(dummyPassword)
	if err != nil {
		return ""
	}
	return h
})

// DummyVerify performs a full-cost verification against a throwaway hash.
func DummyVerify(password string) {
	_, _ = VerifyPassword(dummyHash(), password)
}

// IsBcryptHash reports whether encodedHash was produced by bcrypt.
// Accounts imported from older deployments still carry these.
func IsBcryptHash(encodedHash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encodedHash, prefix) {
			return true
		}
	}
	return false
}

// VerifyPassword verifies a password against an Argon2id or bcrypt encoded hash.
// A malformed stored hash is a mismatch, not an error.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	if IsBcryptHash(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil, nil
	}

	stored, err := parsePHC(encodedHash)
	if err != nil {
		//nolint:nilerr // see doc comment
		return false, nil
	}
	return subtle.ConstantTimeCompare(stored.key, stored.derive(password)) == 1, nil
}

func parsePHC(s string) (phcHash, error) {
	var h phcHash

	fields := strings.Split(strings.TrimPrefix(s, "$"), "$")
	if len(fields) != 5 {
		return h, errors.New("expected 5 hash fields")
	}
	alg, version, costs, salt, key := fields[0], fields[1], fields[2], fields[3], fields[4]

	if alg != "argon2id" {
		return h, fmt.Errorf("unsupported algorithm %q", alg)
	}
	if version != "v="+strconv.Itoa(argon2.Version) {
		return h, fmt.Errorf("unsupported version %q", version)
	}

	for kv := range strings.SplitSeq(costs, ",") {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return h, fmt.Errorf("malformed cost %q", kv)
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return h, fmt.Errorf("memory cost: %w", err)
			}
			h.params.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return h, fmt.Errorf("time cost: %w", err)
			}
			h.params.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil {
				return h, fmt.Errorf("parallelism: %w", err)
			}
			h.params.threads = uint8(v)
		default:
			return h, fmt.Errorf("unknown cost %q", name)
		}
	}
	if h.params.memory == 0 || h.params.time == 0 || h.params.threads == 0 {
		return h, errors.New("missing cost parameter")
	}

	var err error
	if h.salt, err = b64.DecodeString(salt); err != nil {
		return h, fmt.Errorf("salt: %w", err)
	}
	if h.key, err = b64.DecodeString(key); err != nil {
		return h, fmt.Errorf("key: %w", err)
	}
	if len(h.key) == 0 {
		return h, errors.New("empty key")
	}
	h.params.saltLen = len(h.salt)
	h.params.keyLen = uint32(len(h.key)) //nolint:gosec // decoded key is short
	return h, nil
}
