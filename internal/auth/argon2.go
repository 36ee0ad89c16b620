// Package auth provides password hashing, bearer tokens, password reset
// tokens and the request session context.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2Params are the cost parameters encoded in a stored hash.
type argon2Params struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
	keyLen  uint32
}

// currentParams follow the OWASP minimum for Argon2id.
var currentParams = argon2Params{
	memory:  64 * 1024,
	time:    3,
	threads: 4,
	keyLen:  32,
}

const (
	saltLen = 16
	// maxHashMemory caps the memory a stored hash may ask for, so a corrupted
	// row cannot make a login allocate gigabytes.
	maxHashMemory = 1024 * 1024
	maxHashTime   = 16
)

var (
	// ErrInvalidHash indicates the hash format is invalid.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion indicates the hash version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// decodedHash is a parsed PHC string.
type decodedHash struct {
	params argon2Params
	salt   []byte
	key    []byte
}

func (p argon2Params) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, p.threads)
}

// HashPassword creates an Argon2id hash of a user password in PHC format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt, currentParams)

	return fmt.Sprintf("$argon2id$v=%d$%s$%s$%s",
		argon2.Version,
		currentParams,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether password matches encodedHash.
// The comparison runs in constant time.
func VerifyPassword(password, encodedHash string) (bool, error) {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	computed := derive(password, h.salt, h.params)
	return subtle.ConstantTimeCompare(computed, h.key) == 1, nil
}

// NeedsRehash reports whether a stored hash was produced with parameters
// other than the current ones. Login rehashes such passwords.
func NeedsRehash(encodedHash string) bool {
	h, err := decodeHash(encodedHash)
	if err != nil {
		return true
	}
	p := h.params
	return p.memory != currentParams.memory || p.time != currentParams.time ||
		p.threads != currentParams.threads || p.keyLen != currentParams.keyLen
}

// QuickHash returns a SHA256 hash of the input for Redis keys.
// Reset tokens are stored under this hash so the plaintext never reaches Redis.
// This is NOT for password storage.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

func derive(password string, salt []byte, p argon2Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

func decodeHash(encoded string) (*decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return nil, ErrIncompatibleVersion
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrInvalidHash
	}
	if p.memory == 0 || p.memory > maxHashMemory || p.time == 0 || p.time > maxHashTime || p.threads == 0 {
		return nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidHash
	}
	p.keyLen = uint32(len(key))

	return &decodedHash{params: p, salt: salt, key: key}, nil
}
