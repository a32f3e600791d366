package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argon2idParams tunes password hashing.
type argon2idParams struct {
	time       uint32
	memory     uint32
	threads    uint8
	keyLength  uint32
	saltLength uint32
}

var defaultParams = argon2idParams{
	time:       1,
	memory:     64 * 1024,
	threads:    4,
	keyLength:  32,
	saltLength: 16,
}

// HashPassword hashes a password with Argon2id. The encoded form embeds
// the parameters and salt so verification survives parameter changes.
func HashPassword(password string) (string, error) {
	params := defaultParams
	salt := make([]byte, int(params.saltLength))
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, params.keyLength)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.time, params.memory, params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword compares a plain password against an encoded hash in
// constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false, fmt.Errorf("invalid hash format")
	}

	timeValue, err := parseUint32(parts[1])
	if err != nil {
		return false, fmt.Errorf("invalid time parameter: %w", err)
	}
	memoryValue, err := parseUint32(parts[2])
	if err != nil {
		return false, fmt.Errorf("invalid memory parameter: %w", err)
	}
	threadsValue, err := parseUint32(parts[3])
	if err != nil || threadsValue == 0 || threadsValue > 255 {
		return false, fmt.Errorf("invalid threads parameter")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, timeValue, memoryValue, uint8(threadsValue), uint32(len(hash)))
	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}

func parseUint32(value string) (uint32, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(parsed), nil
}
