// Package secrets hashes and verifies passwords with Argon2id using the
// standard encoded representation, so hashes remain verifiable by any
// compliant implementation.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"

	dErrors "arcanalyse/pkg/domain-errors"
)

// Argon2id parameters. Conservative, modern defaults: 3 passes over 64 MiB
// with 2 lanes, 32-byte key, 16-byte salt.
const (
	timeCost    = 3
	memoryCost  = 64 * 1024
	parallelism = 2
	keyLength   = 32
	saltLength  = 16
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Hash returns the encoded Argon2id hash of password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "password cannot be empty")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("could not generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, parallelism, keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryCost, timeCost, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether password matches the encoded Argon2id hash.
// A malformed or unknown hash verifies as false, not as an error: stored
// hashes from other sources must never grant access by accident.
func Verify(encoded, password string) bool {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// GeneratePassword returns a random alphanumeric password of length n.
// Used for accounts that exist only as audit actors and never log in.
func GeneratePassword(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("could not generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decode(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("malformed version: %w", err)
	}
	if version != argon2.Version {
		return argonParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("malformed parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("malformed salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("malformed key: %w", err)
	}
	return p, salt, key, nil
}
