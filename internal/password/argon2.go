package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLength = 16
	argonKeyLength  = 32
)

// Upper bounds on parameters read back from stored hashes. IDKey runs for
// time passes over memKiB of memory, so unbounded values hang or abort Verify.
const (
	maxArgonMemKiB  = 1 << 21
	maxArgonTime    = 16
	maxArgonPar     = 64
	minArgonSaltLen = 8
	maxArgonSaltLen = 64
	minArgonKeyLen  = 16
	maxArgonKeyLen  = 128
)

func (a argon2id) withinLimits() bool {
	return a.memKiB > 0 && a.memKiB <= maxArgonMemKiB &&
		a.time > 0 && a.time <= maxArgonTime &&
		a.par > 0 && a.par <= maxArgonPar
}

type argon2id struct {
	time   uint32
	memKiB uint32
	par    uint8
}

// hash returns $argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<key>.
func (a argon2id) hash(plaintext string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.time, a.memKiB, a.par, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memKiB, a.time, a.par,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(plaintext, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var a argon2id
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &a.memKiB, &a.time, &a.par); err != nil {
		return false
	}
	if !a.withinLimits() {
		return false
	}

	if len(parts[4]) > base64.RawStdEncoding.EncodedLen(maxArgonSaltLen) ||
		len(parts[5]) > base64.RawStdEncoding.EncodedLen(maxArgonKeyLen) {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minArgonSaltLen {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minArgonKeyLen {
		return false
	}

	computed := argon2.IDKey([]byte(plaintext), salt, a.time, a.memKiB, a.par, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1
}
