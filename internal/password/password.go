// Package password implements salted, cost-parameterised password hashing.
//
// Encoded hashes carry their scheme identifier, so a Hasher configured for one
// scheme still verifies hashes produced by the other.
package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/accounts-server/internal/model"
)

// Scheme names a hashing scheme.
type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

// Default parameters target roughly 100ms+ per verification on commodity hardware.
const (
	DefaultBcryptCost  = 12
	DefaultArgonTime   = 3
	DefaultArgonMemKiB = 64 * 1024
	DefaultArgonPar    = 2
)

// ErrTooLong is returned when the scheme cannot hash the input in full.
var ErrTooLong = errors.New("password is too long")

// Params configures a Hasher.
type Params struct {
	Scheme      Scheme
	BcryptCost  int
	ArgonTime   uint32
	ArgonMemKiB uint32
	ArgonPar    uint8
}

// DefaultParams returns production parameters for the bcrypt scheme.
func DefaultParams() Params {
	return Params{
		Scheme:      SchemeBcrypt,
		BcryptCost:  DefaultBcryptCost,
		ArgonTime:   DefaultArgonTime,
		ArgonMemKiB: DefaultArgonMemKiB,
		ArgonPar:    DefaultArgonPar,
	}
}

var _ model.PasswordHasher = (*Hasher)(nil)

// Hasher hashes new passwords with the configured scheme.
type Hasher struct {
	params Params
	argon  argon2id
}

// New validates params and creates a Hasher.
func New(params Params) (*Hasher, error) {
	switch params.Scheme {
	case SchemeBcrypt:
		if params.BcryptCost < bcrypt.MinCost || params.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", params.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case SchemeArgon2id:
		if params.ArgonTime == 0 || params.ArgonMemKiB == 0 || params.ArgonPar == 0 {
			return nil, fmt.Errorf("argon2id parameters must be positive")
		}
		limits := argon2id{time: params.ArgonTime, memKiB: params.ArgonMemKiB, par: params.ArgonPar}
		if !limits.withinLimits() {
			return nil, fmt.Errorf("argon2id parameters exceed m=%d, t=%d, p=%d", maxArgonMemKiB, maxArgonTime, maxArgonPar)
		}
	default:
		return nil, fmt.Errorf("unknown password scheme %q", params.Scheme)
	}

	return &Hasher{
		params: params,
		argon: argon2id{
			time:   params.ArgonTime,
			memKiB: params.ArgonMemKiB,
			par:    params.ArgonPar,
		},
	}, nil
}

// Hash returns a salted encoding of plaintext. Two calls over the same
// plaintext yield different encodings that both verify.
func (h *Hasher) Hash(plaintext string) (string, error) {
	switch h.params.Scheme {
	case SchemeArgon2id:
		return h.argon.hash(plaintext)
	default:
		encoded, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.params.BcryptCost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(encoded), nil
	}
}

// Verify reports whether encoded was produced from plaintext. Malformed
// encodings and unknown schemes verify as false.
func (h *Hasher) Verify(plaintext, encoded string) bool {
	switch schemeOf(encoded) {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
	case SchemeArgon2id:
		return verifyArgon2id(plaintext, encoded)
	default:
		return false
	}
}

func schemeOf(encoded string) Scheme {
	switch {
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return SchemeBcrypt
	case strings.HasPrefix(encoded, "$argon2id$"):
		return SchemeArgon2id
	default:
		return ""
	}
}
