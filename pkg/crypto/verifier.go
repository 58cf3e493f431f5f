package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const verifierScheme = "pbkdf2-sha256"

// Verifier is a salted password hash. It lets a document check a password
// without holding the password or any encryption key.
type Verifier struct {
	Iterations int
	Salt       []byte
	Hash       []byte
}

// NewVerifier hashes password under a fresh salt.
// A non-positive iteration count selects DefaultIterations.
func NewVerifier(password string, iterations int) (*Verifier, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt, err := GenerateRandomBytes(SaltLength)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		Iterations: iterations,
		Salt:       salt,
		Hash:       pbkdf2.Key([]byte(password), salt, iterations, VerifierLength, sha256.New),
	}, nil
}

// Check reports whether password matches.
func (v *Verifier) Check(password string) bool {
	if v == nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), v.Salt, v.Iterations, len(v.Hash), sha256.New)
	return subtle.ConstantTimeCompare(got, v.Hash) == 1
}

// String encodes v as "pbkdf2-sha256$<iterations>$<salt>$<hash>".
func (v *Verifier) String() string {
	if v == nil {
		return ""
	}
	return strings.Join([]string{
		verifierScheme,
		strconv.Itoa(v.Iterations),
		base64.RawStdEncoding.EncodeToString(v.Salt),
		base64.RawStdEncoding.EncodeToString(v.Hash),
	}, "$")
}

// Equal reports whether two verifiers encode the same hash.
func (v *Verifier) Equal(o *Verifier) bool {
	return v.String() == o.String()
}

// ParseVerifier decodes the String form.
func ParseVerifier(s string) (*Verifier, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 4 || parts[0] != verifierScheme {
		return nil, fmt.Errorf("unrecognized verifier format")
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter < 1 || iter > MaxIterations {
		return nil, fmt.Errorf("invalid verifier iteration count %q", parts[1])
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid verifier salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(hash) == 0 {
		return nil, fmt.Errorf("invalid verifier hash")
	}
	return &Verifier{Iterations: iter, Salt: salt, Hash: hash}, nil
}
