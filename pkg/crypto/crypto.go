// Package crypto implements the optional password protection of documents:
// a salted verifier for checking passwords, and an authenticated encryption
// envelope around the serialized document.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength        = 16 // 128-bit salt
	KeyLength         = 32 // AES-256
	NonceLength       = 12 // GCM nonce
	VerifierLength    = 32 // SHA-256
	DefaultIterations = 310000

	// MaxIterations bounds the work a crafted header can demand.
	MaxIterations = 10_000_000

	envelopeVersion = 1
)

// Magic prefixes every encrypted document.
var Magic = []byte("PLUMECRYPT")

// headerLength is magic + version + iterations + salt + verifier + nonce.
var headerLength = len(Magic) + 1 + 4 + SaltLength + VerifierLength + NonceLength

var (
	// ErrWrongPassword indicates that the password does not match the
	// verifier stored with the data. It is reported before any decryption.
	ErrWrongPassword = errors.New("wrong password")

	// ErrCorrupt indicates a truncated, tampered or otherwise unreadable
	// envelope (the password itself was accepted).
	ErrCorrupt = errors.New("corrupt encrypted data")
)

// GenerateRandomBytes generates cryptographically secure random bytes.
func GenerateRandomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// Cipher encrypts and decrypts document envelopes.
// The zero value uses DefaultIterations.
type Cipher struct {
	Iterations int
}

func (c Cipher) iterations() int {
	if c.Iterations <= 0 {
		return DefaultIterations
	}
	return c.Iterations
}

// Encrypt encrypts plain with DefaultIterations.
func Encrypt(plain []byte, password string) ([]byte, error) {
	return Cipher{}.Encrypt(plain, password)
}

// Decrypt decrypts an envelope produced by Encrypt.
func Decrypt(data []byte, password string) ([]byte, error) {
	return Cipher{}.Decrypt(data, password)
}

// IsEncrypted reports whether data starts with the envelope magic.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Encrypt seals plain under a key derived from password and a fresh salt.
//
// Layout: magic | version | iterations (uint32 BE) | salt | verifier | nonce | ciphertext.
// The whole header is authenticated as GCM additional data.
func (c Cipher) Encrypt(plain []byte, password string) ([]byte, error) {
	iter := c.iterations()
	if iter > MaxIterations {
		return nil, fmt.Errorf("iteration count %d exceeds maximum %d", iter, MaxIterations)
	}

	salt, err := GenerateRandomBytes(SaltLength)
	if err != nil {
		return nil, err
	}
	nonce, err := GenerateRandomBytes(NonceLength)
	if err != nil {
		return nil, err
	}

	key, verifier := deriveKeys(password, salt, iter)
	defer wipe(key)

	header := make([]byte, 0, headerLength)
	header = append(header, Magic...)
	header = append(header, envelopeVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(iter))
	header = append(header, salt...)
	header = append(header, verifier...)
	header = append(header, nonce...)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(header, nonce, plain, header), nil
}

// Decrypt opens an envelope. The password is checked against the stored
// verifier first, so a wrong password yields ErrWrongPassword and never
// ErrCorrupt.
func (c Cipher) Decrypt(data []byte, password string) ([]byte, error) {
	if !IsEncrypted(data) {
		return nil, fmt.Errorf("%w: missing envelope header", ErrCorrupt)
	}
	if len(data) < headerLength {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}

	p := len(Magic)
	if v := data[p]; v != envelopeVersion {
		return nil, fmt.Errorf("%w: unknown envelope version %d", ErrCorrupt, v)
	}
	p++
	iter := int(binary.BigEndian.Uint32(data[p : p+4]))
	p += 4
	if iter < 1 || iter > MaxIterations {
		return nil, fmt.Errorf("%w: iteration count %d out of range", ErrCorrupt, iter)
	}
	salt := data[p : p+SaltLength]
	p += SaltLength
	stored := data[p : p+VerifierLength]
	p += VerifierLength
	nonce := data[p : p+NonceLength]
	p += NonceLength

	key, verifier := deriveKeys(password, salt, iter)
	defer wipe(key)

	if subtle.ConstantTimeCompare(stored, verifier) != 1 {
		return nil, ErrWrongPassword
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, data[p:], data[:p])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plain, nil
}

// deriveKeys stretches password into 64 bytes. The first half is the AES
// key; the verifier is a hash of the second half, so it reveals nothing
// about the key.
func deriveKeys(password string, salt []byte, iter int) (key, verifier []byte) {
	master := pbkdf2.Key([]byte(password), salt, iter, 2*KeyLength, sha256.New)
	key = master[:KeyLength]
	sum := sha256.Sum256(master[KeyLength:])
	wipe(master[KeyLength:])
	return key, sum[:]
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
