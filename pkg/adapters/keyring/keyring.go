// Package keyring remembers document passwords in the operating system's
// credential store, keyed by the document's absolute path.
package keyring

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name entries are stored under.
const DefaultService = "plume"

// ErrNotFound is returned by Get when no password is stored for a document.
var ErrNotFound = errors.New("no password stored")

// Cache stores one password per document file.
type Cache struct {
	service string
}

func New(service string) *Cache {
	if service == "" {
		service = DefaultService
	}
	return &Cache{service: service}
}

func (c *Cache) key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// Get returns the password remembered for the document at path.
func (c *Cache) Get(path string) (string, error) {
	key, err := c.key(path)
	if err != nil {
		return "", err
	}
	pw, err := keyring.Get(c.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return pw, nil
}

// Set remembers password for the document at path.
func (c *Cache) Set(path, password string) error {
	key, err := c.key(path)
	if err != nil {
		return err
	}
	if err := keyring.Set(c.service, key, password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}

// Delete forgets the password for the document at path. Forgetting a
// password that was never stored is not an error.
func (c *Cache) Delete(path string) error {
	key, err := c.key(path)
	if err != nil {
		return err
	}
	if err := keyring.Delete(c.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// Available reports whether the system keyring can be used, by writing and
// removing a probe entry.
func (c *Cache) Available() bool {
	const probe = "plume-keyring-probe"
	if err := keyring.Set(c.service, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(c.service, probe)
	return true
}
