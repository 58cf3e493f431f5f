package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/plume/pkg/codec"
	"github.com/aretw0/plume/pkg/core"
	"github.com/aretw0/plume/pkg/crypto"
)

// DefaultFileMode is the permission of newly created document files.
const DefaultFileMode os.FileMode = 0600

// Store implements core.Store on the local filesystem. Documents are
// written atomically; protected documents are wrapped in an encrypted
// envelope.
type Store struct {
	config Config

	mu       sync.RWMutex
	written  map[string]time.Time // path -> mod time of our last write
	writing  map[string]bool      // saves in flight
	lastLoad *time.Time
	lastSave *time.Time
	saves    int
	watchers int
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Logger       *slog.Logger
	Codec        codec.Codec // defaults to codec.NewXMLCodec()
	FileMode     os.FileMode // for new files, defaults to DefaultFileMode
	ErrorHandler func(error) // receives background errors (watcher)
}

// NewStore creates a filesystem store.
func NewStore(config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Codec == nil {
		config.Codec = codec.NewXMLCodec()
	}
	if config.FileMode == 0 {
		config.FileMode = DefaultFileMode
	}
	return &Store{
		config:  config,
		written: make(map[string]time.Time),
		writing: make(map[string]bool),
	}
}

var _ core.Store = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)

// Load reads the document at path. For protected files password must be
// the document password: an empty one yields core.ErrPasswordRequired and
// a wrong one crypto.ErrWrongPassword. On success the document is unlocked
// so that the next save is encrypted with the same password.
func (s *Store) Load(ctx context.Context, path, password string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrIO, path, err)
	}

	encrypted := crypto.IsEncrypted(data)
	if encrypted {
		if password == "" {
			return nil, fmt.Errorf("%s: %w", path, core.ErrPasswordRequired)
		}
		plain, err := crypto.Decrypt(data, password)
		switch {
		case errors.Is(err, crypto.ErrWrongPassword):
			return nil, fmt.Errorf("%s: %w", path, err)
		case err != nil:
			return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedDocument, path, err)
		}
		data = plain
	}

	doc, err := s.config.Codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if encrypted {
		if doc.Encrypted() {
			if err := doc.Unlock(password); err != nil {
				// the envelope accepted the password, the verifier did not
				return nil, fmt.Errorf("%w: %s: verifier does not match envelope", core.ErrMalformedDocument, path)
			}
		} else {
			if err := doc.SetPassword(password, password); err != nil {
				return nil, err
			}
			doc.MarkSaved()
		}
	}

	now := time.Now()
	s.mu.Lock()
	s.lastLoad = &now
	s.mu.Unlock()

	s.config.Logger.Debug("document loaded", "path", path, "encrypted", encrypted, "nodes", doc.Len())
	return doc, nil
}

// Save encodes doc, encrypts it when it is protected, and replaces path
// atomically. The document is marked saved on success only.
func (s *Store) Save(ctx context.Context, path string, doc *core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.config.Codec.Encode(&buf, doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	data := buf.Bytes()

	if doc.Encrypted() {
		password := doc.Password()
		if password == "" {
			return fmt.Errorf("cannot save %s: %w", path, core.ErrPasswordRequired)
		}
		var err error
		data, err = crypto.Cipher{Iterations: doc.KDFIterations}.Encrypt(data, password)
		if err != nil {
			return fmt.Errorf("failed to encrypt document: %w", err)
		}
	}

	key := filepath.Clean(path)
	s.mu.Lock()
	s.writing[key] = true
	s.mu.Unlock()

	err := writeFileAtomic(path, data, s.config.FileMode)

	now := time.Now()
	s.mu.Lock()
	delete(s.writing, key)
	if err == nil {
		s.lastSave = &now
		s.saves++
		if info, statErr := os.Stat(path); statErr == nil {
			s.written[key] = info.ModTime()
		}
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrIO, err)
	}
	doc.MarkSaved()

	s.config.Logger.Debug("document saved", "path", path, "encrypted", doc.Encrypted(), "bytes", len(data))
	return nil
}

// Exists reports whether a regular file is present at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ownWrite reports whether the file at path is still the one we last
// wrote, or is being written by us right now.
func (s *Store) ownWrite(path string, modTime time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := filepath.Clean(path)
	if s.writing[key] {
		return true
	}
	t, ok := s.written[key]
	return ok && t.Equal(modTime)
}

func (s *Store) watcherStarted(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers += delta
}
