package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultFileName is the document looked up by FindDocument.
const DefaultFileName = "notes.fnx"

// ErrDocumentNotFound is returned by FindDocument when no directory on the
// way up holds the file.
var ErrDocumentNotFound = errors.New("document not found")

// FindDocument looks upwards from startDir for a file called name
// (DefaultFileName when empty) and returns its absolute path.
func FindDocument(startDir, name string) (string, error) {
	if name == "" {
		name = DefaultFileName
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrDocumentNotFound
}
