package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	// go test
	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolveDocumentPath returns where the document at userPath is actually
// kept. With forceTemp, paths outside the system temp directory are moved
// into a namespaced dev directory, keeping the file name.
func ResolveDocumentPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		return userPath
	}

	// a directory stands for the default document inside it
	clean := filepath.Clean(userPath)
	if base := filepath.Base(clean); base == "." || base == string(os.PathSeparator) {
		clean = filepath.Join(clean, DefaultFileName)
	}

	// Already inside the temp directory (t.TempDir() or explicit intent).
	if abs, err := filepath.Abs(clean); err == nil {
		rel, err := filepath.Rel(os.TempDir(), abs)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return abs
		}
	}
	return filepath.Join(os.TempDir(), "plume-dev", filepath.Base(clean))
}
