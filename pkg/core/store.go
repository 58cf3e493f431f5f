package core

import (
	"context"
	"fmt"
)

// Store defines the contract for persisting whole documents.
// Adhering to this interface keeps the notebook independent of where the
// bytes live (local file, temporary copy, test double).
type Store interface {
	// Load reads and decodes the document at path. password is only
	// consulted for protected documents.
	Load(ctx context.Context, path, password string) (*Document, error)

	// Save encodes doc and replaces the file at path atomically.
	Save(ctx context.Context, path string, doc *Document) error

	// Exists reports whether a document file is present at path.
	Exists(path string) bool
}

// Watchable is implemented by stores that can report external changes to
// a document file.
type Watchable interface {
	Watch(ctx context.Context, path string) (<-chan Event, error)
}

// EventType represents the kind of external change.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a document file made outside this process.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}
