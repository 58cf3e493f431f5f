package notebook

import (
	"time"

	"github.com/aretw0/introspection"
)

// NotebookState exposes the session for observability.
type NotebookState struct {
	Path      string     `json:"path,omitempty"`
	Nodes     int        `json:"nodes"`
	TopLevel  int        `json:"top_level"`
	Modified  bool       `json:"modified"`
	Encrypted bool       `json:"encrypted"`
	CanUndo   bool       `json:"can_undo"`
	CanRedo   bool       `json:"can_redo"`
	Query     string     `json:"query,omitempty"`
	LastSave  *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (nb *Notebook) State() any {
	nb.mu.RLock()
	defer nb.mu.RUnlock()

	stats := nb.doc.Stats()
	return NotebookState{
		Path:      nb.path,
		Nodes:     stats.All,
		TopLevel:  stats.Main,
		Modified:  nb.doc.Modified(),
		Encrypted: nb.doc.Encrypted(),
		CanUndo:   nb.history.CanUndo(),
		CanRedo:   nb.history.CanRedo(),
		Query:     nb.engine.Query().Pattern,
		LastSave:  nb.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (nb *Notebook) ComponentType() string {
	return "notebook"
}

var _ introspection.Introspectable = (*Notebook)(nil)
var _ introspection.Component = (*Notebook)(nil)
