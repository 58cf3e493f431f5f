package core

import (
	"fmt"

	"github.com/aretw0/plume/pkg/crypto"
)

// Default fonts of a new document.
var (
	DefaultTextFont = Font{Family: "Monospace", Size: 9}
	DefaultNodeFont = Font{Family: "Sans", Size: 9}
)

// Document is a tree of nodes under a synthetic root, plus the
// document-wide settings that are persisted with it.
//
// A Document is not safe for concurrent use.
type Document struct {
	DefaultFont Font // body text
	NodeFont    Font // tree view

	// Verifier is present iff the document is password protected.
	Verifier *crypto.Verifier

	// KDFIterations overrides the key derivation cost used for new
	// verifiers and envelopes. Zero selects crypto.DefaultIterations.
	KDFIterations int

	nodes    map[NodeID]*Node
	password string
	modified bool
}

// NewDocument returns an empty, unmodified document.
func NewDocument() *Document {
	return &Document{
		DefaultFont: DefaultTextFont,
		NodeFont:    DefaultNodeFont,
		nodes: map[NodeID]*Node{
			RootID: {ID: RootID},
		},
	}
}

// Root returns the synthetic root.
func (d *Document) Root() *Node { return d.nodes[RootID] }

// Node returns the node with the given id.
func (d *Document) Node(id NodeID) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Len returns the number of nodes, not counting the root.
func (d *Document) Len() int { return len(d.nodes) - 1 }

// Modified reports whether the document changed since it was created,
// loaded or last saved.
func (d *Document) Modified() bool { return d.modified }

// MarkSaved clears the modified flag.
func (d *Document) MarkSaved() { d.modified = false }

func (d *Document) touch() { d.modified = true }

// Stats counts top-level nodes and all nodes.
type Stats struct {
	Main int
	All  int
}

func (d *Document) Stats() Stats {
	return Stats{Main: len(d.Root().children), All: d.Len()}
}

// Encrypted reports whether the document is password protected.
func (d *Document) Encrypted() bool { return d.Verifier != nil }

// Password returns the in-memory password used to encrypt the next save.
// It is empty when the document is not protected or not unlocked.
func (d *Document) Password() string { return d.password }

// SetPassword protects the document. Nothing is encrypted until the next
// save. If confirm differs from password the previous password, if any,
// is kept and ErrPasswordMismatch is returned.
func (d *Document) SetPassword(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if password == "" {
		return ErrPasswordRequired
	}
	v, err := crypto.NewVerifier(password, d.KDFIterations)
	if err != nil {
		return fmt.Errorf("failed to derive verifier: %w", err)
	}
	d.Verifier = v
	d.password = password
	d.touch()
	return nil
}

// RemovePassword clears the protection; later saves are plaintext.
func (d *Document) RemovePassword() {
	if d.Verifier == nil && d.password == "" {
		return
	}
	d.Verifier = nil
	d.password = ""
	d.touch()
}

// CheckPassword reports whether password matches the stored verifier.
func (d *Document) CheckPassword(password string) bool {
	return d.Verifier.Check(password)
}

// Unlock records password for later saves after checking it against the
// verifier. It does not mark the document modified.
func (d *Document) Unlock(password string) error {
	if d.Verifier == nil {
		return nil
	}
	if !d.Verifier.Check(password) {
		return crypto.ErrWrongPassword
	}
	d.password = password
	return nil
}

// Equal reports whether two documents have the same settings, verifier
// and tree. Node ids are part of the comparison.
func (d *Document) Equal(o *Document) bool {
	if d.DefaultFont != o.DefaultFont || d.NodeFont != o.NodeFont {
		return false
	}
	if !d.Verifier.Equal(o.Verifier) {
		return false
	}
	if len(d.nodes) != len(o.nodes) {
		return false
	}
	for id, n := range d.nodes {
		m, ok := o.nodes[id]
		if !ok || !n.equal(m) {
			return false
		}
	}
	return true
}
