package core

import "errors"

// Structural precondition violations. A failed operation leaves the
// document unchanged.
var (
	ErrInvalidAnchor     = errors.New("anchor is not in the tree")
	ErrRootDeletion      = errors.New("the root node cannot be deleted")
	ErrNoParent          = errors.New("node has no parent to move out of")
	ErrNoPreviousSibling = errors.New("node has no previous sibling")
	ErrNodeNotFound      = errors.New("node not found")
	ErrDuplicateID       = errors.New("node id already in use")
)

// Load and persistence failures.
var (
	ErrMalformedDocument  = errors.New("malformed document")
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrIO                 = errors.New("i/o failure")
)

// Password handling.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordRequired = errors.New("password required")
)

// ErrHistoryEmpty is returned by History.Undo and History.Redo when there
// is nothing to apply.
var ErrHistoryEmpty = errors.New("nothing to undo or redo")
