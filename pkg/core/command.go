package core

import (
	"fmt"
	"slices"

	"github.com/aretw0/plume/pkg/richtext"
)

// Command is an invertible document mutation. Apply performs it and
// returns the command that undoes it; on error the document is unchanged.
type Command interface {
	Apply(d *Document) (Command, error)
}

// Subtree is a detached deep copy of a node and its descendants, in
// pre-order. The first node is the top of the subtree.
type Subtree struct {
	Nodes []*Node
}

// Top returns the id of the subtree's top node.
func (s Subtree) Top() NodeID {
	if len(s.Nodes) == 0 {
		return ""
	}
	return s.Nodes[0].ID
}

// Snapshot copies the subtree at id.
func (d *Document) Snapshot(id NodeID) (Subtree, error) {
	if _, err := d.node(id); err != nil {
		return Subtree{}, err
	}
	var s Subtree
	for n := range d.WalkFrom(id) {
		s.Nodes = append(s.Nodes, n.clone())
	}
	return s, nil
}

// Restore inserts a copy of s under parent at index. None of the subtree's
// ids may be in use.
func (d *Document) Restore(parent NodeID, index int, s Subtree) error {
	p, ok := d.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	if len(s.Nodes) == 0 {
		return errNilNode
	}
	for _, n := range s.Nodes {
		if _, exists := d.nodes[n.ID]; exists || n.ID == RootID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
	}
	for _, n := range s.Nodes {
		d.nodes[n.ID] = n.clone()
	}
	for _, n := range s.Nodes {
		for _, c := range n.children {
			d.nodes[c].parent = n.ID
		}
	}
	d.link(p, index, d.nodes[s.Top()])
	d.touch()
	return nil
}

// Insert places a subtree under Parent at Index. Its inverse is Delete.
type Insert struct {
	Parent  NodeID
	Index   int
	Subtree Subtree
}

// InsertNode returns the command inserting a single fresh node.
func InsertNode(parent NodeID, index int, n *Node) Insert {
	if n.ID == "" {
		n.ID = NewID()
	}
	n.Tags = NewTagSet(n.Tags...)
	n.Body = richtext.New(n.Body.Elements...)
	n.parent, n.children = "", nil
	return Insert{Parent: parent, Index: index, Subtree: Subtree{Nodes: []*Node{n}}}
}

// InsertSiblingOf returns the command that InsertSibling would perform.
func InsertSiblingOf(d *Document, anchor NodeID, pos Position, n *Node) (Insert, error) {
	a, ok := d.nodes[anchor]
	if !ok || anchor == RootID {
		return Insert{}, fmt.Errorf("%w: %s", ErrInvalidAnchor, anchor)
	}
	index := d.indexOf(a)
	if pos == After {
		index++
	}
	return InsertNode(a.parent, index, n), nil
}

func (c Insert) Apply(d *Document) (Command, error) {
	if len(c.Subtree.Nodes) == 1 {
		if err := c.Subtree.Nodes[0].Body.Validate(); err != nil {
			return nil, fmt.Errorf("invalid body: %w", err)
		}
	}
	if err := d.Restore(c.Parent, c.Index, c.Subtree); err != nil {
		return nil, err
	}
	return Delete{ID: c.Subtree.Top()}, nil
}

// Delete removes a subtree. Its inverse re-inserts a snapshot of it.
type Delete struct {
	ID NodeID
}

func (c Delete) Apply(d *Document) (Command, error) {
	if c.ID == RootID {
		return nil, ErrRootDeletion
	}
	s, err := d.Snapshot(c.ID)
	if err != nil {
		return nil, err
	}
	n := d.nodes[c.ID]
	parent, index := n.parent, d.indexOf(n)
	if err := d.DeleteSubtree(c.ID); err != nil {
		return nil, err
	}
	return Insert{Parent: parent, Index: index, Subtree: s}, nil
}

// Direction of a Move.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (dir Direction) String() string {
	switch dir {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(dir))
}

// Move is one of MoveUp, MoveDown, MoveLeft or MoveRight. Its inverse
// relocates the node to where it was.
type Move struct {
	ID  NodeID
	Dir Direction
}

func (c Move) Apply(d *Document) (Command, error) {
	n, err := d.node(c.ID)
	if err != nil {
		return nil, err
	}
	parent, index := n.parent, d.indexOf(n)

	switch c.Dir {
	case Up:
		err = d.MoveUp(c.ID)
	case Down:
		err = d.MoveDown(c.ID)
	case Left:
		err = d.MoveLeft(c.ID)
	case Right:
		err = d.MoveRight(c.ID)
	default:
		err = fmt.Errorf("unknown direction %v", c.Dir)
	}
	if err != nil {
		return nil, err
	}
	return Relocate{ID: c.ID, Parent: parent, Index: index}, nil
}

// Relocate puts a node at an explicit position.
type Relocate struct {
	ID     NodeID
	Parent NodeID
	Index  int
}

func (c Relocate) Apply(d *Document) (Command, error) {
	n, err := d.node(c.ID)
	if err != nil {
		return nil, err
	}
	parent, index := n.parent, d.indexOf(n)
	if err := d.Relocate(c.ID, c.Parent, c.Index); err != nil {
		return nil, err
	}
	return Relocate{ID: c.ID, Parent: parent, Index: index}, nil
}

// Rename sets a title; its inverse restores the previous one.
type Rename struct {
	ID    NodeID
	Title string
}

func (c Rename) Apply(d *Document) (Command, error) {
	n, err := d.node(c.ID)
	if err != nil {
		return nil, err
	}
	old := n.Title
	if err := d.Rename(c.ID, c.Title); err != nil {
		return nil, err
	}
	return Rename{ID: c.ID, Title: old}, nil
}

// SetTags replaces a tag set.
type SetTags struct {
	ID   NodeID
	Tags TagSet
}

func (c SetTags) Apply(d *Document) (Command, error) {
	n, err := d.node(c.ID)
	if err != nil {
		return nil, err
	}
	old := n.Tags
	if err := d.SetTags(c.ID, c.Tags); err != nil {
		return nil, err
	}
	return SetTags{ID: c.ID, Tags: old}, nil
}

// SetBody replaces a body.
type SetBody struct {
	ID   NodeID
	Body richtext.Text
}

func (c SetBody) Apply(d *Document) (Command, error) {
	n, err := d.node(c.ID)
	if err != nil {
		return nil, err
	}
	old := n.Body
	if err := d.SetBody(c.ID, c.Body); err != nil {
		return nil, err
	}
	return SetBody{ID: c.ID, Body: old}, nil
}

// Batch applies several commands as one step. If one fails, the ones
// already applied are rolled back.
type Batch []Command

func (b Batch) Apply(d *Document) (Command, error) {
	inverse := make(Batch, 0, len(b))
	for _, c := range b {
		inv, err := c.Apply(d)
		if err != nil {
			for i := len(inverse) - 1; i >= 0; i-- {
				// the inverse of a just-applied command cannot fail
				_, _ = inverse[i].Apply(d)
			}
			return nil, err
		}
		inverse = append(inverse, inv)
	}
	slices.Reverse(inverse)
	return inverse, nil
}

// DefaultHistoryLimit bounds the undo stack of NewHistory(0).
const DefaultHistoryLimit = 100

// History is an undo/redo stack of commands for a single document.
type History struct {
	undo  []Command
	redo  []Command
	limit int
}

// NewHistory returns an empty history keeping at most limit undo steps.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Do applies c and records its inverse. The redo stack is cleared.
func (h *History) Do(d *Document, c Command) error {
	inv, err := c.Apply(d)
	if err != nil {
		return err
	}
	h.push(inv)
	h.redo = nil
	return nil
}

// Record stores inverse as the undo step of an edit the caller already
// applied. The redo stack is cleared.
func (h *History) Record(inverse Command) {
	h.push(inverse)
	h.redo = nil
}

func (h *History) push(c Command) {
	h.undo = append(h.undo, c)
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
}

func (h *History) Undo(d *Document) error {
	if len(h.undo) == 0 {
		return ErrHistoryEmpty
	}
	c := h.undo[len(h.undo)-1]
	inv, err := c.Apply(d)
	if err != nil {
		return err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, inv)
	return nil
}

func (h *History) Redo(d *Document) error {
	if len(h.redo) == 0 {
		return ErrHistoryEmpty
	}
	c := h.redo[len(h.redo)-1]
	inv, err := c.Apply(d)
	if err != nil {
		return err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.push(inv)
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Clear drops all recorded steps.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}
