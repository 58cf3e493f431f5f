package core

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/aretw0/plume/pkg/richtext"
)

// Position selects where InsertSibling places the new node.
type Position int

const (
	After Position = iota
	Before
)

var errNilNode = errors.New("nil node")

// node looks up a visible node; the root is reported as not found.
func (d *Document) node(id NodeID) (*Node, error) {
	n, ok := d.nodes[id]
	if !ok || id == RootID {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// indexOf returns the position of n among its siblings.
func (d *Document) indexOf(n *Node) int {
	return slices.Index(d.nodes[n.parent].children, n.ID)
}

// Index returns the position of id among its siblings.
func (d *Document) Index(id NodeID) (int, error) {
	n, err := d.node(id)
	if err != nil {
		return 0, err
	}
	return d.indexOf(n), nil
}

// Depth returns 0 for top-level nodes.
func (d *Document) Depth(id NodeID) (int, error) {
	n, err := d.node(id)
	if err != nil {
		return 0, err
	}
	depth := 0
	for n.parent != RootID {
		n = d.nodes[n.parent]
		depth++
	}
	return depth, nil
}

// Path returns the titles from the top-level ancestor down to id.
func (d *Document) Path(id NodeID) ([]string, error) {
	n, err := d.node(id)
	if err != nil {
		return nil, err
	}
	var path []string
	for ; n.ID != RootID; n = d.nodes[n.parent] {
		path = append(path, n.Title)
	}
	slices.Reverse(path)
	return path, nil
}

// isAncestor reports whether a is b or one of b's ancestors.
func (d *Document) isAncestor(a, b NodeID) bool {
	for id := b; id != ""; id = d.nodes[id].parent {
		if id == a {
			return true
		}
	}
	return false
}

// admit prepares a detached node for insertion.
func (d *Document) admit(n *Node) error {
	if n == nil {
		return errNilNode
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if _, exists := d.nodes[n.ID]; exists || n.ID == RootID {
		return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	if err := n.Validate(); err != nil {
		return err
	}
	n.children = nil
	n.Icon = n.Icon.orNil()
	n.Tags = NewTagSet(n.Tags...)
	n.Body = richtext.New(n.Body.Elements...)
	return nil
}

func (d *Document) link(parent *Node, index int, n *Node) {
	index = max(0, min(index, len(parent.children)))
	parent.children = slices.Insert(parent.children, index, n.ID)
	n.parent = parent.ID
}

func (d *Document) unlink(n *Node) {
	p := d.nodes[n.parent]
	p.children = slices.DeleteFunc(p.children, func(id NodeID) bool { return id == n.ID })
	n.parent = ""
}

// InsertSibling inserts n next to anchor, at the same depth.
func (d *Document) InsertSibling(anchor NodeID, pos Position, n *Node) error {
	a, ok := d.nodes[anchor]
	if !ok || anchor == RootID {
		return fmt.Errorf("%w: %s", ErrInvalidAnchor, anchor)
	}
	if err := d.admit(n); err != nil {
		return err
	}
	index := d.indexOf(a)
	if pos == After {
		index++
	}
	d.nodes[n.ID] = n
	d.link(d.nodes[a.parent], index, n)
	d.touch()
	return nil
}

// AppendChild adds n as the last child of parent. Use RootID to add a
// top-level node.
func (d *Document) AppendChild(parent NodeID, n *Node) error {
	p, ok := d.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	return d.InsertChild(parent, len(p.children), n)
}

// InsertChild adds n as a child of parent at index, clamped to the valid
// range.
func (d *Document) InsertChild(parent NodeID, index int, n *Node) error {
	p, ok := d.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	if err := d.admit(n); err != nil {
		return err
	}
	d.nodes[n.ID] = n
	d.link(p, index, n)
	d.touch()
	return nil
}

// DeleteSubtree removes id and all its descendants.
func (d *Document) DeleteSubtree(id NodeID) error {
	if id == RootID {
		return ErrRootDeletion
	}
	n, err := d.node(id)
	if err != nil {
		return err
	}
	var doomed []NodeID
	for c := range d.WalkFrom(id) {
		doomed = append(doomed, c.ID)
	}
	d.unlink(n)
	for _, c := range doomed {
		delete(d.nodes, c)
	}
	d.touch()
	return nil
}

// MoveUp swaps id with its previous sibling. It does nothing for a first
// child.
func (d *Document) MoveUp(id NodeID) error {
	return d.swap(id, -1)
}

// MoveDown swaps id with its next sibling. It does nothing for a last
// child.
func (d *Document) MoveDown(id NodeID) error {
	return d.swap(id, 1)
}

func (d *Document) swap(id NodeID, delta int) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	siblings := d.nodes[n.parent].children
	i := d.indexOf(n)
	j := i + delta
	if j < 0 || j >= len(siblings) {
		return nil
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	d.touch()
	return nil
}

// MoveLeft re-parents id to its grandparent, right after its former parent.
func (d *Document) MoveLeft(id NodeID) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if n.parent == RootID {
		return fmt.Errorf("%w: %s", ErrNoParent, id)
	}
	parent := d.nodes[n.parent]
	grand := d.nodes[parent.parent]
	d.unlink(n)
	d.link(grand, d.indexOf(parent)+1, n)
	d.touch()
	return nil
}

// MoveRight re-parents id under its previous sibling, as its last child.
func (d *Document) MoveRight(id NodeID) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	i := d.indexOf(n)
	if i == 0 {
		return fmt.Errorf("%w: %s", ErrNoPreviousSibling, id)
	}
	prev := d.nodes[d.nodes[n.parent].children[i-1]]
	d.unlink(n)
	d.link(prev, len(prev.children), n)
	d.touch()
	return nil
}

// Relocate moves id under parent at index (counted after id is removed
// from its current place). parent must not be id or one of its
// descendants.
func (d *Document) Relocate(id, parent NodeID, index int) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	p, ok := d.nodes[parent]
	if !ok || d.isAncestor(id, parent) {
		return fmt.Errorf("%w: %s", ErrInvalidAnchor, parent)
	}
	if n.parent == parent && d.indexOf(n) == index {
		return nil
	}
	d.unlink(n)
	d.link(p, index, n)
	d.touch()
	return nil
}

func (d *Document) Rename(id NodeID, title string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if err := richtext.CheckText(title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if n.Title != title {
		n.Title = title
		d.touch()
	}
	return nil
}

func (d *Document) SetTags(id NodeID, tags TagSet) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if err := validateTags(tags); err != nil {
		return err
	}
	tags = NewTagSet(tags...)
	if !n.Tags.Equal(tags) {
		n.Tags = tags
		d.touch()
	}
	return nil
}

func (d *Document) AddTag(id NodeID, tag string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	return d.SetTags(id, n.Tags.With(tag))
}

func (d *Document) RemoveTag(id NodeID, tag string) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	return d.SetTags(id, n.Tags.Without(tag))
}

// SetBody replaces the body of id. Invalid text is rejected.
func (d *Document) SetBody(id NodeID, body richtext.Text) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if err := body.Validate(); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	n.Body = richtext.New(body.Elements...)
	d.touch()
	return nil
}

func (d *Document) SetIcon(id NodeID, icon *Icon) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if icon != nil {
		if err := richtext.CheckText(icon.Name); err != nil {
			return fmt.Errorf("icon name: %w", err)
		}
	}
	icon = icon.orNil()
	n.Icon = icon
	d.touch()
	return nil
}

// SetFont sets the font override of id; nil restores the default.
func (d *Document) SetFont(id NodeID, font *Font) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if font != nil {
		if err := font.Validate(); err != nil {
			return err
		}
	}
	n.Font = font
	d.touch()
	return nil
}

func (d *Document) SetExpanded(id NodeID, expanded bool) error {
	n, err := d.node(id)
	if err != nil {
		return err
	}
	if n.Expanded != expanded {
		n.Expanded = expanded
		d.touch()
	}
	return nil
}

// Walk yields every node except the root in pre-order: parents before
// children, children in stored order. The sequence may be ranged over
// more than once.
func (d *Document) Walk() iter.Seq[*Node] {
	return d.WalkFrom(RootID)
}

// WalkFrom is Walk restricted to the subtree at id, id included (unless it
// is the root). An unknown id yields nothing.
func (d *Document) WalkFrom(id NodeID) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n, ok := d.nodes[id]
		if !ok {
			return
		}
		if id != RootID && !yield(n) {
			return
		}
		d.walkChildren(n, yield)
	}
}

func (d *Document) walkChildren(n *Node, yield func(*Node) bool) bool {
	for _, id := range n.children {
		c := d.nodes[id]
		if !yield(c) || !d.walkChildren(c, yield) {
			return false
		}
	}
	return true
}

// Order returns the ids of all nodes in pre-order.
func (d *Document) Order() []NodeID {
	ids := make([]NodeID, 0, d.Len())
	for n := range d.Walk() {
		ids = append(ids, n.ID)
	}
	return ids
}

// Next returns the node following id in pre-order.
func (d *Document) Next(id NodeID) (NodeID, bool) {
	n, ok := d.nodes[id]
	if !ok {
		return "", false
	}
	if len(n.children) > 0 {
		return n.children[0], true
	}
	for n.ID != RootID {
		siblings := d.nodes[n.parent].children
		if i := d.indexOf(n); i+1 < len(siblings) {
			return siblings[i+1], true
		}
		n = d.nodes[n.parent]
	}
	return "", false
}

// Prev returns the node preceding id in pre-order.
func (d *Document) Prev(id NodeID) (NodeID, bool) {
	n, ok := d.nodes[id]
	if !ok || id == RootID {
		return "", false
	}
	i := d.indexOf(n)
	if i == 0 {
		if n.parent == RootID {
			return "", false
		}
		return n.parent, true
	}
	// deepest last descendant of the previous sibling
	p := d.nodes[d.nodes[n.parent].children[i-1]]
	for len(p.children) > 0 {
		p = d.nodes[p.children[len(p.children)-1]]
	}
	return p.ID, true
}
