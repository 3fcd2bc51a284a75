// Package tree holds the generic attribute tree that walkers populate: named
// nodes carrying ordered attribute groups, addressed by opaque ids.
package tree

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrParentNotFound is returned by Insert when the parent id is not resident.
	ErrParentNotFound = errors.New("tree: parent not found")
	// ErrNodeNotFound is returned when an id does not name a node.
	ErrNodeNotFound = errors.New("tree: node not found")
	// ErrAlreadyInserted is returned when a node is inserted twice.
	ErrAlreadyInserted = errors.New("tree: node already inserted")
)

// NodeID identifies a node within a tree.
type NodeID uuid.UUID

// NilID is the zero id; it never names a node.
var NilID NodeID

func (id NodeID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether id is the zero id.
func (id NodeID) IsNil() bool { return id == NilID }

// ParseID parses the textual form produced by String.
func ParseID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("tree: parse id: %w", err)
	}
	return NodeID(u), nil
}

// Node is a named vertex with attributes.
type Node struct {
	id    NodeID
	name  string
	attrs *Attributes
}

// NewNode returns a detached node.
func NewNode(name string) *Node {
	return &Node{name: name, attrs: NewAttributes()}
}

// ID returns the id assigned on insertion, or NilID.
func (n *Node) ID() NodeID { return n.id }

// Name returns the display name.
func (n *Node) Name() string { return n.name }

// AddAttribute sets an attribute and returns n for chaining.
func (n *Node) AddAttribute(name string, v Value, description string) *Node {
	n.attrs.Describe(name, v, description)
	return n
}

// Attribute returns the named attribute.
func (n *Node) Attribute(name string) (Value, bool) { return n.attrs.Get(name) }

// Attributes returns the node's attribute group.
func (n *Node) Attributes() *Attributes { return n.attrs }

type entry struct {
	node     *Node
	parent   NodeID
	children []NodeID
}

// Tree is a rooted tree of nodes. It is safe for concurrent readers; writers
// are serialized.
type Tree struct {
	mu    sync.RWMutex
	root  NodeID
	nodes map[NodeID]*entry
}

// New returns a tree holding a single node named "root".
func New() *Tree {
	root := NewNode("root")
	root.id = NodeID(uuid.New())
	return &Tree{
		root:  root.id,
		nodes: map[NodeID]*entry{root.id: {node: root}},
	}
}

// Root returns the root node id.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Insert attaches n as the last child of parent and returns its new id.
func (t *Tree) Insert(parent NodeID, n *Node) (NodeID, error) {
	if n == nil {
		return NilID, errors.New("tree: insert nil node")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !n.id.IsNil() {
		return NilID, fmt.Errorf("insert %q: %w", n.name, ErrAlreadyInserted)
	}
	p, ok := t.nodes[parent]
	if !ok {
		return NilID, fmt.Errorf("insert %q under %s: %w", n.name, parent, ErrParentNotFound)
	}
	n.id = NodeID(uuid.New())
	t.nodes[n.id] = &entry{node: n, parent: parent}
	p.children = append(p.children, n.id)
	return n.id, nil
}

// Lookup returns the node named by id.
func (t *Tree) Lookup(id NodeID) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Children returns a copy of id's child ids in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.nodes[id]
	if !ok || len(e.children) == 0 {
		return nil
	}
	return append([]NodeID(nil), e.children...)
}

// Parent returns id's parent. The root has no parent.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.nodes[id]
	if !ok || id == t.root {
		return NilID, false
	}
	return e.parent, true
}

// SetAttribute sets an attribute on a resident node under the write lock.
func (t *Tree) SetAttribute(id NodeID, name string, v Value, description string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("set %q on %s: %w", name, id, ErrNodeNotFound)
	}
	e.node.AddAttribute(name, v, description)
	return nil
}

// WalkFunc is called for each node visited by Walk. Returning SkipChildren
// prunes the node's subtree; any other error stops the walk.
type WalkFunc func(id NodeID, n *Node, depth int) error

// SkipChildren is returned by a WalkFunc to skip a node's descendants.
var SkipChildren = errors.New("tree: skip children")

// Walk visits the subtree rooted at id in pre-order.
func (t *Tree) Walk(id NodeID, fn WalkFunc) error {
	type frame struct {
		id    NodeID
		depth int
	}
	if _, ok := t.Lookup(id); !ok {
		return fmt.Errorf("walk %s: %w", id, ErrNodeNotFound)
	}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n, ok := t.Lookup(f.id)
		if !ok {
			continue
		}
		err := fn(f.id, n, f.depth)
		if errors.Is(err, SkipChildren) {
			continue
		}
		if err != nil {
			return err
		}
		children := t.Children(f.id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], depth: f.depth + 1})
		}
	}
	return nil
}
