package registry

import (
	"errors"

	"github.com/joshuapare/regwalk/tree"
)

// Attribute names written by the walker.
const (
	GroupName        = "registry"
	AttrLastWritten  = "last_written"
	AttrData         = "data"
	DefaultValueName = "default"
)

var errNodeLimit = errors.New("node limit reached")

// builder inserts key and value nodes and counts what it inserted.
type builder struct {
	t        *tree.Tree
	maxNodes int

	keys, values int
}

func (b *builder) full() bool { return b.keys+b.values >= b.maxNodes }

func (b *builder) insertKey(parent tree.NodeID, k Key) (tree.NodeID, error) {
	if b.full() {
		return tree.NilID, errNodeLimit
	}
	n := tree.NewNode(k.Name())
	if lastWritten, ok := k.LastWritten(); ok {
		n.AddAttribute(GroupName, tree.Group(tree.NewAttributes().Add(AttrLastWritten, tree.Time(lastWritten))), "")
	}
	id, err := b.t.Insert(parent, n)
	if err != nil {
		return tree.NilID, err
	}
	b.keys++
	return id, nil
}

func (b *builder) insertValue(parent tree.NodeID, name string, data tree.Value) (tree.NodeID, error) {
	if b.full() {
		return tree.NilID, errNodeLimit
	}
	n := tree.NewNode(name).
		AddAttribute(GroupName, tree.Group(tree.NewAttributes().Add(AttrData, data)), "")
	id, err := b.t.Insert(parent, n)
	if err != nil {
		return tree.NilID, err
	}
	b.values++
	return id, nil
}
