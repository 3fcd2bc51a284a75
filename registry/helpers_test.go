package registry

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regwalk/hive"
	"github.com/joshuapare/regwalk/tree"
)

var errBoom = errors.New("boom")

// fakeKey is a scripted cursor. valueErrAt/keyErrAt make the n-th call to
// NextValue/NextKey fail; -1 never fails.
type fakeKey struct {
	name   string
	ts     time.Time
	values []*fakeValue
	keys   []*fakeKey

	valueErrAt, keyErrAt int
	nv, nk               int
	off                  uint32
}

var fakeOffsets atomic.Uint32

func fk(name string) *fakeKey {
	return &fakeKey{name: name, valueErrAt: -1, keyErrAt: -1, off: fakeOffsets.Add(8)}
}

func (k *fakeKey) val(vs ...*fakeValue) *fakeKey {
	k.values = append(k.values, vs...)
	return k
}

func (k *fakeKey) sub(ks ...*fakeKey) *fakeKey {
	k.keys = append(k.keys, ks...)
	return k
}

func (k *fakeKey) stamp(t time.Time) *fakeKey {
	k.ts = t
	return k
}

func (k *fakeKey) Name() string { return k.name }

func (k *fakeKey) LastWritten() (time.Time, bool) { return k.ts, !k.ts.IsZero() }

func (k *fakeKey) Offset() uint32 { return k.off }

func (k *fakeKey) NextValue(io.ReadSeeker) (Value, error) {
	if k.nv == k.valueErrAt {
		return nil, errBoom
	}
	if k.nv >= len(k.values) {
		return nil, io.EOF
	}
	v := k.values[k.nv]
	k.nv++
	return v, nil
}

func (k *fakeKey) NextKey(io.ReadSeeker) (Key, error) {
	if k.nk == k.keyErrAt {
		return nil, errBoom
	}
	if k.nk >= len(k.keys) {
		return nil, io.EOF
	}
	c := k.keys[k.nk]
	k.nk++
	return c, nil
}

type fakeValue struct {
	name      string
	size      uint32
	data      hive.Data
	readErr   error
	decodeErr error
	read      bool
}

func fv(name string, data hive.Data) *fakeValue {
	return &fakeValue{name: name, size: 4, data: data}
}

func (v *fakeValue) Name() string { return v.name }

func (v *fakeValue) Size() uint32 { return v.size }

func (v *fakeValue) Read(io.ReadSeeker) error {
	v.read = true
	return v.readErr
}

func (v *fakeValue) Decode() (hive.Data, error) {
	if !v.read {
		return nil, nil
	}
	return v.data, v.decodeErr
}

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Logger = discardLogger()
	return opts
}

func childNames(tr *tree.Tree, id tree.NodeID) []string {
	var out []string
	for _, c := range tr.Children(id) {
		n, _ := tr.Lookup(c)
		out = append(out, n.Name())
	}
	return out
}

func child(t *testing.T, tr *tree.Tree, id tree.NodeID, name string) tree.NodeID {
	t.Helper()
	for _, c := range tr.Children(id) {
		n, _ := tr.Lookup(c)
		if n.Name() == name {
			return c
		}
	}
	require.Failf(t, "missing child", "%q has no child %q", id, name)
	return tree.NilID
}

func group(t *testing.T, tr *tree.Tree, id tree.NodeID) (*tree.Attributes, bool) {
	t.Helper()
	n, ok := tr.Lookup(id)
	require.True(t, ok)
	v, ok := n.Attribute(GroupName)
	if !ok {
		return nil, false
	}
	g, ok := v.AsAttributes()
	require.True(t, ok, "registry attribute is a group")
	return g, true
}

func dataOf(t *testing.T, tr *tree.Tree, id tree.NodeID) tree.Value {
	t.Helper()
	g, ok := group(t, tr, id)
	require.True(t, ok)
	d, ok := g.Get(AttrData)
	require.True(t, ok)
	return d
}

// dump renders a subtree as indented lines without ids.
func dump(t *testing.T, tr *tree.Tree, id tree.NodeID) []string {
	t.Helper()
	var out []string
	err := tr.Walk(id, func(_ tree.NodeID, n *tree.Node, depth int) error {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Name())
		for _, k := range n.Attributes().Keys() {
			v, _ := n.Attribute(k)
			fmt.Fprintf(&b, " %s=%s", k, render(v))
		}
		out = append(out, b.String())
		return nil
	})
	require.NoError(t, err)
	return out
}

func render(v tree.Value) string {
	g, ok := v.AsAttributes()
	if !ok {
		return v.Kind().String() + ":" + v.String()
	}
	parts := make([]string, 0, g.Len())
	for _, k := range g.Keys() {
		inner, _ := g.Get(k)
		parts = append(parts, k+":"+render(inner))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
