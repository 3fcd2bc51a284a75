package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/regwalk/tree"
)

// frame is a key whose node and values are done and whose subkeys are being
// enumerated.
type frame struct {
	key   Key
	id    tree.NodeID
	path  string
	depth int

	off     uint32
	located bool
}

type walker struct {
	r    io.ReadSeeker
	opts Options
	b    builder
	res  *Result

	stopped bool                // node limit hit
	onPath  map[uint32]struct{} // offsets of the keys on the stack
}

// Walk inserts root and everything below it into t under parent, reading
// from r. r must not be used by anyone else until Walk returns.
//
// Keys are processed depth-first: a key's node is inserted, then its values,
// then each subkey's whole subtree in turn. Walk does not fail; anything it
// could not take into the tree is reported in the Result.
func Walk(root Key, t *tree.Tree, r io.ReadSeeker, parent tree.NodeID, opts Options) *Result {
	opts = opts.withDefaults()
	w := &walker{
		r:    r,
		opts: opts,
		b:    builder{t: t, maxNodes: opts.MaxNodes},
		res:    &Result{},
		onPath: make(map[uint32]struct{}),
	}
	w.run(root, parent)
	w.res.Keys, w.res.Values = w.b.keys, w.b.values
	return w.res
}

func (w *walker) run(root Key, parent tree.NodeID) {
	top, ok := w.enter(root, parent, root.Name(), 0)
	w.res.Root = top.id
	if !ok {
		return
	}

	stack := []frame{w.push(top)}
	pop := func() {
		if f := stack[len(stack)-1]; f.located {
			delete(w.onPath, f.off)
		}
		stack = stack[:len(stack)-1]
	}
	for len(stack) > 0 && !w.stopped {
		cur := stack[len(stack)-1]
		child, err := cur.key.NextKey(w.r)
		if errors.Is(err, io.EOF) {
			pop()
			continue
		}
		if err != nil {
			w.issue(IssueEnumeration, cur.path, "", err)
			pop()
			continue
		}

		path := cur.path + `\` + child.Name()
		depth := cur.depth + 1
		if depth > w.opts.MaxDepth {
			w.issue(IssueDepthLimit, path, "", fmt.Errorf("depth %d exceeds %d", depth, w.opts.MaxDepth))
			continue
		}
		if f, ok := w.enter(child, cur.id, path, depth); ok {
			stack = append(stack, w.push(f))
		}
	}
}

// push records f's offset as being on the current path.
func (w *walker) push(f frame) frame {
	if f.located {
		w.onPath[f.off] = struct{}{}
	}
	return f
}

// enter inserts k's node and its values. ok reports whether k's subkeys
// should be walked. A key that is already on the current path is refused;
// keys reached again through another parent are walked again.
func (w *walker) enter(k Key, parent tree.NodeID, path string, depth int) (f frame, ok bool) {
	loc, located := k.(locator)
	var off uint32
	if located {
		off = loc.Offset()
		if _, loop := w.onPath[off]; loop {
			w.issue(IssueCycle, path, "", fmt.Errorf("key at %#x is its own ancestor", off))
			return frame{}, false
		}
	}
	id, err := w.b.insertKey(parent, k)
	if err != nil {
		w.insertFailed(path, "", err)
		return frame{}, false
	}
	f = frame{key: k, id: id, path: path, depth: depth, off: off, located: located}
	return f, w.values(f)
}

// values runs the value phase for f. A failing value list ends the key.
func (w *walker) values(f frame) bool {
	for {
		v, err := f.key.NextValue(w.r)
		if errors.Is(err, io.EOF) {
			return true
		}
		if err != nil {
			w.issue(IssueEnumeration, f.path, "", err)
			return false
		}

		name := v.Name()
		if name == "" {
			name = DefaultValueName
		}
		if size := int64(v.Size()); size > w.opts.MaxValueSize {
			w.issue(IssueOversizedValue, f.path, name, fmt.Errorf("declares %d bytes, limit %d", size, w.opts.MaxValueSize))
			continue
		}

		if err := v.Read(w.r); err != nil {
			w.issue(IssueValueReadFailure, f.path, name, err)
		}
		data, err := decodeValue(v)
		if err != nil {
			w.issue(IssueValueDecodeFailure, f.path, name, err)
		}
		if _, err := w.b.insertValue(f.id, name, data); err != nil {
			w.insertFailed(f.path, name, err)
			if w.stopped {
				return false
			}
		}
	}
}

func (w *walker) insertFailed(path, value string, err error) {
	if errors.Is(err, errNodeLimit) {
		w.stopped = true
		w.issue(IssueNodeLimit, path, value, fmt.Errorf("%w: %d", errNodeLimit, w.opts.MaxNodes))
		return
	}
	w.issue(IssueInsertFailure, path, value, err)
}

func (w *walker) issue(kind IssueKind, path, value string, err error) {
	w.res.Issues = append(w.res.Issues, Issue{Kind: kind, Path: path, Value: value, Err: err})

	level := slog.LevelDebug
	if kind.truncates() {
		level = slog.LevelWarn
	}
	args := []any{"kind", kind.String(), "path", path}
	if value != "" {
		args = append(args, "value", value)
	}
	if err != nil {
		args = append(args, "error", err)
	}
	w.opts.Logger.Log(context.Background(), level, "registry walk issue", args...)
}
