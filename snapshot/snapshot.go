// Package snapshot persists walked trees in a pebble database so a hive can
// be examined again without re-reading the evidence. Each saved subtree is
// addressed by a KSUID, which sorts by save time.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/joshuapare/regwalk/tree"
)

var (
	// ErrNotFound is returned when no snapshot has the requested id.
	ErrNotFound = errors.New("snapshot: not found")
	// ErrNoStore is returned by OpenExisting when dir holds no store.
	ErrNoStore = errors.New("snapshot: no store")
)

// Info describes a stored snapshot.
type Info struct {
	ID    ksuid.KSUID `json:"-"`
	Root  string      `json:"root"`
	Nodes int         `json:"nodes"`
	Saved time.Time   `json:"saved"`
}

type record struct {
	Name       string           `json:"name"`
	Parent     int              `json:"parent"` // index of the parent record; -1 for the saved root
	Attributes *tree.Attributes `json:"attributes"`
}

// Store is a snapshot database.
type Store struct {
	db *pebble.DB
	mu sync.Mutex // serializes index updates
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, &pebble.Options{})
}

// OpenExisting opens the store in dir without creating one.
func OpenExisting(dir string) (*Store, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("snapshot: open %s: %w", dir, ErrNoStore)
		}
		return nil, fmt.Errorf("snapshot: open %s: %w", dir, err)
	}
	return OpenWithOptions(dir, &pebble.Options{ErrorIfNotExists: true})
}

// OpenWithOptions opens a store with explicit pebble options.
func OpenWithOptions(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the subtree of t rooted at root and returns its id. Stream
// attributes are not stored.
func (s *Store) Save(t *tree.Tree, root tree.NodeID) (ksuid.KSUID, error) {
	id := ksuid.New()
	rootNode, ok := t.Lookup(root)
	if !ok {
		return ksuid.Nil, fmt.Errorf("snapshot: save %s: %w", root, tree.ErrNodeNotFound)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	index := make(map[tree.NodeID]int)
	err := t.Walk(root, func(nid tree.NodeID, n *tree.Node, _ int) error {
		parent := -1
		if nid != root {
			p, _ := t.Parent(nid)
			parent = index[p]
		}
		seq := len(index)
		index[nid] = seq
		raw, err := json.Marshal(record{Name: n.Name(), Parent: parent, Attributes: portable(n.Attributes())})
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name(), err)
		}
		return batch.Set(nodeKey(id, seq), raw, nil)
	})
	if err != nil {
		return ksuid.Nil, fmt.Errorf("snapshot: save: %w", err)
	}

	meta, err := json.Marshal(Info{Root: rootNode.Name(), Nodes: len(index), Saved: id.Time().UTC()})
	if err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Set(metaKey(id), meta, nil); err != nil {
		return ksuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.index()
	if err != nil {
		return ksuid.Nil, err
	}
	ids = append(ids, id.Bytes()...)
	if err := batch.Set(indexKey, ids, nil); err != nil {
		return ksuid.Nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("snapshot: commit: %w", err)
	}
	return id, nil
}

// Load rebuilds a saved subtree into a fresh tree, under its root node. It
// returns the id of the restored subtree root.
func (s *Store) Load(id ksuid.KSUID) (*tree.Tree, tree.NodeID, error) {
	info, err := s.Info(id)
	if err != nil {
		return nil, tree.NilID, err
	}
	t := tree.New()
	ids := make([]tree.NodeID, 0, info.Nodes)
	for seq := range info.Nodes {
		raw, err := s.get(nodeKey(id, seq))
		if err != nil {
			return nil, tree.NilID, fmt.Errorf("snapshot %s node %d: %w", id, seq, err)
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, tree.NilID, fmt.Errorf("snapshot %s node %d: %w", id, seq, err)
		}
		parent := t.Root()
		if rec.Parent >= 0 {
			if rec.Parent >= len(ids) {
				return nil, tree.NilID, fmt.Errorf("snapshot %s node %d: parent %d not yet loaded", id, seq, rec.Parent)
			}
			parent = ids[rec.Parent]
		}
		n := tree.NewNode(rec.Name)
		for _, name := range rec.Attributes.Keys() {
			v, _ := rec.Attributes.Get(name)
			n.AddAttribute(name, v, rec.Attributes.Description(name))
		}
		nid, err := t.Insert(parent, n)
		if err != nil {
			return nil, tree.NilID, err
		}
		ids = append(ids, nid)
	}
	if len(ids) == 0 {
		return nil, tree.NilID, fmt.Errorf("snapshot %s is empty", id)
	}
	return t, ids[0], nil
}

// Info returns the metadata of one snapshot.
func (s *Store) Info(id ksuid.KSUID) (Info, error) {
	raw, err := s.get(metaKey(id))
	if err != nil {
		return Info{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Info{}, fmt.Errorf("snapshot %s: %w", id, err)
	}
	info.ID = id
	return info, nil
}

// List returns all snapshots, oldest first.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	ids, err := s.index()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(ids)/idSize)
	for off := 0; off+idSize <= len(ids); off += idSize {
		id, err := ksuid.FromBytes(ids[off : off+idSize])
		if err != nil {
			return nil, fmt.Errorf("snapshot: index: %w", err)
		}
		info, err := s.Info(id)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *Store) index() ([]byte, error) {
	raw, err := s.get(indexKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return raw, err
}

// get copies the value out before releasing pebble's buffer.
func (s *Store) get(key []byte) ([]byte, error) {
	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), data...), nil
}

// idSize is the binary length of a KSUID.
const idSize = 20

var indexKey = []byte("index")

func metaKey(id ksuid.KSUID) []byte {
	return append([]byte("m/"), id.Bytes()...)
}

func nodeKey(id ksuid.KSUID, seq int) []byte {
	k := append([]byte("n/"), id.Bytes()...)
	return binary.BigEndian.AppendUint32(k, uint32(seq))
}

// portable copies a, dropping stream values at any depth.
func portable(a *tree.Attributes) *tree.Attributes {
	out := tree.NewAttributes()
	for _, name := range a.Keys() {
		v, _ := a.Get(name)
		switch v.Kind() {
		case tree.KindStream:
			continue
		case tree.KindAttributes:
			inner, _ := v.AsAttributes()
			v = tree.Group(portable(inner))
		}
		out.Describe(name, v, a.Description(name))
	}
	return out
}
