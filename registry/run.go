package registry

import (
	"fmt"

	"github.com/joshuapare/regwalk/hive"
	"github.com/joshuapare/regwalk/tree"
)

// Run walks the hive held by the "data" stream attribute of the node fileID
// into t, below fileID. On success the file node is marked with an empty
// "registry" attribute.
//
// The stream is opened twice: the first reader belongs to the decoded hive
// and serves the root lookup, the second is consumed by the walk.
func Run(t *tree.Tree, fileID tree.NodeID, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	file, ok := t.Lookup(fileID)
	if !ok {
		return nil, &Error{Kind: ErrKindArgumentMissing, Msg: fmt.Sprintf("file node %s not found", fileID)}
	}
	data, ok := file.Attribute(AttrData)
	if !ok {
		return nil, &Error{Kind: ErrKindValueMissing, Msg: fmt.Sprintf("node %q has no %q attribute", file.Name(), AttrData)}
	}
	b, ok := data.AsStream()
	if !ok || b == nil {
		return nil, &Error{Kind: ErrKindValueTypeMismatch, Msg: fmt.Sprintf("node %q %q attribute is %s, not a stream", file.Name(), AttrData, data.Kind())}
	}

	src, err := b.Open()
	if err != nil {
		return nil, &Error{Kind: ErrKindStream, Msg: "open data stream", Err: err}
	}
	defer src.Close()

	h, err := hive.Decode(src, opts.Hive)
	if err != nil {
		return nil, &Error{Kind: ErrKindHiveFormat, Msg: "decode hive", Err: err}
	}
	root, err := h.Root()
	if err != nil {
		return nil, &Error{Kind: ErrKindHiveFormat, Msg: "locate root key", Err: err}
	}

	walkSrc, err := b.Open()
	if err != nil {
		return nil, &Error{Kind: ErrKindStream, Msg: "reopen data stream", Err: err}
	}
	defer walkSrc.Close()

	// SetAttribute only fails for an unknown id, the same condition as the
	// lookup above.
	if err := t.SetAttribute(fileID, GroupName, tree.None(), ""); err != nil {
		return nil, &Error{Kind: ErrKindArgumentMissing, Msg: fmt.Sprintf("file node %s not found", fileID), Err: err}
	}

	info := h.Info()
	opts.Logger.Info("walking hive",
		"file", file.Name(),
		"root", root.Name(),
		"version", fmt.Sprintf("%d.%d", info.MajorVersion, info.MinorVersion),
		"dirty", info.Dirty,
		"checksum_ok", info.ChecksumValid)

	res := Walk(FromHive(root), t, walkSrc, fileID, opts)

	opts.Logger.Info("hive walked",
		"file", file.Name(),
		"keys", res.Keys,
		"values", res.Values,
		"issues", len(res.Issues),
		"truncated", res.Truncated())
	return res, nil
}
