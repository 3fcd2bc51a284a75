// Package registry walks a decoded registry hive into a tree.Tree.
//
// Each key becomes a node carrying a "registry" attribute group with its
// last write time; each value becomes a leaf node under its key carrying the
// decoded payload as "data". A key's value nodes always precede its subkey
// nodes, and both follow the hive's enumeration order.
//
// The walk never fails as a whole. Problems inside the hive (undecodable or
// oversized values, broken value or subkey lists, limits) are recorded as
// Issues on the returned Result and logged, and the walk carries on with
// whatever is still reachable:
//
//	res := registry.Walk(registry.FromHive(root), t, stream, parent, registry.DefaultOptions())
//	if res.Truncated() {
//		for _, is := range res.Issues {
//			log.Println(is)
//		}
//	}
//
// Run wraps the full sequence used by callers that hold a file node with a
// "data" stream attribute: open, decode, locate the root, walk.
package registry
