// Package hive decodes Windows Registry hive ("regf") images from a seekable
// byte stream and exposes them through a cursor-style API.
//
// A Hive is decoded once from one stream. Keys are read-once cursors: each
// call to NextValue or NextKey reads the records it needs from the stream
// passed to it, so the caller decides which stream a traversal consumes. A
// stream must not be shared between concurrent traversals.
//
//	h, err := hive.Decode(f, hive.DefaultOptions())
//	root, err := h.Root()
//	for {
//	    v, err := root.NextValue(f)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	}
//
// Decoding is paranoid about bounds: cell sizes, list lengths and name
// lengths are validated against the stream and the configured limits, and
// malformed input yields a typed *Error rather than a panic.
package hive
