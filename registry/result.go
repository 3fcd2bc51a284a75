package registry

import (
	"fmt"
	"strings"

	"github.com/joshuapare/regwalk/tree"
)

// IssueKind classifies a recoverable problem met during a walk.
type IssueKind int

const (
	// IssueValueDecodeFailure: the payload could not be decoded; the value
	// node exists with None data.
	IssueValueDecodeFailure IssueKind = iota
	// IssueValueReadFailure: the payload could not be fully read; whatever
	// was recovered was decoded.
	IssueValueReadFailure
	// IssueOversizedValue: the value declared more than MaxValueSize bytes
	// and has no node.
	IssueOversizedValue
	// IssueEnumeration: a value or subkey list failed mid-enumeration. In the
	// value phase the key's whole remaining subtree is dropped; in the key
	// phase only the remaining siblings are.
	IssueEnumeration
	// IssueDepthLimit: a subkey beyond MaxDepth was not entered.
	IssueDepthLimit
	// IssueNodeLimit: MaxNodes was reached and the walk stopped.
	IssueNodeLimit
	// IssueInsertFailure: the tree refused a node; its subtree is missing.
	IssueInsertFailure
	// IssueCycle: a subkey entry points at a key that was already walked
	// (a loop or a shared list entry) and was not entered again.
	IssueCycle
)

var issueNames = map[IssueKind]string{
	IssueValueDecodeFailure: "value decode failure",
	IssueValueReadFailure:   "value read failure",
	IssueOversizedValue:     "oversized value",
	IssueEnumeration:        "enumeration failure",
	IssueDepthLimit:         "depth limit",
	IssueNodeLimit:          "node limit",
	IssueInsertFailure:      "insert failure",
	IssueCycle:              "key loop",
}

func (k IssueKind) String() string {
	if s, ok := issueNames[k]; ok {
		return s
	}
	return fmt.Sprintf("issue(%d)", int(k))
}

// truncates reports whether the kind means part of the hive is absent from
// the tree.
func (k IssueKind) truncates() bool {
	switch k {
	case IssueEnumeration, IssueDepthLimit, IssueNodeLimit, IssueInsertFailure, IssueCycle:
		return true
	}
	return false
}

// Issue is one recoverable problem.
type Issue struct {
	Kind  IssueKind
	Path  string // backslash-joined key path from the walk root
	Value string // value name for value-level issues
	Err   error
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Kind.String())
	b.WriteString(" at ")
	b.WriteString(i.Path)
	if i.Value != "" {
		fmt.Fprintf(&b, " (value %q)", i.Value)
	}
	if i.Err != nil {
		b.WriteString(": ")
		b.WriteString(i.Err.Error())
	}
	return b.String()
}

// Result summarizes a walk.
type Result struct {
	Root   tree.NodeID // node of the walk root; NilID if it could not be inserted
	Keys   int         // key nodes inserted
	Values int         // value nodes inserted
	Issues []Issue
}

// Truncated reports whether some of the hive is missing from the tree.
func (r *Result) Truncated() bool {
	for _, is := range r.Issues {
		if is.Kind.truncates() {
			return true
		}
	}
	return false
}

// Count returns the number of issues of kind k.
func (r *Result) Count(k IssueKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == k {
			n++
		}
	}
	return n
}
