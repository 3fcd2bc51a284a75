package registry

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regwalk/hive"
	"github.com/joshuapare/regwalk/tree"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func walk(t *testing.T, root Key, opts Options) (*tree.Tree, *Result) {
	t.Helper()
	tr := tree.New()
	res := Walk(root, tr, bytes.NewReader(nil), tr.Root(), opts)
	require.NotNil(t, res)
	return tr, res
}

func TestWalkRootVerDefaultSub(t *testing.T) {
	stamp := time.Date(2019, 7, 1, 12, 0, 0, 0, time.UTC)
	root := fk("Root").stamp(stamp).
		val(fv("Ver", hive.Int32(7)), fv("", hive.String("x"))).
		sub(fk("Sub"))

	tr, res := walk(t, root, quietOptions())
	assert.Empty(t, res.Issues)
	assert.False(t, res.Truncated())
	assert.Equal(t, 2, res.Keys)
	assert.Equal(t, 2, res.Values)

	assert.Equal(t, []string{"Root"}, childNames(tr, tr.Root()))
	assert.Equal(t, []string{"Ver", "default", "Sub"}, childNames(tr, res.Root))

	g, ok := group(t, tr, res.Root)
	require.True(t, ok)
	lw, ok := g.Get(AttrLastWritten)
	require.True(t, ok)
	ts, ok := lw.AsTime()
	require.True(t, ok)
	assert.True(t, stamp.Equal(ts))
	_, ok = g.Get(AttrData)
	assert.False(t, ok, "key nodes carry no data")

	assert.True(t, tree.I32(7).Equal(dataOf(t, tr, child(t, tr, res.Root, "Ver"))))
	assert.True(t, tree.String("x").Equal(dataOf(t, tr, child(t, tr, res.Root, "default"))))

	sub := child(t, tr, res.Root, "Sub")
	_, ok = group(t, tr, sub)
	assert.False(t, ok, "no timestamp, no group")
	assert.Nil(t, tr.Children(sub))
}

func TestValuesPrecedeSubkeys(t *testing.T) {
	root := fk("K")
	for _, n := range []string{"k1", "k2", "k3"} {
		root.sub(fk(n).val(fv("inner", hive.None{})))
	}
	for _, n := range []string{"v1", "v2"} {
		root.val(fv(n, hive.Int32(1)))
	}

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"v1", "v2", "k1", "k2", "k3"}, childNames(tr, res.Root))
	for _, c := range tr.Children(res.Root)[:2] {
		assert.Nil(t, tr.Children(c), "value nodes are leaves")
	}
	assert.Equal(t, 4, res.Keys)
	assert.Equal(t, 5, res.Values)
}

func TestPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data hive.Data
		want tree.Value
	}{
		{"absent", hive.None{}, tree.None()},
		{"string", hive.String("hello"), tree.String("hello")},
		{"empty string", hive.String(""), tree.String("")},
		{"int32", hive.Int32(42), tree.I32(42)},
		{"negative", hive.Int32(-1), tree.I32(-1)},
		{"nothing read", nil, tree.None()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, res := walk(t, fk("K").val(fv("v", tt.data)), quietOptions())
			got := dataOf(t, tr, child(t, tr, res.Root, "v"))
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestValueNames(t *testing.T) {
	tr, res := walk(t, fk("K").val(fv("", hive.None{}), fv("named", hive.None{}), fv("default", hive.None{})), quietOptions())
	assert.Equal(t, []string{"default", "named", "default"}, childNames(tr, res.Root))
}

func TestValueSizeCap(t *testing.T) {
	const limit = 100 << 20
	atCap := fv("at", hive.Int32(1))
	atCap.size = limit
	over := fv("over", hive.Int32(2))
	over.size = limit + 1
	after := fv("after", hive.Int32(3))

	tr, res := walk(t, fk("K").val(atCap, over, after), quietOptions())
	assert.Equal(t, []string{"at", "after"}, childNames(tr, res.Root))
	assert.False(t, over.read, "oversized payloads are never read")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueOversizedValue, res.Issues[0].Kind)
	assert.Equal(t, "over", res.Issues[0].Value)
	assert.False(t, res.Truncated())
}

func TestValueSizeCapOption(t *testing.T) {
	big := fv("big", hive.Int32(1))
	big.size = 9
	opts := quietOptions()
	opts.MaxValueSize = 8
	tr, res := walk(t, fk("K").val(big, fv("small", hive.Int32(2))), opts)
	assert.Equal(t, []string{"small"}, childNames(tr, res.Root))
	assert.Equal(t, 1, res.Count(IssueOversizedValue))
}

func TestDecodeFailureKeepsNode(t *testing.T) {
	bad := fv("bad", hive.Int32(9))
	bad.decodeErr = hive.ErrUnsupportedType
	root := fk("K").val(bad, fv("good", hive.Int32(5))).sub(fk("S"))

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"bad", "good", "S"}, childNames(tr, res.Root))
	assert.True(t, dataOf(t, tr, child(t, tr, res.Root, "bad")).IsNone())
	assert.True(t, tree.I32(5).Equal(dataOf(t, tr, child(t, tr, res.Root, "good"))))

	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueValueDecodeFailure, res.Issues[0].Kind)
	assert.ErrorIs(t, res.Issues[0].Err, hive.ErrUnsupportedType)
	assert.False(t, res.Truncated())
}

func TestReadFailureDecodesWhatWasRead(t *testing.T) {
	partial := fv("partial", hive.String("abc"))
	partial.readErr = errBoom

	tr, res := walk(t, fk("K").val(partial), quietOptions())
	assert.True(t, tree.String("abc").Equal(dataOf(t, tr, child(t, tr, res.Root, "partial"))))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueValueReadFailure, res.Issues[0].Kind)
	assert.Equal(t, "K", res.Issues[0].Path)
}

func TestKeyEnumerationFailureDropsRemainingSiblings(t *testing.T) {
	first := fk("A").val(fv("av", hive.Int32(1))).sub(fk("A1").sub(fk("A2")))
	root := fk("Root").sub(first, fk("B"), fk("C"))
	root.keyErrAt = 1

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"A"}, childNames(tr, res.Root))
	a := child(t, tr, res.Root, "A")
	assert.Equal(t, []string{"av", "A1"}, childNames(tr, a))
	a1 := child(t, tr, a, "A1")
	assert.Equal(t, []string{"A2"}, childNames(tr, a1))

	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueEnumeration, res.Issues[0].Kind)
	assert.Equal(t, "Root", res.Issues[0].Path)
	assert.ErrorIs(t, res.Issues[0].Err, errBoom)
	assert.True(t, res.Truncated())
}

func TestNestedKeyFailureOnlyAffectsThatKey(t *testing.T) {
	inner := fk("A").sub(fk("A1"), fk("A2"))
	inner.keyErrAt = 1
	root := fk("Root").sub(inner, fk("B"))

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"A", "B"}, childNames(tr, res.Root))
	assert.Equal(t, []string{"A1"}, childNames(tr, child(t, tr, res.Root, "A")))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, `Root\A`, res.Issues[0].Path)
}

func TestValueEnumerationFailureEndsSubtree(t *testing.T) {
	root := fk("Root").val(fv("v1", hive.Int32(1)), fv("v2", hive.Int32(2))).sub(fk("S"))
	root.valueErrAt = 1

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"v1"}, childNames(tr, res.Root), "no further values and no subkeys")
	assert.Equal(t, 0, root.nk, "key phase never started")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueEnumeration, res.Issues[0].Kind)
	assert.True(t, res.Truncated())
}

func TestDepthLimit(t *testing.T) {
	deep := fk("d1").sub(fk("d2").sub(fk("d3").sub(fk("d4"))))
	root := fk("d0").sub(deep, fk("sibling"))
	opts := quietOptions()
	opts.MaxDepth = 2

	tr, res := walk(t, root, opts)
	d1 := child(t, tr, res.Root, "d1")
	d2 := child(t, tr, d1, "d2")
	assert.Nil(t, tr.Children(d2), "d3 is beyond the limit")
	assert.Equal(t, []string{"d1", "sibling"}, childNames(tr, res.Root))

	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueDepthLimit, res.Issues[0].Kind)
	assert.Equal(t, `d0\d1\d2\d3`, res.Issues[0].Path)
	assert.True(t, res.Truncated())
}

func TestDeepChainUsesNoRecursion(t *testing.T) {
	const depth = 5000
	root := fk("k")
	cur := root
	for range depth {
		next := fk("k")
		cur.sub(next)
		cur = next
	}
	opts := quietOptions()
	opts.MaxDepth = depth

	tr, res := walk(t, root, opts)
	assert.Empty(t, res.Issues)
	assert.Equal(t, depth+1, res.Keys)
	assert.Equal(t, depth+2, tr.Len())
}

func TestNodeLimit(t *testing.T) {
	root := fk("Root").val(fv("v1", hive.None{}), fv("v2", hive.None{})).sub(fk("A"), fk("B"))
	opts := quietOptions()
	opts.MaxNodes = 3

	tr, res := walk(t, root, opts)
	assert.Equal(t, 4, tr.Len(), "tree root plus three walked nodes")
	assert.Equal(t, []string{"v1", "v2"}, childNames(tr, res.Root))
	assert.Equal(t, 1, root.nk, "the first subkey found no room")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueNodeLimit, res.Issues[0].Kind)
	assert.Equal(t, `Root\A`, res.Issues[0].Path)
	assert.True(t, res.Truncated())
}

func TestNodeLimitInKeyPhase(t *testing.T) {
	root := fk("Root").sub(fk("A"), fk("B"), fk("C"))
	opts := quietOptions()
	opts.MaxNodes = 2

	tr, res := walk(t, root, opts)
	assert.Equal(t, []string{"A"}, childNames(tr, res.Root))
	assert.Equal(t, 2, root.nk, "one key fetched past the limit, then stop")
	assert.Equal(t, 1, res.Count(IssueNodeLimit))
}

func TestAncestorLoopsAreNotEntered(t *testing.T) {
	a := fk("A").val(fv("v", hive.Int32(1)))
	root := fk("Root").sub(a)
	a.sub(root)
	shared := fk("Shared")
	a.sub(shared, shared)

	tr, res := walk(t, root, quietOptions())
	assert.Equal(t, []string{"A"}, childNames(tr, res.Root))
	assert.Equal(t, []string{"v", "Shared", "Shared"}, childNames(tr, child(t, tr, res.Root, "A")),
		"a repeated entry is not a loop")

	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueCycle, res.Issues[0].Kind)
	assert.Equal(t, `Root\A\Root`, res.Issues[0].Path)
	assert.True(t, res.Truncated())
}

func TestCrossLinkedKeyAppearsUnderEachParent(t *testing.T) {
	s1 := fk("S").val(fv("n", hive.Int32(5)))
	s2 := fk("S").val(fv("n", hive.Int32(5)))
	s2.off = s1.off
	root := fk("Root").sub(fk("A").sub(s1), fk("B").sub(s2))

	tr, res := walk(t, root, quietOptions())
	assert.Empty(t, res.Issues)
	for _, parent := range []string{"A", "B"} {
		p := child(t, tr, res.Root, parent)
		assert.Equal(t, []string{"S"}, childNames(tr, p))
		assert.Equal(t, []string{"n"}, childNames(tr, child(t, tr, p, "S")))
	}
}

func TestMissingParent(t *testing.T) {
	tr := tree.New()
	root := fk("Root").sub(fk("A"))
	res := Walk(root, tr, bytes.NewReader(nil), tree.NilID, quietOptions())

	assert.Equal(t, tree.NilID, res.Root)
	assert.Equal(t, 1, tr.Len())
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueInsertFailure, res.Issues[0].Kind)
	assert.ErrorIs(t, res.Issues[0].Err, tree.ErrParentNotFound)
	assert.Equal(t, 0, root.nv, "nothing was enumerated")
}

func TestIssuesAreLogged(t *testing.T) {
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	bad := fv("bad", hive.None{})
	bad.decodeErr = errBoom
	root := fk("Root").val(bad).sub(fk("A"))
	root.keyErrAt = 1

	tr := tree.New()
	res := Walk(root, tr, bytes.NewReader(nil), tr.Root(), opts)
	require.Len(t, res.Issues, 2)

	logged := out.String()
	assert.Contains(t, logged, "level=DEBUG")
	assert.Contains(t, logged, `kind="value decode failure"`)
	assert.Contains(t, logged, "value=bad")
	assert.Contains(t, logged, "level=WARN")
	assert.Contains(t, logged, `kind="enumeration failure"`)
}

func TestIssueString(t *testing.T) {
	is := Issue{Kind: IssueOversizedValue, Path: `A\B`, Value: "v", Err: errBoom}
	assert.Equal(t, `oversized value at A\B (value "v"): boom`, is.String())
	assert.Equal(t, "issue(99)", IssueKind(99).String())
}
