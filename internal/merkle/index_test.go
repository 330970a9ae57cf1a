package merkle

import (
	"testing"

	"github.com/netshard-io/mtkv/internal/store"
)

func TestEmptyIndexRootIsZero(t *testing.T) {
	idx := New()
	if !idx.Root().IsZero() {
		t.Fatalf("expected zero root for empty index")
	}
	if !idx.Empty() {
		t.Fatalf("expected empty index to report Empty()")
	}
}

func TestRebuildThenPathsVerify(t *testing.T) {
	idx := New()
	snapshot := []store.Entry{
		{Key: []byte("a"), Value: []byte("1"), Timestamp: 10},
		{Key: []byte("b"), Value: []byte("2"), Timestamp: 20},
		{Key: []byte("c"), Value: []byte("3"), Timestamp: 30},
	}
	idx.Rebuild(snapshot)

	root := idx.Root()
	if root.IsZero() {
		t.Fatalf("expected non-zero root after rebuild")
	}

	keys := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	paths := idx.Paths(keys)
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(paths))
	}
	for _, kp := range paths {
		if !kp.Path.Verify(root) {
			t.Fatalf("path for key %q failed to verify against root", kp.Key)
		}
	}
}

func TestRebuildIsDeterministicForSameMultiset(t *testing.T) {
	idxA := New()
	idxB := New()
	snapshot := []store.Entry{
		{Key: []byte("x"), Value: []byte("v"), Timestamp: 1},
		{Key: []byte("y"), Value: []byte("w"), Timestamp: 2},
	}
	idxA.Rebuild(snapshot)
	idxB.Rebuild(snapshot)
	if idxA.Root() != idxB.Root() {
		t.Fatalf("identical snapshots produced different roots")
	}
}

func TestPathsOmitsUnknownKeysPreservingOrder(t *testing.T) {
	idx := New()
	idx.Rebuild([]store.Entry{
		{Key: []byte("a"), Value: []byte("1"), Timestamp: 1},
		{Key: []byte("c"), Value: []byte("3"), Timestamp: 3},
	})

	paths := idx.Paths([][]byte{[]byte("a"), []byte("missing"), []byte("c")})
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	if string(paths[0].Key) != "a" || string(paths[1].Key) != "c" {
		t.Fatalf("unexpected key order: %q, %q", paths[0].Key, paths[1].Key)
	}
}

func TestFindDifferencesDetectsMismatch(t *testing.T) {
	idxA := New()
	idxB := New()
	idxA.Rebuild([]store.Entry{
		{Key: []byte("k"), Value: []byte("v1"), Timestamp: 1},
	})
	idxB.Rebuild([]store.Entry{
		{Key: []byte("k"), Value: []byte("v2"), Timestamp: 1},
	})

	remotePaths := idxB.Paths([][]byte{[]byte("k")})
	diffs := idxA.FindDifferences(remotePaths)
	if len(diffs) != 1 || string(diffs[0]) != "k" {
		t.Fatalf("expected key %q to be flagged as differing, got %v", "k", diffs)
	}
}

func TestFindDifferencesAgreesWhenIdentical(t *testing.T) {
	snapshot := []store.Entry{
		{Key: []byte("k1"), Value: []byte("v1"), Timestamp: 1},
		{Key: []byte("k2"), Value: []byte("v2"), Timestamp: 2},
	}
	idxA := New()
	idxB := New()
	idxA.Rebuild(snapshot)
	idxB.Rebuild(snapshot)

	keys := [][]byte{[]byte("k1"), []byte("k2")}
	diffs := idxA.FindDifferences(idxB.Paths(keys))
	if len(diffs) != 0 {
		t.Fatalf("expected no differences, got %v", diffs)
	}
}

func TestFindDifferencesOnEmptyLocalFlagsEverything(t *testing.T) {
	idxA := New() // empty
	idxB := New()
	idxB.Rebuild([]store.Entry{
		{Key: []byte("k1"), Value: []byte("v1"), Timestamp: 1},
		{Key: []byte("k2"), Value: []byte("v2"), Timestamp: 2},
	})

	keys := [][]byte{[]byte("k1"), []byte("k2")}
	diffs := idxA.FindDifferences(idxB.Paths(keys))
	if len(diffs) != 2 {
		t.Fatalf("expected every key to differ against an empty local tree, got %v", diffs)
	}
}

func TestPathEncodeDecodeRoundTrip(t *testing.T) {
	idx := New()
	idx.Rebuild([]store.Entry{
		{Key: []byte("a"), Value: []byte("1"), Timestamp: 1},
		{Key: []byte("b"), Value: []byte("2"), Timestamp: 2},
		{Key: []byte("c"), Value: []byte("3"), Timestamp: 3},
	})
	root := idx.Root()
	paths := idx.Paths([][]byte{[]byte("b")})
	if len(paths) != 1 {
		t.Fatalf("expected one path")
	}

	encoded := paths[0].Path.Encode()
	decoded, err := DecodePath(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !decoded.Verify(root) {
		t.Fatalf("decoded path failed to verify against root")
	}
}

func TestSingleLeafRootIsLeafHash(t *testing.T) {
	idx := New()
	idx.Rebuild([]store.Entry{{Key: []byte("only"), Value: []byte("v"), Timestamp: 1}})
	want := LeafHash([]byte("only"), []byte("v"), 1)
	if idx.Root() != want {
		t.Fatalf("single-leaf root should equal the leaf hash directly")
	}
}

func TestOddLeafCountBuildsAndVerifies(t *testing.T) {
	idx := New()
	idx.Rebuild([]store.Entry{
		{Key: []byte("a"), Value: []byte("1"), Timestamp: 1},
		{Key: []byte("b"), Value: []byte("2"), Timestamp: 2},
		{Key: []byte("c"), Value: []byte("3"), Timestamp: 3},
		{Key: []byte("d"), Value: []byte("4"), Timestamp: 4},
		{Key: []byte("e"), Value: []byte("5"), Timestamp: 5},
	})
	root := idx.Root()
	for _, kp := range idx.Paths([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}) {
		if !kp.Path.Verify(root) {
			t.Fatalf("path for %q failed to verify in odd-sized tree", kp.Key)
		}
	}
}
