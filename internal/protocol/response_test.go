package protocol

import (
	"testing"

	"github.com/netshard-io/mtkv/internal/merkle"
	"github.com/netshard-io/mtkv/internal/store"
)

func TestEncodeParseGetAllRoundTrip(t *testing.T) {
	keys := [][]byte{[]byte("a"), []byte("b")}
	ts := []uint64{10, 20}
	encoded := EncodeGetAll(keys, ts)

	parsed, err := ParseGetAll([]byte(encoded))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("got %d entries, want 2", len(parsed))
	}
	for i, p := range parsed {
		if string(p.Key) != string(keys[i]) || p.Timestamp != ts[i] {
			t.Fatalf("entry %d mismatch: %+v", i, p)
		}
	}
}

func TestParseGetAllEmpty(t *testing.T) {
	parsed, err := ParseGetAll([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("expected no entries for an empty store")
	}
}

func TestEncodeParseGetPathsRoundTrip(t *testing.T) {
	idx := merkle.New()
	idx.Rebuild([]store.Entry{
		{Key: []byte("a"), Value: []byte("1"), Timestamp: 1},
		{Key: []byte("b"), Value: []byte("2"), Timestamp: 2},
	})

	keys := [][]byte{[]byte("a"), []byte("b")}
	pairs := idx.Paths(keys)
	encoded := EncodeGetPaths(pairs)

	parsed, err := ParseGetPaths([]byte(encoded))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("got %d pairs, want 2", len(parsed))
	}
	root := idx.Root()
	for _, kp := range parsed {
		if !kp.Path.Verify(root) {
			t.Fatalf("parsed path for %q failed to verify", kp.Key)
		}
	}
}
