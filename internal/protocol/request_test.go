package protocol

import "testing"

func TestParseGet(t *testing.T) {
	req, err := Parse([]byte("GET mykey"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbGet || string(req.Key) != "mykey" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseSet(t *testing.T) {
	req, err := Parse([]byte("SET mykey myvalue"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbSet || string(req.Key) != "mykey" || string(req.Value) != "myvalue" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParsePropagateSet(t *testing.T) {
	req, err := Parse([]byte("PROPAGATE SET k v 12345"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbSet || req.Propagate != PropagateSetOp || req.Timestamp != 12345 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParsePropagateDel(t *testing.T) {
	req, err := Parse([]byte("PROPAGATE DEL k v 999"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbDel || req.Propagate != PropagateDelOp || req.Timestamp != 999 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseGetAll(t *testing.T) {
	req, err := Parse([]byte("GET_ALL"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbGetAll {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestParseGetPaths(t *testing.T) {
	req, err := Parse([]byte("GET_PATHS k1;k2;k3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(req.Keys))
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "NOPE", "GET", "SET k", "PROPAGATE", "PROPAGATE SET k v"}
	for _, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestParseGetMerkleRoot(t *testing.T) {
	req, err := Parse([]byte("GET_MERKLE_ROOT"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Op != VerbGetMerkleRoot {
		t.Fatalf("unexpected request: %+v", req)
	}
}
