package mtkv

import "testing"

func TestNewRequiresListenAddr(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatalf("New with no listen addr, want error")
	}
}

func TestNewRejectsInvalidListenAddr(t *testing.T) {
	if _, err := New(WithListenAddr("not-an-addr")); err == nil {
		t.Fatalf("New with invalid listen addr, want error")
	}
}

func TestNewRejectsInvalidPeerAddr(t *testing.T) {
	if _, err := New(WithListenAddr("127.0.0.1:0"), WithPeerAddr("not-an-addr")); err == nil {
		t.Fatalf("New with invalid peer addr, want error")
	}
}

func TestNewRejectsDiscoveryWithoutPeerID(t *testing.T) {
	if _, err := New(WithListenAddr("127.0.0.1:0"), WithDiscovery(true)); err == nil {
		t.Fatalf("New with discovery enabled and no peer id, want error")
	}
}

func TestNewAssignsRandomNodeID(t *testing.T) {
	db, err := New(WithListenAddr("127.0.0.1:0"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()
	if db.cfg.NodeID == "" {
		t.Fatalf("NodeID is empty, want a generated value")
	}
}

func TestNewRejectsNonPositiveAntiEntropyInterval(t *testing.T) {
	if _, err := New(WithListenAddr("127.0.0.1:0"), WithAntiEntropyInterval(0)); err == nil {
		t.Fatalf("New with zero anti-entropy interval, want error")
	}
}

func TestWithErrorHandlerRejectsNil(t *testing.T) {
	if _, err := New(WithListenAddr("127.0.0.1:0"), WithErrorHandler(nil)); err == nil {
		t.Fatalf("New with nil error handler, want error")
	}
}
