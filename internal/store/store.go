// Package store implements the timestamped key-value store at the core
// of a node: an in-memory map from key to (value, timestamp) with
// last-writer-wins conflict resolution, plus the hook that keeps a
// Merkle index in sync with it.
package store

import "sync"

// Entry is a single (key, value, timestamp) triple as seen by a
// snapshot. It is the only shape the store exposes to an Index —
// the store never hands out its internal map or calls back into the
// index mid-mutation.
type Entry struct {
	Key       []byte
	Value     []byte
	Timestamp uint64
}

// Index is whatever wants to stay in sync with the store's contents.
// Rebuild receives a full, ordered snapshot after every accepted
// mutation; it owns its own locking and must not call back into the
// Store that invoked it.
type Index interface {
	Rebuild(snapshot []Entry)
}

type record struct {
	value     []byte
	timestamp uint64
}

// Store is a single node's view of the keyspace. All operations
// serialize on a single, plain (non-reentrant) mutex: Set and Delete
// build a snapshot and hand it to the attached Index themselves,
// rather than having the index call back in, so there is no cycle to
// require reentrancy for.
type Store struct {
	mu sync.Mutex

	values map[string]record
	order  []string // insertion order, for a stable snapshot within one rebuild

	index Index
}

// New returns an empty Store with no attached Index.
func New() *Store {
	return &Store{
		values: make(map[string]record),
	}
}

// Get returns the stored value for key, or an empty value if absent.
func (s *Store) Get(key []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.values[string(key)]
	if !ok {
		return nil
	}
	return rec.value
}

// GetWithTimestamp returns the stored value and timestamp for key, or
// (nil, 0) if absent.
func (s *Store) GetWithTimestamp(key []byte) ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.values[string(key)]
	if !ok {
		return nil, 0
	}
	return rec.value, rec.timestamp
}

// Set stores value under key with timestamp ts, accepting iff key is
// absent or ts is greater than or equal to the current record's
// timestamp. On acceptance the index, if any, is rebuilt from the new
// snapshot before Set returns.
func (s *Store) Set(key, value []byte, ts uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := string(key)
	cur, exists := s.values[k]
	if exists && ts < cur.timestamp {
		return false
	}
	if !exists {
		s.order = append(s.order, k)
	}
	s.values[k] = record{value: cloneBytes(value), timestamp: ts}
	s.rebuildLocked()
	return true
}

// Delete removes key, accepting iff key is present and ts is greater
// than or equal to the current record's timestamp.
func (s *Store) Delete(key []byte, ts uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := string(key)
	cur, exists := s.values[k]
	if !exists || ts < cur.timestamp {
		return false
	}
	delete(s.values, k)
	s.removeFromOrderLocked(k)
	s.rebuildLocked()
	return true
}

// Snapshot returns every (key, value, timestamp) triple currently
// stored. The order is stable across calls until the next mutation,
// which is all the Merkle index needs to keep leaf positions and
// KeyIndex entries in agreement.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len reports the number of keys currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Keys returns every key currently stored, in the same stable order as
// Snapshot.
func (s *Store) Keys() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.order))
	for i, k := range s.order {
		out[i] = []byte(k)
	}
	return out
}

// AttachIndex registers idx as the Store's Merkle index and
// immediately rebuilds it from the current snapshot.
func (s *Store) AttachIndex(idx Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
	s.rebuildLocked()
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		rec, ok := s.values[k]
		if !ok {
			continue
		}
		out = append(out, Entry{Key: []byte(k), Value: rec.value, Timestamp: rec.timestamp})
	}
	return out
}

func (s *Store) rebuildLocked() {
	if s.index == nil {
		return
	}
	s.index.Rebuild(s.snapshotLocked())
}

func (s *Store) removeFromOrderLocked(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
