package antientropy

import (
	"fmt"

	"github.com/netshard-io/mtkv/internal/protocol"
	"github.com/netshard-io/mtkv/internal/store"
)

// fullStateExchange is the classical N-key reconciliation used when a
// Merkle summary is unavailable: GET_ALL both sides' key/timestamp
// maps, pull anything locally missing or older, push anything locally
// newer or peer-missing. When both sides are empty, this is a no-op.
func (e *Engine) fullStateExchange(client *protocol.Client) error {
	remote, err := client.GetAll()
	if err != nil {
		return fmt.Errorf("full state: get_all: %w", err)
	}
	remoteTimestamps := make(map[string]uint64, len(remote))
	for _, kt := range remote {
		remoteTimestamps[string(kt.Key)] = kt.Timestamp
	}

	local := e.store.Snapshot()
	localByKey := make(map[string]store.Entry, len(local))
	for _, entry := range local {
		localByKey[string(entry.Key)] = entry
	}

	for _, kt := range remote {
		localEntry, exists := localByKey[string(kt.Key)]
		if exists && localEntry.Timestamp >= kt.Timestamp {
			continue
		}
		value, err := client.Get(kt.Key)
		if err != nil {
			return fmt.Errorf("full state: get %q: %w", kt.Key, err)
		}
		e.store.Set(kt.Key, value, nowMillis())
	}

	for _, entry := range local {
		remoteTS, exists := remoteTimestamps[string(entry.Key)]
		if exists && remoteTS >= entry.Timestamp {
			continue
		}
		if err := client.PropagateSet(entry.Key, entry.Value, entry.Timestamp); err != nil {
			return fmt.Errorf("full state: propagate %q: %w", entry.Key, err)
		}
	}
	return nil
}
