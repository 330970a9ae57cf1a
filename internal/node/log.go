package node

import "log"

// stdLog is the fallback error sink when no OnError is configured: it
// logs via the standard library, matching the thin, stdlib-only
// logging the teacher's example binaries use at their outermost
// layer.
func stdLog(err error) {
	log.Printf("mtkv: %v", err)
}
