// Package protocol implements the wire format peers speak over TCP:
// one request per connection, a single opaque response, no framing
// beyond the verb grammar itself.
package protocol

// Verbs, as they appear on the wire.
const (
	VerbGet           = "GET"
	VerbSet           = "SET"
	VerbDel           = "DEL"
	VerbGetAll        = "GET_ALL"
	VerbPropagate     = "PROPAGATE"
	VerbGetMerkleRoot = "GET_MERKLE_ROOT"
	VerbGetPaths      = "GET_PATHS"
)

// Fixed response strings.
const (
	RespOK               = "OK"
	RespInvalidCommand   = "Invalid command"
	RespEmpty            = "EMPTY"
	RespOutdatedTS       = "ERROR: Outdated timestamp"
	RespKeyNotFoundOrOld = "ERROR: Key not found or outdated timestamp"
)

// Read buffer sizes, per verb family. GET_ALL and GET_PATHS responses
// grow with the key space, so they get larger buffers than a single
// value or status reply.
const (
	BufGet      = 1024
	BufGetAll   = 8 * 1024
	BufGetPaths = 16 * 1024
)
