package protocol

import (
	"bytes"
	"errors"
	"strconv"
)

// PropagateOp distinguishes the two kinds of propagated mutation.
type PropagateOp int

const (
	PropagateNone PropagateOp = iota
	PropagateSetOp
	PropagateDelOp
)

// Request is a parsed client request. Only the fields relevant to Op
// are populated.
type Request struct {
	Op        string
	Key       []byte
	Value     []byte
	Timestamp uint64
	Keys      [][]byte    // GET_PATHS
	Propagate PropagateOp // set when Op arrived wrapped in PROPAGATE
}

// ErrInvalidCommand is returned for anything that doesn't parse into
// a known verb and its expected arguments.
var ErrInvalidCommand = errors.New("protocol: invalid command")

// Parse decodes a raw request buffer into a Request. Keys and values
// are whitespace-delimited single tokens; keys/values containing
// spaces or semicolons are not representable on this wire.
func Parse(raw []byte) (Request, error) {
	fields := bytes.Fields(raw)
	if len(fields) == 0 {
		return Request{}, ErrInvalidCommand
	}

	first := string(fields[0])
	if first == VerbPropagate {
		if len(fields) < 2 {
			return Request{}, ErrInvalidCommand
		}
		inner := string(fields[1])
		switch inner {
		case VerbSet:
			if len(fields) != 5 {
				return Request{}, ErrInvalidCommand
			}
			ts, err := strconv.ParseUint(string(fields[4]), 10, 64)
			if err != nil {
				return Request{}, ErrInvalidCommand
			}
			return Request{Op: VerbSet, Propagate: PropagateSetOp, Key: fields[2], Value: fields[3], Timestamp: ts}, nil
		case VerbDel:
			if len(fields) != 5 {
				return Request{}, ErrInvalidCommand
			}
			ts, err := strconv.ParseUint(string(fields[4]), 10, 64)
			if err != nil {
				return Request{}, ErrInvalidCommand
			}
			return Request{Op: VerbDel, Propagate: PropagateDelOp, Key: fields[2], Value: fields[3], Timestamp: ts}, nil
		default:
			return Request{}, ErrInvalidCommand
		}
	}

	switch first {
	case VerbGet:
		if len(fields) != 2 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbGet, Key: fields[1]}, nil
	case VerbSet:
		if len(fields) != 3 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbSet, Key: fields[1], Value: fields[2]}, nil
	case VerbDel:
		if len(fields) < 2 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbDel, Key: fields[1]}, nil
	case VerbGetAll:
		if len(fields) != 1 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbGetAll}, nil
	case VerbGetMerkleRoot:
		if len(fields) != 1 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbGetMerkleRoot}, nil
	case VerbGetPaths:
		if len(fields) != 2 {
			return Request{}, ErrInvalidCommand
		}
		return Request{Op: VerbGetPaths, Keys: splitSemicolon(fields[1])}, nil
	default:
		return Request{}, ErrInvalidCommand
	}
}

func splitSemicolon(b []byte) [][]byte {
	parts := bytes.Split(b, []byte(";"))
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
