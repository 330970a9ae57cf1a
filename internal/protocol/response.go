package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/netshard-io/mtkv/internal/merkle"
)

// EncodeGetAll formats a GET_ALL response: "k1:t1;k2:t2;...;" with a
// trailing semicolon, or an empty string for an empty store.
func EncodeGetAll(keys [][]byte, timestamps []uint64) string {
	var buf bytes.Buffer
	for i, k := range keys {
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatUint(timestamps[i], 10))
		buf.WriteByte(';')
	}
	return buf.String()
}

// KeyTimestamp is one parsed entry of a GET_ALL response.
type KeyTimestamp struct {
	Key       []byte
	Timestamp uint64
}

// ParseGetAll parses a GET_ALL response body.
func ParseGetAll(raw []byte) ([]KeyTimestamp, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	parts := bytes.Split(raw, []byte(";"))
	out := make([]KeyTimestamp, 0, len(parts))
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		sep := bytes.IndexByte(part, ':')
		if sep < 0 {
			return nil, fmt.Errorf("protocol: malformed GET_ALL entry %q", part)
		}
		ts, err := strconv.ParseUint(string(part[sep+1:]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("protocol: malformed GET_ALL timestamp %q: %w", part, err)
		}
		key := make([]byte, sep)
		copy(key, part[:sep])
		out = append(out, KeyTimestamp{Key: key, Timestamp: ts})
	}
	return out, nil
}

// EncodeGetPaths formats a GET_PATHS response:
// "k1,hex_path1;k2,hex_path2;...".
func EncodeGetPaths(pairs []merkle.KeyPath) string {
	var buf bytes.Buffer
	for _, kp := range pairs {
		buf.Write(kp.Key)
		buf.WriteByte(',')
		buf.WriteString(kp.Path.Encode())
		buf.WriteByte(';')
	}
	return buf.String()
}

// ParseGetPaths parses a GET_PATHS response body.
func ParseGetPaths(raw []byte) ([]merkle.KeyPath, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	entries := bytes.Split(raw, []byte(";"))
	out := make([]merkle.KeyPath, 0, len(entries))
	for _, entry := range entries {
		if len(entry) == 0 {
			continue
		}
		sep := bytes.IndexByte(entry, ',')
		if sep < 0 {
			return nil, fmt.Errorf("protocol: malformed GET_PATHS entry %q", entry)
		}
		key := make([]byte, sep)
		copy(key, entry[:sep])
		path, err := merkle.DecodePath(string(entry[sep+1:]))
		if err != nil {
			return nil, fmt.Errorf("protocol: malformed GET_PATHS path for key %q: %w", key, err)
		}
		out = append(out, merkle.KeyPath{Key: key, Path: path})
	}
	return out, nil
}
