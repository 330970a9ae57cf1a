package merkle

import "strconv"

// LeafHash computes L(k, v, t): the byte string k||":"||v||":"||decimal(t)
// is copied (zero-padded on the right if shorter, truncated if longer)
// into a 32-byte buffer, which is then compressed against an all-zero
// right half. Two peers running this implementation against the same
// (key, value, timestamp) triple always agree on L(k, v, t).
func LeafHash(key, value []byte, timestamp uint64) Hash {
	buf := make([]byte, 0, len(key)+1+len(value)+1+20)
	buf = append(buf, key...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	buf = append(buf, ':')
	buf = strconv.AppendUint(buf, timestamp, 10)

	var left Hash
	n := copy(left[:], buf)
	_ = n // remaining bytes of left stay zero if buf is shorter than 32

	return compress(left, Zero)
}
