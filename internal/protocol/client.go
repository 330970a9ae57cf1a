package protocol

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/netshard-io/mtkv/internal/merkle"
)

// Client issues one-shot requests to a single peer address: dial,
// write the request, optionally read a response, close. There is no
// persistent connection and no pooling, matching the source
// implementation's connect-per-call style.
type Client struct {
	Addr        string
	DialTimeout time.Duration
}

// NewClient returns a Client targeting addr with a default dial
// timeout.
func NewClient(addr string) *Client {
	return &Client{Addr: addr, DialTimeout: 5 * time.Second}
}

func (c *Client) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return 5 * time.Second
	}
	return c.DialTimeout
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.dialTimeout())
	if err != nil {
		return nil, fmt.Errorf("protocol: dial %s: %w", c.Addr, err)
	}
	return conn, nil
}

// roundTrip writes request, reads up to bufSize bytes of response,
// and returns them.
func (c *Client) roundTrip(request string, bufSize int) ([]byte, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(request)); err != nil {
		return nil, fmt.Errorf("protocol: write to %s: %w", c.Addr, err)
	}
	buf := make([]byte, bufSize)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("protocol: read from %s: %w", c.Addr, err)
	}
	return buf[:n], nil
}

// send writes request and closes without waiting for a reply — used
// for PROPAGATE, whose sender never reads a response.
func (c *Client) send(request string) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(request)); err != nil {
		return fmt.Errorf("protocol: write to %s: %w", c.Addr, err)
	}
	return nil
}

// Get issues GET key and returns the raw value bytes.
func (c *Client) Get(key []byte) ([]byte, error) {
	return c.roundTrip(fmt.Sprintf("%s %s", VerbGet, key), BufGet)
}

// GetAll issues GET_ALL and parses the key:timestamp listing.
func (c *Client) GetAll() ([]KeyTimestamp, error) {
	resp, err := c.roundTrip(VerbGetAll, BufGetAll)
	if err != nil {
		return nil, err
	}
	return ParseGetAll(resp)
}

// GetMerkleRoot issues GET_MERKLE_ROOT. ok is false when the peer
// reports an empty tree (the literal EMPTY sentinel).
func (c *Client) GetMerkleRoot() (root merkle.Hash, ok bool, err error) {
	resp, err := c.roundTrip(VerbGetMerkleRoot, BufGet)
	if err != nil {
		return merkle.Hash{}, false, err
	}
	s := strings.TrimSpace(string(resp))
	if s == "" || s == RespEmpty {
		return merkle.Hash{}, false, nil
	}
	h, err := merkle.ParseHash(s)
	if err != nil {
		return merkle.Hash{}, false, fmt.Errorf("protocol: GET_MERKLE_ROOT from %s: %w", c.Addr, err)
	}
	return h, true, nil
}

// GetPaths issues GET_PATHS for keys and parses the response.
func (c *Client) GetPaths(keys [][]byte) ([]merkle.KeyPath, error) {
	joined := make([][]byte, len(keys))
	copy(joined, keys)
	request := fmt.Sprintf("%s %s", VerbGetPaths, joinSemicolon(joined))
	resp, err := c.roundTrip(request, BufGetPaths)
	if err != nil {
		return nil, err
	}
	return ParseGetPaths(resp)
}

// PropagateSet sends PROPAGATE SET without waiting for a reply.
func (c *Client) PropagateSet(key, value []byte, ts uint64) error {
	return c.send(fmt.Sprintf("%s %s %s %s %s", VerbPropagate, VerbSet, key, value, strconv.FormatUint(ts, 10)))
}

// PropagateDel sends PROPAGATE DEL without waiting for a reply.
func (c *Client) PropagateDel(key, value []byte, ts uint64) error {
	return c.send(fmt.Sprintf("%s %s %s %s %s", VerbPropagate, VerbDel, key, value, strconv.FormatUint(ts, 10)))
}

func joinSemicolon(keys [][]byte) string {
	var buf strings.Builder
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.Write(k)
	}
	return buf.String()
}
