package protocol

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// MaxConnIDLen is the maximum length of a QUIC connection ID.
const MaxConnIDLen = 20

// ConnectionID is an endpoint-assigned opaque routing identifier. The zero
// value (len 0, all-zero bytes would also satisfy IsZero for a 0-length
// ID) is a sentinel meaning "no CID" and, per spec.md's data model, is
// invalid as a negotiated peer CID.
type ConnectionID struct {
	b [MaxConnIDLen]byte
	l uint8
}

// ZeroConnectionID is the sentinel value: a connection ID that carries no
// bytes. It must never be accepted as a peer-advertised CID.
var ZeroConnectionID = ConnectionID{}

// ParseConnectionID builds a ConnectionID from a byte slice.
func ParseConnectionID(b []byte) ConnectionID {
	if len(b) > MaxConnIDLen {
		panic(fmt.Sprintf("protocol: connection ID too long: %d bytes", len(b)))
	}
	var c ConnectionID
	copy(c.b[:], b)
	c.l = uint8(len(b))
	return c
}

// GenerateConnectionID draws a fresh random connection ID of length n.
func GenerateConnectionID(n int) (ConnectionID, error) {
	if n > MaxConnIDLen {
		return ConnectionID{}, fmt.Errorf("protocol: connection ID length %d exceeds maximum", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ConnectionID{}, err
	}
	return ParseConnectionID(b), nil
}

// Len returns the length of the connection ID in bytes.
func (c ConnectionID) Len() int { return int(c.l) }

// Bytes returns the byte representation of the connection ID.
func (c ConnectionID) Bytes() []byte { return append([]byte{}, c.b[:c.l]...) }

// IsZero reports whether this is the zero-length sentinel CID.
func (c ConnectionID) IsZero() bool { return c.l == 0 }

// Equal reports whether two connection IDs carry the same bytes.
func (c ConnectionID) Equal(o ConnectionID) bool {
	return c.l == o.l && bytes.Equal(c.b[:c.l], o.b[:o.l])
}

// Truncated32 returns a 32-bit truncation of the connection ID, used only
// for compact debug tags (never for routing).
func (c ConnectionID) Truncated32() uint32 {
	if c.l == 0 {
		return 0
	}
	var padded [4]byte
	n := copy(padded[:], c.b[:c.l])
	_ = n
	return binary.BigEndian.Uint32(padded[:])
}

func (c ConnectionID) String() string {
	if c.l == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("%x", c.b[:c.l])
}
