// Package protocol defines the basic value types shared across the
// connection core: byte counts, packet numbers, encryption levels and
// packet-number spaces.
package protocol

import "time"

// ByteCount is used to count bytes.
type ByteCount int64

// InvalidByteCount is used when a byte count is not set.
const InvalidByteCount ByteCount = -1

// PacketNumber is the packet number of a QUIC packet.
type PacketNumber int64

// InvalidPacketNumber is used when no packet number is known.
const InvalidPacketNumber PacketNumber = -1

// Perspective determines if we're acting as a client or a server.
type Perspective int

const (
	// PerspectiveServer is used for a server
	PerspectiveServer Perspective = iota
	// PerspectiveClient is used for a client
	PerspectiveClient
)

func (p Perspective) Opposite() Perspective {
	if p == PerspectiveClient {
		return PerspectiveServer
	}
	return PerspectiveClient
}

func (p Perspective) String() string {
	switch p {
	case PerspectiveServer:
		return "server"
	case PerspectiveClient:
		return "client"
	default:
		return "invalid perspective"
	}
}

// EncryptionLevel is the encryption level of a packet.
type EncryptionLevel uint8

const (
	EncryptionInitial EncryptionLevel = iota
	EncryptionHandshake
	EncryptionZeroRTT
	Encryption1RTT
)

func (e EncryptionLevel) String() string {
	switch e {
	case EncryptionInitial:
		return "Initial"
	case EncryptionHandshake:
		return "Handshake"
	case EncryptionZeroRTT:
		return "0-RTT"
	case Encryption1RTT:
		return "1-RTT"
	default:
		return "unknown"
	}
}

// PacketNumberSpace groups packet numbers and loss-detection state.
// Every encryption level except 0-RTT maps to exactly one space; 0-RTT
// shares the Application space with 1-RTT.
type PacketNumberSpace uint8

const (
	PNSpaceInitial PacketNumberSpace = iota
	PNSpaceHandshake
	PNSpaceApplication
)

func (s PacketNumberSpace) String() string {
	switch s {
	case PNSpaceInitial:
		return "Initial"
	case PNSpaceHandshake:
		return "Handshake"
	case PNSpaceApplication:
		return "Application"
	default:
		return "unknown"
	}
}

// PNSpace maps an encryption level to its packet-number space.
func (e EncryptionLevel) PNSpace() PacketNumberSpace {
	switch e {
	case EncryptionInitial:
		return PNSpaceInitial
	case EncryptionHandshake:
		return PNSpaceHandshake
	default:
		return PNSpaceApplication
	}
}

// PacketType is the type of a QUIC packet, as carried in the long header
// (or implied by the short header for PROTECTED packets).
type PacketType uint8

const (
	PacketTypeVersionNegotiation PacketType = iota
	PacketTypeInitial
	PacketTypeRetry
	PacketTypeHandshake
	PacketTypeZeroRTTProtected
	PacketTypeProtected
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeVersionNegotiation:
		return "Version Negotiation"
	case PacketTypeInitial:
		return "Initial"
	case PacketTypeRetry:
		return "Retry"
	case PacketTypeHandshake:
		return "Handshake"
	case PacketTypeZeroRTTProtected:
		return "0-RTT Protected"
	case PacketTypeProtected:
		return "Protected"
	default:
		return "unknown"
	}
}

// EncryptionLevel returns the encryption epoch a packet of this type is
// protected with. ZeroRTT is never returned by the packet builder (C3),
// but is needed here so the unpacker can dispatch decryption.
func (t PacketType) EncryptionLevel() EncryptionLevel {
	switch t {
	case PacketTypeInitial:
		return EncryptionInitial
	case PacketTypeHandshake:
		return EncryptionHandshake
	case PacketTypeZeroRTTProtected:
		return EncryptionZeroRTT
	default:
		return Encryption1RTT
	}
}

// PacketTypeFromEncryptionLevel is the bijective inverse used by the
// packet builder (C3); ZeroRTT has no outbound packet type in this core
// and must never be passed in.
func PacketTypeFromEncryptionLevel(e EncryptionLevel) PacketType {
	switch e {
	case EncryptionInitial:
		return PacketTypeInitial
	case EncryptionHandshake:
		return PacketTypeHandshake
	case Encryption1RTT:
		return PacketTypeProtected
	default:
		panic("protocol: 0-RTT packets are never built by this core")
	}
}

// Default timing and size constants, grounded on QUICNetVConnection.cc's
// anonymous-namespace constants and quic-go's internal/protocol defaults.
const (
	DefaultIdleTimeout          = 30 * time.Second
	DefaultHandshakeIdleTimeout = 10 * time.Second
	MaxPacketsPerEvent          = 32 // PACKET_PER_EVENT
	MaxConsecutiveStreamFrames  = 8  // MAX_CONSECUTIVE_STREAMS
	MaxHandshakePacketsUnverified = 3
	MaxPacketOverhead           = 62 // MAX_PACKET_OVERHEAD
	MaxStreamFrameOverhead      = 24
	MinimumClientInitialSize    = 1200
	InitialClosingRecvWindow    = 1
	MaxClosingRecvWindow        = 1 << 8
	WriteReadyRetryDelay        = 20 * time.Millisecond
)
