package wire

import "github.com/qcore/quicendpoint/internal/protocol"

// MaxDataFrame carries the connection-level flow-control limit advertised
// by the local flow controller (spec.md §4.3 step 5, §4.4 MAX_DATA).
type MaxDataFrame struct {
	MaximumData protocol.ByteCount
}

func (f *MaxDataFrame) Length() protocol.ByteCount       { return 9 }
func (f *MaxDataFrame) IsAckEliciting() bool              { return true }

// DataBlockedFrame is sent when the remote flow controller's credit is
// exhausted and the stream manager still has data to send (spec.md §4.3
// step 6, §4.4 BLOCKED). It carries the offset at which the sender was
// blocked, purely diagnostic per spec.md §4.4.
type DataBlockedFrame struct {
	MaximumData protocol.ByteCount
}

func (f *DataBlockedFrame) Length() protocol.ByteCount { return 9 }
func (f *DataBlockedFrame) IsAckEliciting() bool        { return true }

// PingFrame solicits an ACK with no other effect (spec.md §4.4 PING).
type PingFrame struct{}

func (f *PingFrame) Length() protocol.ByteCount { return 1 }
func (f *PingFrame) IsAckEliciting() bool        { return true }

// NewConnectionIDFrame advertises an alternate connection ID the peer may
// migrate to (spec.md §4.4 NEW_CONNECTION_ID). Receiving one with a
// zero-length ConnectionID is a PROTOCOL_VIOLATION (spec.md §3 invariant,
// P3).
type NewConnectionIDFrame struct {
	SequenceNumber      uint64
	RetirePriorTo        uint64
	ConnectionID         protocol.ConnectionID
	StatelessResetToken [16]byte
}

func (f *NewConnectionIDFrame) Length() protocol.ByteCount {
	return protocol.ByteCount(10 + f.ConnectionID.Len() + 16)
}
func (f *NewConnectionIDFrame) IsAckEliciting() bool { return true }
func (f *NewConnectionIDFrame) IsProbingFrame() bool  { return true }

// ConnectionCloseFrame signals a transport-class close (spec.md §4.4
// CONNECTION_CLOSE). FrameType is the frame that triggered the error, 0
// if none.
type ConnectionCloseFrame struct {
	ErrorCode    protocol.ByteCount // carries a qerr.TransportErrorCode value
	FrameType    uint64
	ReasonPhrase string
}

func (f *ConnectionCloseFrame) Length() protocol.ByteCount {
	return protocol.ByteCount(10 + len(f.ReasonPhrase))
}
func (f *ConnectionCloseFrame) IsAckEliciting() bool { return false }

// ApplicationCloseFrame signals an application-class close (spec.md §4.4
// APPLICATION_CLOSE).
type ApplicationCloseFrame struct {
	ErrorCode    protocol.ByteCount // carries a qerr.ApplicationErrorCode value
	ReasonPhrase string
}

func (f *ApplicationCloseFrame) Length() protocol.ByteCount {
	return protocol.ByteCount(4 + len(f.ReasonPhrase))
}
func (f *ApplicationCloseFrame) IsAckEliciting() bool { return false }

// AckFrame is the connection core's view of an ACK: it is produced by an
// external ACK-creator collaborator (out of scope per spec.md) and is
// only modeled here so the packetizer can size and order it (spec.md §4.3
// step 8).
type AckFrame struct {
	LargestAcked protocol.PacketNumber
	AckRanges    int // number of ranges, for size estimation only
}

func (f *AckFrame) Length() protocol.ByteCount {
	return protocol.ByteCount(8 + 4*f.AckRanges)
}
func (f *AckFrame) IsAckEliciting() bool { return false }

// StreamFrame is the connection core's view of a STREAM frame, produced
// by the stream manager (out of scope). Only Offset/Length/Fin are
// needed here: to update the remote flow controller (spec.md §4.3 step
// 7) and to size the packet.
type StreamFrame struct {
	StreamID   uint64
	Offset     protocol.ByteCount
	DataLength protocol.ByteCount
	Fin        bool
}

func (f *StreamFrame) Length() protocol.ByteCount {
	return protocol.MaxStreamFrameOverhead + f.DataLength
}
func (f *StreamFrame) IsAckEliciting() bool { return true }

// CryptoFrame is the connection core's view of a CRYPTO frame, produced
// by the handshake handler (out of scope).
type CryptoFrame struct {
	Offset     protocol.ByteCount
	DataLength protocol.ByteCount
}

func (f *CryptoFrame) Length() protocol.ByteCount { return 8 + f.DataLength }
func (f *CryptoFrame) IsAckEliciting() bool        { return true }

// PathChallengeFrame/PathResponseFrame are produced by the path validator
// (out of scope) and are probing frames (spec.md §4.6).
type PathChallengeFrame struct{ Data [8]byte }

func (f *PathChallengeFrame) Length() protocol.ByteCount { return 9 }
func (f *PathChallengeFrame) IsAckEliciting() bool        { return true }
func (f *PathChallengeFrame) IsProbingFrame() bool         { return true }

type PathResponseFrame struct{ Data [8]byte }

func (f *PathResponseFrame) Length() protocol.ByteCount { return 9 }
func (f *PathResponseFrame) IsAckEliciting() bool        { return true }
func (f *PathResponseFrame) IsProbingFrame() bool         { return true }

// RetransmittedFrame wraps any previously-sent frame that the loss
// replay queue (out of scope) is re-emitting (spec.md §4.3 step 4).
type RetransmittedFrame struct {
	Frame
}
