package quic

import (
	"crypto/tls"
	mrand "math/rand"
	"time"

	"github.com/qcore/quicendpoint/internal/protocol"
	"github.com/qcore/quicendpoint/internal/utils"
	"github.com/qcore/quicendpoint/logging"
)

// Config is the single configuration bag spec.md §6 describes: every
// connection reads it once at construction and never again. Grounded on
// the teacher's config.go/populateConfig defaulting pattern.
type Config struct {
	ServerTLSConfig *tls.Config
	ClientTLSConfig *tls.Config

	// InboundInactivityTimeout and OutboundInactivityTimeout seed the
	// idle timer on entry to pre_handshake (spec.md §4.1), separately
	// for inbound and outbound connections.
	InboundInactivityTimeout  time.Duration
	OutboundInactivityTimeout time.Duration

	// ServerID feeds stateless-reset token derivation for locally-minted
	// connection IDs (SPEC_FULL.md C.3).
	ServerID string

	// StatelessRetry toggles the server's use of the Retry mechanism
	// before committing connection state. RETRY is receive-only in this
	// core (spec.md §9 Open Question); this flag only gates whether the
	// accept path issues one, which lives outside this module.
	StatelessRetry bool

	// ExerciseVersionNegotiation and ExerciseMigration enable the
	// self-initiated probe exercises spec.md §4.5 and §4.6 describe.
	ExerciseVersionNegotiation bool
	ExerciseMigration          bool

	// InitialConnectionMaxData is the initial local flow-control limit
	// advertised before any transport parameters are exchanged.
	InitialConnectionMaxData protocol.ByteCount

	// PMTU is the path MTU used to size outgoing datagrams (spec.md §3).
	PMTU protocol.ByteCount

	// InboundMinPacketSizeFunc implements the policy decision spec.md §9
	// leaves open: the size floor for padding inbound protected packets
	// as traffic-analysis protection (SPEC_FULL.md C.4). Defaults to a
	// random value in [32, 96).
	InboundMinPacketSizeFunc func() int

	Tracer logging.ConnectionTracer
	Logger utils.Logger
}

// Clone returns a shallow copy of c, mirroring the teacher's Config.Clone.
func (c *Config) Clone() *Config {
	copy := *c
	return &copy
}

func defaultInboundMinPacketSize() int {
	return 32 + mrand.Intn(64)
}

func populateConfig(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	cfg := c.Clone()
	if cfg.InboundInactivityTimeout == 0 {
		cfg.InboundInactivityTimeout = protocol.DefaultIdleTimeout
	}
	if cfg.OutboundInactivityTimeout == 0 {
		cfg.OutboundInactivityTimeout = protocol.DefaultIdleTimeout
	}
	if cfg.InitialConnectionMaxData == 0 {
		cfg.InitialConnectionMaxData = 1 << 20
	}
	if cfg.PMTU == 0 {
		cfg.PMTU = 1452
	}
	if cfg.InboundMinPacketSizeFunc == nil {
		cfg.InboundMinPacketSizeFunc = defaultInboundMinPacketSize
	}
	if cfg.Tracer == nil {
		cfg.Tracer = logging.NullTracer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.DefaultLogger
	}
	return cfg
}

// maximumQUICPacketSize is PMTU minus the UDP and IP header overhead
// (spec.md §4.3). ipv6 selects between the 20-byte IPv4 and 40-byte IPv6
// header allowance.
func maximumQUICPacketSize(pmtu protocol.ByteCount, ipv6 bool) protocol.ByteCount {
	ipHeader := protocol.ByteCount(20)
	if ipv6 {
		ipHeader = 40
	}
	return pmtu - 8 - ipHeader
}

func maximumStreamFrameDataSize(maxPacketSize protocol.ByteCount) protocol.ByteCount {
	return maxPacketSize - protocol.MaxStreamFrameOverhead - protocol.MaxPacketOverhead
}
