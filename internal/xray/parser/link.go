package parser

// Protocol is the share-link variant selected by the scheme prefix.
type Protocol int

const (
	VMess Protocol = iota
	VLESS
)

func (p Protocol) String() string {
	switch p {
	case VMess:
		return "vmess"
	case VLESS:
		return "vless"
	default:
		return "unknown"
	}
}

// MaxPort is the largest port a link may name.
const MaxPort = 65535

// OutboundTag is the tag every decoded link's proxy outbound carries.
const OutboundTag = "proxy"

// FlowVision is the XTLS flow that switches the assembler to its minimal document.
const FlowVision = "xtls-rprx-vision"

// Link is the flat field set produced by a decoder.
// Optional transport parameters are nil when the link did not carry them.
type Link struct {
	Protocol Protocol
	Tag      string
	Remark   *string

	// Connection
	Address string
	Port    int
	ID      string // vless uuid / vmess user id
	AlterID int    // vmess only

	// Stream
	Network  string // tcp, ws, kcp, quic
	Security string // none, tls, reality, xtls
	Flow     string

	// WebSocket
	WSPath *string
	WSHost *string

	// QUIC
	QUICKey        *string
	QUICSecurity   *string
	QUICHeaderType *string

	// mKCP
	KCPSeed *string

	// REALITY
	Fingerprint *string
	PublicKey   *string
	ServerName  *string
	ShortID     *string
}

// IsVision reports whether the link asks for the xtls-rprx-vision flow.
func (l *Link) IsVision() bool {
	return l.Flow == FlowVision
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
