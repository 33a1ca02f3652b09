package xray

import (
	"xrayshim/internal/xray/parser"
)

// Fixed mKCP tuning applied whenever kcpSettings are emitted.
const (
	kcpMTU              = 1350
	kcpTTI              = 50
	kcpUplinkCapacity   = 12
	kcpDownlinkCapacity = 100
	kcpBufferSize       = 1
)

// buildStreamSettings resolves the transport sub-document. A transport whose
// parameters are incomplete falls back to the bare {security, network} pair.
func buildStreamSettings(l *parser.Link) *StreamSettings {
	base := &StreamSettings{
		Security: l.Security,
		Network:  l.Network,
	}
	if l.Protocol == parser.VMess {
		base.TCPSettings = &TCPSettings{Header: HeaderType{Type: "none"}}
	}

	switch l.Network {
	case "ws":
		if l.WSPath == nil || l.WSHost == nil {
			return base
		}
		ss := &StreamSettings{
			Security: l.Security,
			Network:  l.Network,
			WSSettings: &WSSettings{
				Headers: map[string]string{"Host": *l.WSHost},
				Path:    *l.WSPath,
			},
		}
		if l.Protocol == parser.VMess {
			ss.TLSSettings = &TLSSettings{AllowInsecure: false, ServerName: *l.WSHost}
		}
		return ss

	case "quic":
		if l.QUICKey == nil || l.QUICSecurity == nil || l.QUICHeaderType == nil {
			return base
		}
		return &StreamSettings{
			Security: l.Security,
			Network:  l.Network,
			QUICSettings: &QUICSettings{
				Header:   HeaderType{Type: *l.QUICHeaderType},
				Key:      *l.QUICKey,
				Security: *l.QUICSecurity,
			},
		}

	case "kcp":
		if l.KCPSeed == nil {
			return base
		}
		return &StreamSettings{
			Security: l.Security,
			Network:  l.Network,
			KCPSettings: &KCPSettings{
				Congestion:       false,
				DownlinkCapacity: kcpDownlinkCapacity,
				Header:           HeaderType{Type: "none"},
				MTU:              kcpMTU,
				ReadBufferSize:   kcpBufferSize,
				Seed:             *l.KCPSeed,
				TTI:              kcpTTI,
				UplinkCapacity:   kcpUplinkCapacity,
				WriteBufferSize:  kcpBufferSize,
			},
		}

	case "tcp":
		// REALITY is emitted even when none of its fields were supplied.
		if l.Protocol == parser.VLESS && l.Security == "reality" {
			return &StreamSettings{
				Security: l.Security,
				Network:  l.Network,
				RealitySettings: &RealitySettings{
					Fingerprint: l.Fingerprint,
					PublicKey:   l.PublicKey,
					ServerName:  l.ServerName,
					ShortID:     l.ShortID,
					SpiderX:     "",
				},
			}
		}
	}

	return base
}
