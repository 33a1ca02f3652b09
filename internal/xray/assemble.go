package xray

import (
	"xrayshim/internal/policy"
	"xrayshim/internal/xray/parser"
)

const (
	localListen     = "127.0.0.1"
	httpInboundTag  = "httpinbound"
	httpTimeoutSecs = 60

	visionSocksPort = 10808
	visionHTTPPort  = 10809

	vmessMuxConcurrency = 8
	vmessUserLevel      = 8
)

// Assemble builds the engine document for a decoded link under the given policy.
// It is a pure function of its inputs and never fails.
func Assemble(l *parser.Link, st policy.State) *Document {
	if l.Protocol == parser.VMess {
		return assembleVMess(l, st)
	}
	return assembleVLESS(l, st)
}

func assembleVLESS(l *parser.Link, st policy.State) *Document {
	doc := &Document{}
	vision := l.IsVision()

	level := string(st.LogLevel)
	if vision {
		level = string(policy.LevelWarning)
	}
	doc.Set(SectionLog, LogSection{LogLevel: level})

	// Vision hands the connection straight to the engine: no routing, stats, policy or dns.
	if !vision {
		doc.Set(SectionRouting, routingSection(l.Tag, st))
		doc.Set(SectionStats, StatsSection{})
		doc.Set(SectionPolicy, statsPolicySection())
	}

	if vision {
		doc.Set(SectionInbounds, []Inbound{
			{Listen: localListen, Port: visionSocksPort, Protocol: "socks"},
			{Listen: localListen, Port: visionHTTPPort, Protocol: "http"},
		})
	} else {
		doc.Set(SectionInbounds, []Inbound{httpInbound(st)})
	}

	user := VLESSUser{
		Encryption: "none",
		ID:         l.ID,
		Flow:       l.Flow,
	}
	if !vision {
		zero := 0
		user.Level = &zero
	}

	outbounds := []Outbound{{
		Tag:      l.Tag,
		Protocol: "vless",
		Settings: VnextSettings{Vnext: []Vnext{{
			Address: l.Address,
			Port:    l.Port,
			Users:   []any{user},
		}}},
		StreamSettings: buildStreamSettings(l),
	}}
	if !vision {
		outbounds = append(outbounds, auxiliaryOutbounds()...)
	}
	doc.Set(SectionOutbounds, outbounds)

	if !vision {
		doc.Set(SectionDNS, DNSSection{Servers: []string{}})
	}

	doc.Set(SectionRemark, l.Remark)
	return doc
}

func assembleVMess(l *parser.Link, st policy.State) *Document {
	doc := &Document{}

	level := string(st.LogLevel)
	if l.IsVision() {
		level = string(policy.LevelWarning)
	}
	doc.Set(SectionLog, VMessLogSection{LogLevel: level})
	doc.Set(SectionRouting, routingSection(l.Tag, st))
	doc.Set(SectionInbounds, []Inbound{httpInbound(st)})

	outbounds := []Outbound{{
		Tag:      l.Tag,
		Protocol: "vmess",
		Settings: VnextSettings{Vnext: []Vnext{{
			Address: l.Address,
			Port:    l.Port,
			Users: []any{VMessUser{
				Encryption: "",
				Security:   "auto",
				AlterID:    l.AlterID,
				ID:         l.ID,
				Flow:       "",
				Level:      vmessUserLevel,
			}},
		}}},
		StreamSettings: buildStreamSettings(l),
		Mux:            &MuxSettings{Enabled: false, Concurrency: vmessMuxConcurrency},
	}}
	outbounds = append(outbounds, auxiliaryOutbounds()...)
	doc.Set(SectionOutbounds, outbounds)

	doc.Set(SectionDNS, DNSSection{
		Hosts:   map[string]string{"domain:googleapis.cn": "googleapis.com"},
		Servers: []string{"1.1.1.1"},
	})

	if l.Remark != nil {
		doc.Set(SectionRemark, *l.Remark)
	}
	return doc
}

func httpInbound(st policy.State) Inbound {
	return Inbound{
		Listen:   localListen,
		Port:     int(st.HTTPProxyPort),
		Protocol: "http",
		Settings: &InboundSettings{Timeout: httpTimeoutSecs},
		Tag:      httpInboundTag,
	}
}

func auxiliaryOutbounds() []Outbound {
	return []Outbound{
		{Tag: tagDirect, Protocol: "freedom", Settings: FreedomSettings{}},
		{Tag: tagBlock, Protocol: "blackhole", Settings: BlackholeSettings{Response: HeaderType{Type: "http"}}},
	}
}
