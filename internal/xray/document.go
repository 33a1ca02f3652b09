package xray

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
)

// Top-level section names of a compiled document.
const (
	SectionLog       = "log"
	SectionRouting   = "routing"
	SectionStats     = "stats"
	SectionPolicy    = "policy"
	SectionInbounds  = "inbounds"
	SectionOutbounds = "outbounds"
	SectionDNS       = "dns"
	SectionRemark    = "remark"
)

// Document is an engine configuration: named sections in insertion order.
// Section values are the typed structs below; a nil *string marshals as null.
type Document struct {
	sections []section
}

type section struct {
	name  string
	value any
}

// Set adds a section or replaces the value of an existing one in place.
func (d *Document) Set(name string, value any) {
	for i := range d.sections {
		if d.sections[i].name == name {
			d.sections[i].value = value
			return
		}
	}
	d.sections = append(d.sections, section{name: name, value: value})
}

func (d *Document) Get(name string) (any, bool) {
	for _, s := range d.sections {
		if s.name == name {
			return s.value, true
		}
	}
	return nil, false
}

func (d *Document) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Keys lists section names in document order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.sections))
	for i, s := range d.sections {
		keys[i] = s.name
	}
	return keys
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d.sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(s.name)
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(s.value)
		if err != nil {
			return nil, fmt.Errorf("marshal section %q: %w", s.name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Bytes renders the document as indented JSON, the form handed to the engine.
func (d *Document) Bytes() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// --- log ---

// LogSection is the vless form of the log section.
type LogSection struct {
	LogLevel string `json:"logLevel"`
}

// VMessLogSection is the vmess form; the engine reads the key case-insensitively.
type VMessLogSection struct {
	LogLevel string `json:"loglevel"`
}

// --- routing ---

type RoutingSection struct {
	DomainStrategy string        `json:"domainStrategy"`
	Rules          []RoutingRule `json:"rules"`
}

type RoutingRule struct {
	Type        string   `json:"type"`
	Domain      []string `json:"domain,omitempty"`
	IP          []string `json:"ip,omitempty"`
	OutboundTag string   `json:"outboundTag"`
	Port        string   `json:"port,omitempty"`
}

// --- stats / policy ---

type StatsSection struct{}

type PolicySection struct {
	Levels map[string]LevelPolicy `json:"levels"`
	System SystemPolicy           `json:"system"`
}

type LevelPolicy struct {
	StatsUserUplink   bool `json:"statsUserUplink"`
	StatsUserDownlink bool `json:"statsUserDownlink"`
}

type SystemPolicy struct {
	StatsInboundUplink    bool `json:"statsInboundUplink"`
	StatsInboundDownlink  bool `json:"statsInboundDownlink"`
	StatsOutboundUplink   bool `json:"statsOutboundUplink"`
	StatsOutboundDownlink bool `json:"statsOutboundDownlink"`
}

// --- inbounds ---

type Inbound struct {
	Listen   string           `json:"listen"`
	Port     int              `json:"port"`
	Protocol string           `json:"protocol"`
	Settings *InboundSettings `json:"settings,omitempty"`
	Tag      string           `json:"tag,omitempty"`
}

type InboundSettings struct {
	Timeout int `json:"timeout"`
}

// --- outbounds ---

type Outbound struct {
	Tag            string          `json:"tag"`
	Protocol       string          `json:"protocol"`
	Settings       any             `json:"settings"`
	StreamSettings *StreamSettings `json:"streamSettings,omitempty"`
	Mux            *MuxSettings    `json:"mux,omitempty"`
}

type MuxSettings struct {
	Enabled     bool `json:"enabled"`
	Concurrency int  `json:"concurrency"`
}

type VnextSettings struct {
	Vnext []Vnext `json:"vnext"`
}

type Vnext struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Users   []any  `json:"users"`
}

type VLESSUser struct {
	Encryption string `json:"encryption"`
	ID         string `json:"id"`
	Flow       string `json:"flow"`
	Level      *int   `json:"level,omitempty"`
}

type VMessUser struct {
	Encryption string `json:"encryption"`
	Security   string `json:"security"`
	AlterID    int    `json:"alterId"`
	ID         string `json:"id"`
	Flow       string `json:"flow"`
	Level      int    `json:"level"`
}

type FreedomSettings struct{}

type BlackholeSettings struct {
	Response HeaderType `json:"response"`
}

type HeaderType struct {
	Type string `json:"type"`
}

// --- streamSettings ---

type StreamSettings struct {
	Security        string           `json:"security"`
	Network         string           `json:"network"`
	TCPSettings     *TCPSettings     `json:"tcpSettings,omitempty"`
	WSSettings      *WSSettings      `json:"wsSettings,omitempty"`
	TLSSettings     *TLSSettings     `json:"tlsSettings,omitempty"`
	QUICSettings    *QUICSettings    `json:"quicSettings,omitempty"`
	KCPSettings     *KCPSettings     `json:"kcpSettings,omitempty"`
	RealitySettings *RealitySettings `json:"realitySettings,omitempty"`
}

type TCPSettings struct {
	Header HeaderType `json:"header"`
}

type WSSettings struct {
	Headers map[string]string `json:"headers"`
	Path    string            `json:"path"`
}

type TLSSettings struct {
	AllowInsecure bool   `json:"allowInsecure"`
	ServerName    string `json:"serverName"`
}

type QUICSettings struct {
	Header   HeaderType `json:"header"`
	Key      string     `json:"key"`
	Security string     `json:"security"`
}

type KCPSettings struct {
	Congestion       bool       `json:"congestion"`
	DownlinkCapacity int        `json:"downlinkCapacity"`
	Header           HeaderType `json:"header"`
	MTU              int        `json:"mtu"`
	ReadBufferSize   int        `json:"readBufferSize"`
	Seed             string     `json:"seed"`
	TTI              int        `json:"tti"`
	UplinkCapacity   int        `json:"uplinkCapacity"`
	WriteBufferSize  int        `json:"writeBufferSize"`
}

// RealitySettings always carries every key; absent link fields become null.
type RealitySettings struct {
	Fingerprint *string `json:"fingerprint"`
	PublicKey   *string `json:"publicKey"`
	ServerName  *string `json:"serverName"`
	ShortID     *string `json:"shortId"`
	SpiderX     string  `json:"spiderX"`
}

// --- dns ---

type DNSSection struct {
	Hosts   map[string]string `json:"hosts,omitempty"`
	Servers []string          `json:"servers"`
}

// LocalProxy is a local inbound a client can send traffic through.
type LocalProxy struct {
	Protocol string
	Address  string
}

// URL renders the inbound as a proxy URL (socks5:// or http://).
func (p LocalProxy) URL() string {
	if p.Protocol == "socks" {
		return "socks5://" + p.Address
	}
	return "http://" + p.Address
}

// LocalProxy picks the inbound to test through, preferring socks.
func (d *Document) LocalProxy() (LocalProxy, bool) {
	v, ok := d.Get(SectionInbounds)
	if !ok {
		return LocalProxy{}, false
	}
	inbounds, ok := v.([]Inbound)
	if !ok || len(inbounds) == 0 {
		return LocalProxy{}, false
	}

	chosen := inbounds[0]
	for _, in := range inbounds {
		if in.Protocol == "socks" {
			chosen = in
			break
		}
	}
	return LocalProxy{
		Protocol: chosen.Protocol,
		Address:  net.JoinHostPort(chosen.Listen, strconv.Itoa(chosen.Port)),
	}, true
}
