package parser

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToURI converts a Link back into a share-link the decoders accept.
func (l *Link) ToURI() string {
	switch l.Protocol {
	case VMess:
		return l.toVMessURI()
	default:
		return l.toVLESSURI()
	}
}

func (l *Link) toVMessURI() string {
	v := map[string]any{
		"v":    "2",
		"add":  l.Address,
		"port": strconv.Itoa(l.Port),
		"id":   l.ID,
		"aid":  strconv.Itoa(l.AlterID),
		"net":  l.Network,
		"tls":  l.Security,
	}
	if l.Remark != nil {
		v["ps"] = *l.Remark
	}

	// path and host are shared between transports; pick the ones the network uses.
	switch l.Network {
	case "kcp":
		setIfPresent(v, "path", l.KCPSeed)
	case "quic":
		setIfPresent(v, "path", l.QUICKey)
		setIfPresent(v, "host", l.QUICSecurity)
		setIfPresent(v, "type", l.QUICHeaderType)
	default:
		setIfPresent(v, "path", l.WSPath)
		setIfPresent(v, "host", l.WSHost)
	}

	b, _ := json.Marshal(v)
	return "vmess://" + base64.StdEncoding.EncodeToString(b)
}

func (l *Link) toVLESSURI() string {
	params := []string{"type=" + l.Network}
	add := func(key string, value *string) {
		if value != nil {
			params = append(params, key+"="+*value)
		}
	}

	if l.Security != "" && l.Security != "none" {
		params = append(params, "security="+l.Security)
	}
	if l.Flow != "" {
		params = append(params, "flow="+l.Flow)
	}
	add("path", l.WSPath)
	add("host", l.WSHost)
	add("key", l.QUICKey)
	add("quicSecurity", l.QUICSecurity)
	add("headerType", l.QUICHeaderType)
	add("seed", l.KCPSeed)
	add("fp", l.Fingerprint)
	add("pbk", l.PublicKey)
	add("sni", l.ServerName)
	add("sid", l.ShortID)

	// The decoder reads the remark from the third "#" segment.
	fragment := "#"
	if l.Remark != nil {
		fragment = "##" + *l.Remark
	}

	return fmt.Sprintf("vless://%s@%s:%d?%s%s", l.ID, l.Address, l.Port, strings.Join(params, "&"), fragment)
}

func setIfPresent(m map[string]any, key string, value *string) {
	if value != nil {
		m[key] = *value
	}
}
