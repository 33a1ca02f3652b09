package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeVLESS decodes the body of a vless://uuid@host:port?params#...#remark link.
//
// The body is split strictly left to right on "@", "?", ":" and "#". Query
// values are taken verbatim (no percent-decoding) and unknown keys are ignored.
func DecodeVLESS(body string) (*Link, error) {
	info := strings.Split(body, "@")
	if len(info) < 2 {
		return nil, fmt.Errorf("%w: vless: missing \"@\"", ErrMalformedURI)
	}
	uuid := info[0]

	config := strings.Split(info[1], "?")
	if len(config) < 2 {
		return nil, fmt.Errorf("%w: vless: missing \"?\"", ErrMalformedURI)
	}

	hostPort := strings.Split(config[0], ":")
	if len(hostPort) < 2 {
		return nil, fmt.Errorf("%w: vless: missing port", ErrMalformedURI)
	}
	port, err := strconv.Atoi(hostPort[1])
	if err != nil || port < 0 || port > MaxPort {
		return nil, fmt.Errorf("%w: vless: invalid port %q", ErrMalformedURI, hostPort[1])
	}

	suffix := strings.Split(config[1], "#")
	if len(suffix) < 2 {
		return nil, fmt.Errorf("%w: vless: missing \"#\"", ErrMalformedURI)
	}

	l := &Link{
		Protocol: VLESS,
		Tag:      OutboundTag,
		Address:  hostPort[0],
		Port:     port,
		ID:       uuid,
		Security: "none",
	}
	// The remark is the third "#" segment.
	if len(suffix) > 2 {
		l.Remark = strPtr(suffix[2])
	}

	var network *string
	for _, param := range strings.Split(suffix[0], "&") {
		items := strings.Split(param, "=")
		if len(items) < 2 {
			continue
		}
		value := items[1]

		switch items[0] {
		case "type":
			network = strPtr(value)
		case "security":
			l.Security = value
		case "flow":
			l.Flow = value
		case "key":
			l.QUICKey = strPtr(value)
		case "quicSecurity":
			l.QUICSecurity = strPtr(value)
		case "headerType":
			l.QUICHeaderType = strPtr(value)
		case "seed":
			l.KCPSeed = strPtr(value)
		case "path":
			l.WSPath = strPtr(value)
		case "host":
			l.WSHost = strPtr(value)
		case "fp":
			l.Fingerprint = strPtr(value)
		case "pbk":
			l.PublicKey = strPtr(value)
		case "sni":
			l.ServerName = strPtr(value)
		case "sid":
			l.ShortID = strPtr(value)
		}
	}

	if network == nil {
		return nil, fmt.Errorf("%w: vless: missing \"type\" parameter", ErrMalformedURI)
	}
	l.Network = *network

	return l, nil
}
