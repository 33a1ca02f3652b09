package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DecodeVMess decodes the base64 JSON body of a vmess:// link.
//
// "path" feeds the websocket path, the kcp seed and the quic key; "host" feeds the
// websocket host and the quic security. Which one applies is decided by "net" at
// assembly time, so one link can never describe two transports.
func DecodeVMess(body string) (*Link, error) {
	payload := DecodeBase64Lenient(body)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: vmess: empty or undecodable base64 payload", ErrMalformedURI)
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: vmess: invalid json: %v", ErrMalformedURI, err)
	}
	info, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: vmess: payload is not a json object", ErrMalformedURI)
	}

	address, hasAddress := stringField(info, "add")
	id, hasID := stringField(info, "id")
	network, hasNetwork := stringField(info, "net")
	port, hasPort := intField(info, "port")
	if !hasAddress || !hasPort || !hasID || !hasNetwork {
		return nil, fmt.Errorf("%w: vmess: add, port, id and net are required", ErrMalformedURI)
	}
	if port < 0 || port > MaxPort {
		return nil, fmt.Errorf("%w: vmess: port %d out of range", ErrMalformedURI, port)
	}

	alterID := 0
	if _, present := info["aid"]; present {
		aid, ok := intField(info, "aid")
		if !ok {
			return nil, fmt.Errorf("%w: vmess: invalid aid %v", ErrMalformedURI, info["aid"])
		}
		alterID = aid
	}

	security := "none"
	if _, present := info["tls"]; present {
		security, _ = stringField(info, "tls")
	}

	l := &Link{
		Protocol: VMess,
		Tag:      OutboundTag,
		Address:  address,
		Port:     port,
		ID:       id,
		AlterID:  alterID,
		Network:  network,
		Security: security,
	}

	if _, present := info["remark"]; present {
		l.Remark = optionalString(info, "remark")
	} else {
		l.Remark = optionalString(info, "ps")
	}

	path := optionalString(info, "path")
	host := optionalString(info, "host")
	l.WSPath = path
	l.WSHost = host
	l.KCPSeed = path
	l.QUICKey = path
	l.QUICSecurity = host
	l.QUICHeaderType = optionalString(info, "type")

	return l, nil
}

func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

func optionalString(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

// intField accepts both "443" and 443; many generators emit numbers.
func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
