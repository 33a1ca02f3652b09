package xray

import (
	"testing"

	"xrayshim/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_VLESSWebSocket(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=ws&security=tls&path=/ws&host=cdn.example.com#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	require.NotNil(t, ss.WSSettings)
	assert.Equal(t, "/ws", ss.WSSettings.Path)
	assert.Equal(t, map[string]string{"Host": "cdn.example.com"}, ss.WSSettings.Headers)
	assert.Nil(t, ss.TLSSettings)
	assert.Nil(t, ss.TCPSettings)
}

func TestStream_WebSocketMissingHostDegrades(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=ws&path=/ws#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	assert.Equal(t, &StreamSettings{Security: "none", Network: "ws"}, ss)

	proxy := decoded(t, Assemble(l, policy.Default()))["outbounds"].([]any)[0].(map[string]any)
	assert.NotContains(t, proxy["streamSettings"], "wsSettings")
}

func TestStream_VMessWebSocketAddsTLS(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"a","port":"443","id":"u","net":"ws","path":"/ray","host":"cdn.example.com","tls":"tls"}`))
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	require.NotNil(t, ss.WSSettings)
	require.NotNil(t, ss.TLSSettings)
	assert.Equal(t, TLSSettings{AllowInsecure: false, ServerName: "cdn.example.com"}, *ss.TLSSettings)
	assert.Nil(t, ss.TCPSettings)
}

func TestStream_KCPConstants(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=kcp&seed=s3cret#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	require.NotNil(t, ss.KCPSettings)
	assert.Equal(t, KCPSettings{
		Congestion:       false,
		DownlinkCapacity: 100,
		Header:           HeaderType{Type: "none"},
		MTU:              1350,
		ReadBufferSize:   1,
		Seed:             "s3cret",
		TTI:              50,
		UplinkCapacity:   12,
		WriteBufferSize:  1,
	}, *ss.KCPSettings)
}

func TestStream_KCPWithoutSeedDegrades(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=kcp#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings
	assert.Nil(t, ss.KCPSettings)
	assert.Equal(t, "kcp", ss.Network)
}

func TestStream_QUIC(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=quic&key=k&quicSecurity=none&headerType=srtp#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	require.NotNil(t, ss.QUICSettings)
	assert.Equal(t, QUICSettings{Header: HeaderType{Type: "srtp"}, Key: "k", Security: "none"}, *ss.QUICSettings)

	l = mustParse(t, "vless://uuid@example.com:443?type=quic&key=k&quicSecurity=none#")
	ss = firstOutbound(t, Assemble(l, policy.Default())).StreamSettings
	assert.Nil(t, ss.QUICSettings)
}

// The vmess path/host keys mean different things per transport; net decides which one is emitted.
func TestStream_VMessOverloadFollowsNetwork(t *testing.T) {
	asKCP := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"kcp","path":"P","host":"H"}`))
	ss := firstOutbound(t, Assemble(asKCP, policy.Default())).StreamSettings
	require.NotNil(t, ss.KCPSettings)
	assert.Equal(t, "P", ss.KCPSettings.Seed)
	assert.Nil(t, ss.WSSettings)
	assert.Nil(t, ss.QUICSettings)

	asWS := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"ws","path":"P","host":"H"}`))
	ss = firstOutbound(t, Assemble(asWS, policy.Default())).StreamSettings
	require.NotNil(t, ss.WSSettings)
	assert.Equal(t, "P", ss.WSSettings.Path)
	assert.Nil(t, ss.KCPSettings)

	asQUIC := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"quic","path":"P","host":"H","type":"none"}`))
	ss = firstOutbound(t, Assemble(asQUIC, policy.Default())).StreamSettings
	require.NotNil(t, ss.QUICSettings)
	assert.Equal(t, QUICSettings{Header: HeaderType{Type: "none"}, Key: "P", Security: "H"}, *ss.QUICSettings)
	assert.Nil(t, ss.WSSettings)
}

func TestStream_VMessDegradedKeepsTCPHeader(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"ws","path":"/only-path"}`))
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings

	assert.Nil(t, ss.WSSettings)
	require.NotNil(t, ss.TCPSettings)
	assert.Equal(t, "none", ss.TCPSettings.Header.Type)
}

func TestStream_XTLSHasNoExtraSettings(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=tcp&security=xtls#")
	ss := firstOutbound(t, Assemble(l, policy.Default())).StreamSettings
	assert.Equal(t, &StreamSettings{Security: "xtls", Network: "tcp"}, ss)
}
