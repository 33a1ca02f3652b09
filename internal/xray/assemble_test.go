package xray

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"xrayshim/internal/policy"
	"xrayshim/internal/xray/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vmessURI(payload string) string {
	return "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))
}

func mustParse(t *testing.T, uri string) *parser.Link {
	t.Helper()
	l, err := parser.Parse(uri)
	require.NoError(t, err)
	return l
}

// decoded renders doc and reads it back as generic JSON.
func decoded(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func firstOutbound(t *testing.T, doc *Document) Outbound {
	t.Helper()
	v, ok := doc.Get(SectionOutbounds)
	require.True(t, ok)
	outbounds := v.([]Outbound)
	require.NotEmpty(t, outbounds)
	return outbounds[0]
}

func rules(t *testing.T, doc *Document) []RoutingRule {
	t.Helper()
	v, ok := doc.Get(SectionRouting)
	require.True(t, ok)
	return v.(RoutingSection).Rules
}

func TestAssemble_VLESSDefault(t *testing.T) {
	l := mustParse(t, "vless://uuid@198.51.100.4:443?type=tcp&security=tls#")
	doc := Assemble(l, policy.Default())

	assert.Equal(t, []string{"log", "routing", "stats", "policy", "inbounds", "outbounds", "dns", "remark"}, doc.Keys())

	out := decoded(t, doc)
	assert.Equal(t, map[string]any{"logLevel": "info"}, out["log"])
	assert.Nil(t, out["remark"])
	assert.Equal(t, map[string]any{"servers": []any{}}, out["dns"])

	inbounds := out["inbounds"].([]any)
	require.Len(t, inbounds, 1)
	assert.Equal(t, map[string]any{
		"listen":   "127.0.0.1",
		"port":     float64(1082),
		"protocol": "http",
		"settings": map[string]any{"timeout": float64(60)},
		"tag":      "httpinbound",
	}, inbounds[0])

	outbounds := out["outbounds"].([]any)
	require.Len(t, outbounds, 3)
	proxy := outbounds[0].(map[string]any)
	assert.Equal(t, "proxy", proxy["tag"])
	assert.Equal(t, "vless", proxy["protocol"])
	assert.NotContains(t, proxy, "mux")

	vnext := proxy["settings"].(map[string]any)["vnext"].([]any)[0].(map[string]any)
	assert.Equal(t, "198.51.100.4", vnext["address"])
	assert.Equal(t, float64(443), vnext["port"])
	assert.Equal(t, []any{map[string]any{
		"encryption": "none",
		"id":         "uuid",
		"flow":       "",
		"level":      float64(0),
	}}, vnext["users"])

	assert.Equal(t, map[string]any{"security": "tls", "network": "tcp"}, proxy["streamSettings"])

	direct := outbounds[1].(map[string]any)
	assert.Equal(t, "direct", direct["tag"])
	assert.Equal(t, "freedom", direct["protocol"])
	block := outbounds[2].(map[string]any)
	assert.Equal(t, "block", block["tag"])
	assert.Equal(t, "blackhole", block["protocol"])
	assert.Equal(t, map[string]any{"response": map[string]any{"type": "http"}}, block["settings"])
}

func TestAssemble_VLESSVision(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=tcp&security=reality&flow=xtls-rprx-vision&pbk=KEY##Edge")
	st := policy.Default()
	st.LogLevel = policy.LevelVerbose
	st.ProxyDomains = []string{"example.org"}
	doc := Assemble(l, st)

	for _, key := range []string{SectionRouting, SectionStats, SectionPolicy, SectionDNS} {
		assert.False(t, doc.Has(key), "vision document must not contain %q", key)
	}
	assert.Equal(t, []string{"log", "inbounds", "outbounds", "remark"}, doc.Keys())

	v, _ := doc.Get(SectionLog)
	assert.Equal(t, LogSection{LogLevel: "warning"}, v)

	v, _ = doc.Get(SectionInbounds)
	inbounds := v.([]Inbound)
	require.Len(t, inbounds, 2)
	assert.Equal(t, 10808, inbounds[0].Port)
	assert.Equal(t, "socks", inbounds[0].Protocol)
	assert.Equal(t, 10809, inbounds[1].Port)
	assert.Equal(t, "http", inbounds[1].Protocol)
	assert.Nil(t, inbounds[0].Settings)
	assert.Nil(t, inbounds[1].Settings)

	v, _ = doc.Get(SectionOutbounds)
	require.Len(t, v.([]Outbound), 1)

	out := decoded(t, doc)
	assert.Equal(t, "Edge", out["remark"])
	proxy := out["outbounds"].([]any)[0].(map[string]any)
	user := proxy["settings"].(map[string]any)["vnext"].([]any)[0].(map[string]any)["users"].([]any)[0].(map[string]any)
	assert.NotContains(t, user, "level")
	assert.Equal(t, parser.FlowVision, user["flow"])
}

func TestAssemble_RealityKeepsNullFields(t *testing.T) {
	l := mustParse(t, "vless://uuid@example.com:443?type=tcp&security=reality&sni=www.example.com#")
	out := decoded(t, Assemble(l, policy.Default()))

	stream := out["outbounds"].([]any)[0].(map[string]any)["streamSettings"].(map[string]any)
	assert.Equal(t, map[string]any{
		"fingerprint": nil,
		"publicKey":   nil,
		"serverName":  "www.example.com",
		"shortId":     nil,
		"spiderX":     "",
	}, stream["realitySettings"])
}

func TestAssemble_VMess(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"vm.example.com","port":"8443","id":"vm-uuid","aid":"1","net":"tcp","tls":"none","ps":"VM"}`))
	doc := Assemble(l, policy.Default())

	assert.Equal(t, []string{"log", "routing", "inbounds", "outbounds", "dns", "remark"}, doc.Keys())

	out := decoded(t, doc)
	assert.Equal(t, map[string]any{"loglevel": "info"}, out["log"])
	assert.Equal(t, "VM", out["remark"])
	assert.Equal(t, map[string]any{
		"hosts":   map[string]any{"domain:googleapis.cn": "googleapis.com"},
		"servers": []any{"1.1.1.1"},
	}, out["dns"])

	proxy := out["outbounds"].([]any)[0].(map[string]any)
	assert.Equal(t, "vmess", proxy["protocol"])
	assert.Equal(t, map[string]any{"enabled": false, "concurrency": float64(8)}, proxy["mux"])

	vnext := proxy["settings"].(map[string]any)["vnext"].([]any)[0].(map[string]any)
	assert.Equal(t, "vm.example.com", vnext["address"])
	assert.Equal(t, float64(8443), vnext["port"])
	assert.Equal(t, []any{map[string]any{
		"encryption": "",
		"security":   "auto",
		"alterId":    float64(1),
		"id":         "vm-uuid",
		"flow":       "",
		"level":      float64(8),
	}}, vnext["users"])

	assert.Equal(t, map[string]any{
		"security":    "none",
		"network":     "tcp",
		"tcpSettings": map[string]any{"header": map[string]any{"type": "none"}},
	}, proxy["streamSettings"])
}

func TestAssemble_VMessWithoutRemark(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"tcp"}`))
	doc := Assemble(l, policy.Default())
	assert.False(t, doc.Has(SectionRemark))
	assert.NotContains(t, decoded(t, doc), "remark")
}

func TestAssemble_Idempotent(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"ws","path":"/p","host":"h","ps":"x"}`))
	st := policy.Default()
	st.GlobalGeoipEnabled = true
	st.GlobalGeositeEnabled = true
	st.BlockDomains = []string{"ads.example"}

	first, err := Assemble(l, st).Bytes()
	require.NoError(t, err)
	second, err := Assemble(l, st).Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
