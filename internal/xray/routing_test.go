package xray

import (
	"testing"

	"xrayshim/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countPortCatchAll(rs []RoutingRule) int {
	n := 0
	for _, r := range rs {
		if r.Port == "0-65535" {
			n++
		}
	}
	return n
}

func TestRules_GeoEnabledEndsWithGeolocation(t *testing.T) {
	b := policy.NewBuilder()
	b.SetGlobalProxyEnable(false)

	l := mustParse(t, "vless://uuid@example.com:443?type=tcp#")
	rs := rules(t, Assemble(l, b.Snapshot()))

	require.NotEmpty(t, rs)
	last := rs[len(rs)-1]
	assert.Equal(t, []string{"geosite:geolocation-!cn"}, last.Domain)
	assert.Equal(t, "proxy", last.OutboundTag)
	assert.Zero(t, countPortCatchAll(rs))
}

func TestRules_GeoDisabledEndsWithPortCatchAll(t *testing.T) {
	l := mustParse(t, vmessURI(`{"add":"a","port":"1","id":"u","net":"tcp"}`))
	rs := rules(t, Assemble(l, policy.Default()))

	require.Len(t, rs, 1)
	assert.Equal(t, RoutingRule{Type: "field", OutboundTag: "proxy", Port: "0-65535"}, rs[len(rs)-1])
	assert.Equal(t, 1, countPortCatchAll(rs))
}

func TestRules_Order(t *testing.T) {
	st := policy.Default()
	st.ProxyDomains = []string{"p.example"}
	st.BlockDomains = []string{"b.example"}
	st.DirectDomains = []string{"d.example"}
	st.GlobalGeositeEnabled = true
	st.GlobalGeoipEnabled = true

	rs := buildRules("proxy", st)

	assert.Equal(t, []RoutingRule{
		{Type: "field", Domain: []string{"p.example"}, OutboundTag: "proxy"},
		{Type: "field", Domain: []string{"b.example"}, OutboundTag: "block"},
		{Type: "field", Domain: []string{"geosite:category-ads-all"}, OutboundTag: "block"},
		{Type: "field", Domain: []string{"geosite:cn"}, OutboundTag: "direct"},
		{Type: "field", IP: []string{"geoip:private", "geoip:cn"}, OutboundTag: "direct"},
		{Type: "field", Domain: []string{"geosite:geolocation-!cn"}, OutboundTag: "proxy"},
	}, rs)
}

func TestRules_SingleGeoFlag(t *testing.T) {
	st := policy.Default()
	st.GlobalGeoipEnabled = true

	rs := buildRules("proxy", st)
	require.Len(t, rs, 2)
	assert.Equal(t, []string{"geoip:private", "geoip:cn"}, rs[0].IP)
	assert.Equal(t, []string{"geosite:geolocation-!cn"}, rs[1].Domain)
	assert.Zero(t, countPortCatchAll(rs))
}

func TestRules_DoNotAliasPolicyLists(t *testing.T) {
	st := policy.Default()
	st.BlockDomains = []string{"b.example"}

	rs := buildRules("proxy", st)
	rs[0].Domain[0] = "changed"
	assert.Equal(t, "b.example", st.BlockDomains[0])
}

func TestRules_DirectDomainsEmitNoRule(t *testing.T) {
	st := policy.Default()
	st.DirectDomains = []string{"d.example"}

	l := mustParse(t, "vless://uuid@example.com:443?type=tcp#")
	rs := rules(t, Assemble(l, st))
	assert.Equal(t, []RoutingRule{{Type: "field", OutboundTag: "proxy", Port: "0-65535"}}, rs)

	for _, r := range buildRules("proxy", st) {
		assert.NotContains(t, r.Domain, "d.example")
	}
}
