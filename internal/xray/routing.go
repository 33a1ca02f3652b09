package xray

import (
	"xrayshim/internal/policy"
)

const (
	tagDirect = "direct"
	tagBlock  = "block"
)

// buildRules produces the ordered rule list; the engine takes the first match.
// Exactly one of the geolocation catch-all and the port catch-all is emitted.
// Direct domains are held by the policy but never become a rule.
func buildRules(proxyTag string, st policy.State) []RoutingRule {
	var rules []RoutingRule

	if len(st.ProxyDomains) > 0 {
		rules = append(rules, domainRule(st.ProxyDomains, proxyTag))
	}
	if len(st.BlockDomains) > 0 {
		rules = append(rules, domainRule(st.BlockDomains, tagBlock))
	}

	if st.GlobalGeositeEnabled {
		rules = append(rules,
			domainRule([]string{"geosite:category-ads-all"}, tagBlock),
			domainRule([]string{"geosite:cn"}, tagDirect),
		)
	}
	if st.GlobalGeoipEnabled {
		rules = append(rules, RoutingRule{
			Type:        "field",
			IP:          []string{"geoip:private", "geoip:cn"},
			OutboundTag: tagDirect,
		})
	}

	if st.GeoRulesEnabled() {
		rules = append(rules, domainRule([]string{"geosite:geolocation-!cn"}, proxyTag))
	} else {
		rules = append(rules, RoutingRule{
			Type:        "field",
			OutboundTag: proxyTag,
			Port:        "0-65535",
		})
	}

	return rules
}

func domainRule(domains []string, tag string) RoutingRule {
	return RoutingRule{
		Type:        "field",
		Domain:      append([]string(nil), domains...),
		OutboundTag: tag,
	}
}

func routingSection(proxyTag string, st policy.State) RoutingSection {
	return RoutingSection{
		DomainStrategy: "AsIs",
		Rules:          buildRules(proxyTag, st),
	}
}

func statsPolicySection() PolicySection {
	return PolicySection{
		Levels: map[string]LevelPolicy{
			"0": {StatsUserUplink: true, StatsUserDownlink: true},
		},
		System: SystemPolicy{
			StatsInboundUplink:    true,
			StatsInboundDownlink:  true,
			StatsOutboundUplink:   true,
			StatsOutboundDownlink: true,
		},
	}
}
