package tunnel

import (
	"strconv"
)

// NetworkSettings is what the platform layer applies to the tunnel interface.
type NetworkSettings struct {
	TunnelRemoteAddress string        `json:"tunnelRemoteAddress"`
	MTU                 int           `json:"mtu"`
	DNSServers          []string      `json:"dnsServers"`
	IPv4Address         string        `json:"ipv4Address"`
	IPv4SubnetMask      string        `json:"ipv4SubnetMask"`
	Proxy               ProxySettings `json:"proxy"`
}

type ProxySettings struct {
	HTTPEnabled            bool     `json:"httpEnabled"`
	HTTPSEnabled           bool     `json:"httpsEnabled"`
	Server                 string   `json:"server"`
	ExcludeSimpleHostnames bool     `json:"excludeSimpleHostnames"`
	ExceptionList          []string `json:"exceptionList"`
}

var proxyExceptions = []string{
	"captive.apple.com",
	"10.0.0.0/8",
	"localhost",
	"*.local",
	"172.16.0.0/12",
	"198.18.0.0/15",
	"114.114.114.114.dns",
	"192.168.0.0/16",
}

// NetworkSettings points the system HTTP(S) proxy at the local inbound.
func (p *Provider) NetworkSettings() NetworkSettings {
	port := p.policy.Snapshot().HTTPProxyPort
	return NetworkSettings{
		TunnelRemoteAddress: "254.1.1.1",
		MTU:                 4096,
		DNSServers:          []string{"114.114.114.114", "8.8.8.8"},
		IPv4Address:         "198.18.0.1",
		IPv4SubnetMask:      "255.255.255.0",
		Proxy: ProxySettings{
			HTTPEnabled:            true,
			HTTPSEnabled:           true,
			Server:                 "127.0.0.1:" + strconv.Itoa(int(port)),
			ExcludeSimpleHostnames: true,
			ExceptionList:          append([]string(nil), proxyExceptions...),
		},
	}
}
