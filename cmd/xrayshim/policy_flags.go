package main

import (
	"xrayshim/internal/config"
	"xrayshim/internal/policy"

	"github.com/spf13/cobra"
)

// policyFlags override the config file's policy section for one invocation.
type policyFlags struct {
	logLevel      string
	httpPort      uint16
	global        bool
	directDomains []string
	proxyDomains  []string
	blockDomains  []string
}

func (f *policyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Engine log level (verbose, info, warning, error)")
	cmd.Flags().Uint16Var(&f.httpPort, "http-port", 0, "Local HTTP inbound port")
	cmd.Flags().BoolVar(&f.global, "global", false, "Route everything through the proxy (disables geo bypass rules)")
	cmd.Flags().StringSliceVar(&f.directDomains, "direct", nil, "Direct domain list (stored in the policy; emits no routing rule)")
	cmd.Flags().StringSliceVar(&f.proxyDomains, "proxy-domain", nil, "Domains always routed through the proxy")
	cmd.Flags().StringSliceVar(&f.blockDomains, "block", nil, "Domains blocked")
}

// builder returns a policy builder loaded from cfg and then the flags that were set.
func (f *policyFlags) builder(cmd *cobra.Command, cfg *config.Config) (*policy.Builder, error) {
	b := policy.NewBuilder()
	if err := cfg.ApplyPolicy(b); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level, err := policy.ParseLogLevel(f.logLevel)
		if err != nil {
			return nil, err
		}
		b.SetLogLevel(level)
	}
	if flags.Changed("http-port") {
		b.SetHTTPProxyPort(f.httpPort)
	}
	if flags.Changed("global") {
		b.SetGlobalProxyEnable(f.global)
	}
	if flags.Changed("direct") {
		b.SetDirectDomains(f.directDomains)
	}
	if flags.Changed("proxy-domain") {
		b.SetProxyDomains(f.proxyDomains)
	}
	if flags.Changed("block") {
		b.SetBlockDomains(f.blockDomains)
	}
	return b, nil
}
