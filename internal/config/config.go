package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"xrayshim/internal/policy"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Policy   PolicyConfig   `yaml:"policy"`
	Database DatabaseConfig `yaml:"database"`
	GeoIP    GeoIPConfig    `yaml:"geoip"`
	Tester   TesterConfig   `yaml:"tester"`
}

type PolicyConfig struct {
	LogLevel      string `yaml:"log_level"`
	HTTPProxyPort uint16 `yaml:"http_proxy_port"`

	// GlobalProxy is left untouched on the builder when unset.
	GlobalProxy   *bool    `yaml:"global_proxy"`
	DirectDomains []string `yaml:"direct_domains"`
	ProxyDomains  []string `yaml:"proxy_domains"`
	BlockDomains  []string `yaml:"block_domains"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type GeoIPConfig struct {
	ASNPath     string `yaml:"asn_path"`
	CountryPath string `yaml:"country_path"`
}

type TesterConfig struct {
	TargetURL string        `yaml:"target_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Policy.LogLevel = string(policy.LevelInfo)
	cfg.Policy.HTTPProxyPort = policy.DefaultHTTPProxyPort
	cfg.Database.Path = "xrayshim.db"
	cfg.GeoIP.ASNPath = "GeoLite2-ASN.mmdb"
	cfg.GeoIP.CountryPath = "GeoLite2-Country.mmdb"
	cfg.Tester.TargetURL = "https://www.gstatic.com/generate_204"
	cfg.Tester.Timeout = 8 * time.Second
	cfg.Tester.Retries = 2
	return &cfg
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if cfg.Tester.Retries < 0 {
		cfg.Tester.Retries = 0
	}
	if cfg.Tester.Timeout <= 0 {
		cfg.Tester.Timeout = 8 * time.Second
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyPolicy replays the policy section through the builder's setters.
func (c *Config) ApplyPolicy(b *policy.Builder) error {
	if c.Policy.LogLevel != "" {
		level, err := policy.ParseLogLevel(c.Policy.LogLevel)
		if err != nil {
			return fmt.Errorf("policy.log_level: %w", err)
		}
		b.SetLogLevel(level)
	}
	if c.Policy.HTTPProxyPort != 0 {
		b.SetHTTPProxyPort(c.Policy.HTTPProxyPort)
	}
	if c.Policy.GlobalProxy != nil {
		b.SetGlobalProxyEnable(*c.Policy.GlobalProxy)
	}
	b.SetDirectDomains(c.Policy.DirectDomains)
	b.SetProxyDomains(c.Policy.ProxyDomains)
	b.SetBlockDomains(c.Policy.BlockDomains)
	return nil
}
