package policy

import (
	"fmt"
	"slices"
	"sync"
)

// LogLevel is the engine log level written into compiled documents.
type LogLevel string

const (
	LevelVerbose LogLevel = "verbose"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// DefaultHTTPProxyPort is the local HTTP inbound port used until SetHTTPProxyPort is called.
const DefaultHTTPProxyPort uint16 = 1082

// ParseLogLevel validates a level name.
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(s); l {
	case LevelVerbose, LevelInfo, LevelWarning, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("invalid log level %q (want verbose, info, warning or error)", s)
	}
}

// State is the routing and logging policy applied to every compile.
// A State obtained from Snapshot is never mutated afterwards.
type State struct {
	LogLevel      LogLevel
	HTTPProxyPort uint16

	GlobalGeositeEnabled bool
	GlobalGeoipEnabled   bool

	DirectDomains []string
	ProxyDomains  []string
	BlockDomains  []string
}

// Default returns the state a fresh process starts with.
func Default() State {
	return State{
		LogLevel:      LevelInfo,
		HTTPProxyPort: DefaultHTTPProxyPort,
	}
}

// GeoRulesEnabled reports whether either geo bypass list is active.
func (s State) GeoRulesEnabled() bool {
	return s.GlobalGeositeEnabled || s.GlobalGeoipEnabled
}

func (s State) clone() State {
	s.DirectDomains = slices.Clone(s.DirectDomains)
	s.ProxyDomains = slices.Clone(s.ProxyDomains)
	s.BlockDomains = slices.Clone(s.BlockDomains)
	return s
}

// Builder holds the mutable policy that setters change between compiles.
// It is safe for concurrent use; compiles read an immutable Snapshot.
type Builder struct {
	mu    sync.RWMutex
	state State
}

func NewBuilder() *Builder {
	return &Builder{state: Default()}
}

// Snapshot returns a deep copy of the current state.
func (b *Builder) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.clone()
}

func (b *Builder) SetLogLevel(level LogLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.LogLevel = level
}

func (b *Builder) SetHTTPProxyPort(port uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.HTTPProxyPort = port
}

// SetGlobalProxyEnable toggles global proxy mode. Enabling it turns the
// geosite and geoip bypass rules off; disabling it turns both on.
func (b *Builder) SetGlobalProxyEnable(enable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.GlobalGeositeEnabled = !enable
	b.state.GlobalGeoipEnabled = !enable
}

func (b *Builder) SetDirectDomains(domains []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.DirectDomains = slices.Clone(domains)
}

func (b *Builder) SetProxyDomains(domains []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.ProxyDomains = slices.Clone(domains)
}

func (b *Builder) SetBlockDomains(domains []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.BlockDomains = slices.Clone(domains)
}
