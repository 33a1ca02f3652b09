package tunnel

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"xrayshim/internal/logger"
	"xrayshim/internal/policy"
	"xrayshim/internal/xray"
)

// Version is reported to the host app in every message ack.
const Version = "1.0.7"

var ErrNoConfiguration = errors.New("invalid configuration: no compiled document")

// Engine runs a compiled document.
type Engine interface {
	Start(doc []byte) error
	Stop() error
	Version() string
}

// Options are the start options handed over by the platform.
type Options struct {
	URI    string `json:"uri,omitempty"`
	Global *bool  `json:"global,omitempty"`
}

// Provider keeps the current compiled document and drives the engine with it.
type Provider struct {
	policy *policy.Builder
	engine Engine

	mu      sync.Mutex
	doc     *xray.Document
	running bool
}

func NewProvider(b *policy.Builder, engine Engine) *Provider {
	return &Provider{policy: b, engine: engine}
}

// Policy exposes the builder the provider compiles with.
func (p *Provider) Policy() *policy.Builder {
	return p.policy
}

// Document returns the current compiled document, or nil.
func (p *Provider) Document() *xray.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// SetupURL compiles uri with the current policy. The previous document is kept on failure.
func (p *Provider) SetupURL(uri string) error {
	doc, err := xray.Compile(uri, p.policy.Snapshot())
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

func (p *Provider) StartTunnel(opts Options) error {
	if opts.Global != nil {
		p.policy.SetGlobalProxyEnable(*opts.Global)
	}
	if opts.URI != "" {
		if err := p.SetupURL(opts.URI); err != nil {
			logger.Log.Warnf("Failed to set up %s: %v", opts.URI, err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.doc == nil {
		return ErrNoConfiguration
	}

	raw, err := p.doc.Bytes()
	if err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}

	if p.running {
		if err := p.engine.Stop(); err != nil {
			logger.Log.Warnf("Failed to stop previous engine: %v", err)
		}
		p.running = false
	}

	if err := p.engine.Start(raw); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	p.running = true
	logger.Log.Debugf("Tunnel started:\n%s", raw)
	return nil
}

func (p *Provider) StopTunnel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false
	return p.engine.Stop()
}

func (p *Provider) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// FullVersion is the version string reported to the host app.
func (p *Provider) FullVersion() string {
	return "25-" + p.engine.Version()
}

type appMessage struct {
	Type          *float64 `json:"type"`
	Configuration *string  `json:"configuration"`
}

// Ack is the reply to every app message.
type Ack struct {
	Desc          int    `json:"desc"`
	Version       string `json:"version"`
	TunnelVersion string `json:"tunnel_version"`
}

// HandleAppMessage processes a message from the host app and returns the ack.
// The log level is reset to warning and global proxy to disabled first.
// A type 0 message carries a share-link to set up.
func (p *Provider) HandleAppMessage(data []byte) ([]byte, error) {
	p.policy.SetLogLevel(policy.LevelWarning)
	p.policy.SetGlobalProxyEnable(false)

	var msg appMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Log.Debugf("Ignoring malformed app message: %v", err)
	} else if msg.Type != nil && *msg.Type == 0 {
		var uri string
		if msg.Configuration != nil {
			uri = *msg.Configuration
		}
		if err := p.SetupURL(uri); err != nil {
			logger.Log.Warnf("App message configuration rejected: %v", err)
		}
	}

	return json.MarshalIndent(Ack{
		Desc:          200,
		Version:       p.FullVersion(),
		TunnelVersion: Version,
	}, "", "  ")
}
