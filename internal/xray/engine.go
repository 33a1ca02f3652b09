package xray

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"xrayshim/internal/logger"

	"github.com/xtls/xray-core/core"
	"github.com/xtls/xray-core/infra/conf/serial"

	// Import distro to register all protocols/transports
	_ "github.com/xtls/xray-core/main/distro/all"
)

// LoadConfig decodes a document with the engine's JSON loader and builds it,
// which is the same path the engine takes when it is started with the document.
func LoadConfig(doc []byte) (cfg *core.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("CRITICAL: Xray Core Panic recovered: %v", r)
			cfg = nil
			err = fmt.Errorf("xray core panic: %v", r)
		}
	}()

	jsonConfig, err := serial.DecodeJSONConfig(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("decode engine config: %w", err)
	}

	restore := silenceStdio()
	defer restore()

	pbConfig, err := jsonConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine config: %w", err)
	}
	return pbConfig, nil
}

// Engine runs one in-process xray-core instance at a time.
type Engine struct {
	mu       sync.Mutex
	instance *core.Instance
}

func NewEngine() *Engine {
	return &Engine{}
}

// Start loads doc and starts a new instance, replacing any running one.
func (e *Engine) Start(doc []byte) (err error) {
	pbConfig, err := LoadConfig(doc)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		e.instance.Close()
		e.instance = nil
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("CRITICAL: Xray Core Panic recovered: %v", r)
			err = fmt.Errorf("xray core panic: %v", r)
		}
	}()

	instance, err := core.New(pbConfig)
	if err != nil {
		return fmt.Errorf("create engine instance: %w", err)
	}
	if err := instance.Start(); err != nil {
		instance.Close()
		return fmt.Errorf("start engine instance: %w", err)
	}

	e.instance = instance
	logger.Log.Debugf("Engine started (xray %s)", core.Version())
	return nil
}

// Stop closes the running instance, if any.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance == nil {
		return nil
	}
	err := e.instance.Close()
	e.instance = nil
	return err
}

// Running reports whether an instance is up.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instance != nil
}

func (e *Engine) Version() string {
	return core.Version()
}

// silenceStdio points os.Stdout and os.Stderr at the null device until the
// returned func is called. If the null device cannot be opened for writing
// the streams are left untouched.
func silenceStdio() (restore func()) {
	sink, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return func() {}
	}

	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = sink, sink
	return func() {
		os.Stdout, os.Stderr = stdout, stderr
		_ = sink.Close()
	}
}
