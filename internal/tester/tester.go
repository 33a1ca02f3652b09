package tester

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"xrayshim/internal/config"
	"xrayshim/internal/logger"
	"xrayshim/internal/xray"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/proxy"
)

type Tester struct {
	cfg config.TesterConfig
}

type Result struct {
	StatusCode int
	Latency    time.Duration
	Attempts   int
}

func New(cfg config.TesterConfig) *Tester {
	return &Tester{cfg: cfg}
}

// MakeClient returns an HTTP client that goes through the given local inbound.
func (t *Tester) MakeClient(lp xray.LocalProxy) (*http.Client, error) {
	proxyURL, err := url.Parse(lp.URL())
	if err != nil {
		return nil, fmt.Errorf("invalid local proxy %s: %w", lp.URL(), err)
	}

	base := &net.Dialer{
		Timeout:   t.cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           base.DialContext,
		ResponseHeaderTimeout: t.cfg.Timeout,
	}

	if lp.Protocol == "socks" {
		d, err := proxy.FromURL(proxyURL, base)
		if err != nil {
			return nil, fmt.Errorf("socks dialer: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks dialer does not support contexts")
		}
		transport.DialContext = cd.DialContext
	} else {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Transport: transport, Timeout: t.cfg.Timeout}, nil
}

// Check fetches the target URL through client, retrying with exponential backoff.
// Any response below 500 counts as reachable.
func (t *Tester) Check(ctx context.Context, client *http.Client) (*Result, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0

	retries := t.cfg.Retries
	if retries < 0 {
		retries = 0
	}

	res := &Result{}
	attempt := func() error {
		res.Attempts++
		status, latency, err := t.fetch(ctx, client)
		if err != nil {
			return err
		}
		res.StatusCode = status
		res.Latency = latency
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Log.Debugf("Attempt %d failed, retrying in %v: %v", res.Attempts, wait, err)
	}

	schedule := backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(retries))
	if err := backoff.RetryNotify(attempt, schedule, notify); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *Tester) fetch(ctx context.Context, client *http.Client) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.TargetURL, nil)
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	latency := time.Since(start)

	if resp.StatusCode >= 500 {
		return resp.StatusCode, latency, fmt.Errorf("target failed with status: %d", resp.StatusCode)
	}
	return resp.StatusCode, latency, nil
}

// CheckDocument checks reachability through the document's local inbound.
func (t *Tester) CheckDocument(ctx context.Context, doc *xray.Document) (*Result, error) {
	lp, ok := doc.LocalProxy()
	if !ok {
		return nil, fmt.Errorf("document has no local inbound")
	}
	client, err := t.MakeClient(lp)
	if err != nil {
		return nil, err
	}
	return t.Check(ctx, client)
}
