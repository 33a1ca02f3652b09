package tester

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"xrayshim/internal/config"
	"xrayshim/internal/xray"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(target string, retries int) config.TesterConfig {
	return config.TesterConfig{TargetURL: target, Timeout: 2 * time.Second, Retries: retries}
}

func TestCheck_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := New(testConfig(srv.URL, 2)).Check(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, 3, res.Attempts)
}

func TestCheck_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(testConfig(srv.URL, 1)).Check(context.Background(), srv.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestMakeClient_HTTPInbound(t *testing.T) {
	var seen atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.String())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer proxy.Close()

	tst := New(testConfig("http://check.example/generate_204", 0))
	client, err := tst.MakeClient(xray.LocalProxy{
		Protocol: "http",
		Address:  strings.TrimPrefix(proxy.URL, "http://"),
	})
	require.NoError(t, err)

	res, err := tst.Check(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://check.example/generate_204", seen.Load())
}

func TestMakeClient_SocksInbound(t *testing.T) {
	client, err := New(testConfig("http://check.example", 0)).MakeClient(xray.LocalProxy{
		Protocol: "socks",
		Address:  "127.0.0.1:10808",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Transport)
}

func TestCheckDocument_WithoutInbound(t *testing.T) {
	_, err := New(testConfig("http://check.example", 0)).CheckDocument(context.Background(), &xray.Document{})
	assert.Error(t, err)
}

func TestCheck_StopsOnCancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := New(testConfig(srv.URL, 10)).Check(ctx, srv.Client())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, calls.Load())
}
