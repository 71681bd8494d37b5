package e2e

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"embedd/internal/config"
	"embedd/internal/httpapi"
	"embedd/internal/manager"
	"embedd/internal/server"
)

const hashModels = `
[global]
default_model = "mini"
cache_enabled = true
cache_size_mb = 1

[models.mini]
name = "MiniLM"
enabled = true
kind = "hash"
embedding_dimension = 8

[models.wide]
enabled = false
kind = "hash"
embedding_dimension = 32

[model_groups]
general = ["mini"]
high_dim = ["wide"]
`

type stack struct {
	mgr  *manager.Manager
	pub  *manager.MemoryPublisher
	http *httptest.Server
	ovnt string
}

// newStack starts a manager over doc, an OVNT listener on loopback and an
// httptest gateway sharing the same manager.
func newStack(t *testing.T, doc string) *stack {
	t.Helper()
	models, err := config.ParseModels(".toml", []byte(doc))
	if err != nil {
		t.Fatalf("parse models: %v", err)
	}
	pub := manager.NewMemoryPublisher()
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{Models: models, Logger: zerolog.Nop(), Publisher: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := mgr.Initialize(ctx); err != nil {
		cancel()
		t.Fatalf("initialize: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		t.Fatalf("listen: %v", err)
	}
	srv := server.New(mgr, config.NetworkConfig{MaxConnections: 8, WriteTimeoutSecs: 5}, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()

	hs := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		hs.Close()
		cancel()
		<-done
		_ = mgr.Shutdown()
	})
	return &stack{mgr: mgr, pub: pub, http: hs, ovnt: ln.Addr().String()}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
