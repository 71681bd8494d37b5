package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"embedd/internal/manager"
	"embedd/internal/protocol"
	"embedd/pkg/types"
)

func dial(t *testing.T, addr string) *protocol.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := protocol.Dial(ctx, addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

// TestE2E_OVNTAndHTTPAgree embeds the same text over both transports and
// expects the same unit vector.
func TestE2E_OVNTAndHTTPAgree(t *testing.T) {
	s := newStack(t, hashModels)
	c := dial(t, s.ovnt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	wire, err := c.Embed(ctx, "the quick brown fox", "")
	if err != nil {
		t.Fatalf("ovnt embed: %v", err)
	}
	if len(wire) != 8 {
		t.Fatalf("dim=%d", len(wire))
	}
	if math.Abs(norm(wire)-1) > 1e-5 {
		t.Fatalf("norm=%f", norm(wire))
	}

	resp, body := httpDo(t, http.MethodPost, s.http.URL+"/embed", []byte(`{"text":"the quick brown fox"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("http status=%d body=%s", resp.StatusCode, body)
	}
	var out types.EmbedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Embedding) != len(wire) {
		t.Fatalf("http dim=%d", len(out.Embedding))
	}
	for i := range wire {
		if float32(out.Embedding[i]) != wire[i] {
			t.Fatalf("component %d: http %v ovnt %v", i, out.Embedding[i], wire[i])
		}
	}
}

func TestE2E_OVNTUnknownModelKeepsConnection(t *testing.T) {
	s := newStack(t, hashModels)
	c := dial(t, s.ovnt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Embed(ctx, "hello", "nope")
	var remote *protocol.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if _, err := c.Embed(ctx, "hello", "MiniLM"); err != nil {
		t.Fatalf("follow-up request on same connection: %v", err)
	}
}

func TestE2E_ConcurrentClients(t *testing.T) {
	s := newStack(t, hashModels)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errc := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := protocol.Dial(ctx, s.ovnt)
			if err != nil {
				errc <- err
				return
			}
			defer c.Close()
			for j := 0; j < 10; j++ {
				if _, err := c.Embed(ctx, "text", ""); err != nil {
					errc <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		t.Fatalf("client: %v", err)
	}
}

// TestE2E_LoadAndUnloadOverHTTP loads a disabled model on demand, embeds with
// it over OVNT, then unloads it again.
func TestE2E_LoadAndUnloadOverHTTP(t *testing.T) {
	s := newStack(t, hashModels)
	c := dial(t, s.ovnt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := c.Embed(ctx, "hello", "wide"); err == nil {
		t.Fatal("expected error before load")
	}

	resp, body := httpDo(t, http.MethodPost, s.http.URL+"/models/wide/load", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status=%d body=%s", resp.StatusCode, body)
	}
	v, err := c.Embed(ctx, "hello", "wide")
	if err != nil {
		t.Fatalf("embed after load: %v", err)
	}
	if len(v) != 32 {
		t.Fatalf("dim=%d", len(v))
	}

	resp, _ = httpDo(t, http.MethodDelete, s.http.URL+"/models/wide", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unload status=%d", resp.StatusCode)
	}
	if _, err := c.Embed(ctx, "hello", "wide"); err == nil {
		t.Fatal("expected error after unload")
	}

	names := s.pub.Names("wide")
	want := []string{manager.EventLoadStart, manager.EventLoaded, manager.EventUnloaded}
	if len(names) != len(want) {
		t.Fatalf("events=%v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events=%v", names)
		}
	}
}

func TestE2E_HealthAndStatus(t *testing.T) {
	s := newStack(t, hashModels)

	resp, body := httpGet(t, s.http.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d body=%s", resp.StatusCode, body)
	}
	var h types.HealthResponse
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("json: %v", err)
	}
	if h.EmbeddingDimension != 8 || h.Model != "mini" {
		t.Fatalf("health=%+v", h)
	}

	resp, body = httpGet(t, s.http.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("json: %v", err)
	}
	if st.State != string(manager.StateReady) || st.DefaultModel != "mini" {
		t.Fatalf("status=%+v", st)
	}

	resp, body = httpGet(t, s.http.URL+"/groups/high_dim")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("group status=%d", resp.StatusCode)
	}
	var g types.GroupResponse
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(g.Models) != 1 || g.Models[0].ID != "wide" || g.Models[0].Loaded {
		t.Fatalf("group=%+v", g)
	}
}

// TestE2E_ReloadUnderTraffic swaps the default model while a client keeps
// sending requests; every request either succeeds or fails cleanly.
func TestE2E_ReloadUnderTraffic(t *testing.T) {
	s := newStack(t, hashModels)
	c := dial(t, s.ovnt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				done <- nil
				return
			default:
			}
			if _, err := c.Embed(ctx, "traffic", ""); err != nil {
				var remote *protocol.RemoteError
				if !errors.As(err, &remote) {
					done <- err
					return
				}
			}
		}
	}()

	next := s.mgr.Config()
	wide := next.Models["wide"]
	wide.Enabled = true
	next.Models["wide"] = wide
	next.Global.DefaultModel = "wide"
	if err := s.mgr.Reload(ctx, next); err != nil {
		t.Fatalf("reload: %v", err)
	}
	close(stop)
	if err := <-done; err != nil {
		t.Fatalf("client: %v", err)
	}

	v, err := c.Embed(ctx, "after reload", "")
	if err != nil {
		t.Fatalf("embed after reload: %v", err)
	}
	if len(v) != 32 {
		t.Fatalf("default dim after reload=%d", len(v))
	}
}
