package hub

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"topoview/internal/metrics"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func subscribers(t *testing.T, reg *metrics.Registry) float64 {
	t.Helper()
	var m dto.Metric
	if err := reg.EventSubscribers.Write(&m); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

// readLine returns the next non-empty line of the stream
func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("stream ended: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
}

func TestHubStreamsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metrics.NewRegistry()
	h := New()
	h.SetMetrics(reg)
	go h.Run(ctx)

	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	stream := bufio.NewReader(resp.Body)
	if line := readLine(t, stream); !strings.HasPrefix(line, ": connected ") {
		t.Fatalf("expected connect comment, got %q", line)
	}

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	waitFor(t, func() bool { return subscribers(t, reg) == 1 })

	h.Broadcast(map[string]string{"type": "layout_computed"})

	line := readLine(t, stream)
	if line != `data: {"type":"layout_computed"}` {
		t.Errorf("unexpected event line %q", line)
	}

	// Stopping the hub ends open streams
	cancel()
	if _, err := io.Copy(io.Discard, stream); err != nil {
		t.Fatalf("stream closed with error: %v", err)
	}
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestStreamOutlivesWriteTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)

	server := httptest.NewUnstartedServer(h)
	server.Config.WriteTimeout = 50 * time.Millisecond
	server.Start()
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer resp.Body.Close()

	stream := bufio.NewReader(resp.Body)
	readLine(t, stream)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	time.Sleep(150 * time.Millisecond)
	h.Broadcast(map[string]string{"type": "positions_updated"})

	if line := readLine(t, stream); line != `data: {"type":"positions_updated"}` {
		t.Errorf("unexpected event line %q", line)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)

	// Must not block or panic with nobody listening
	for i := 0; i < 10; i++ {
		h.Broadcast(i)
	}
	if n := h.ClientCount(); n != 0 {
		t.Errorf("expected no clients, got %d", n)
	}
}
