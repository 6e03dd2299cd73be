package tests

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"tubeq/internal/broker"
	"tubeq/internal/client"
	"tubeq/internal/store"
)

// startBroker runs a full broker on an ephemeral port and tears it
// down with the test.
func startBroker(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := broker.NewServer(store.NewStore(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Broker did not shut down within 5s")
		}
	})
	return ln.Addr().String()
}

// newClient dials the broker and closes the connection after the test.
func newClient(t *testing.T, addr string) *client.Client {
	t.Helper()

	c, err := client.Dial(addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial broker: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not reached within 5s")
}
