package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"tubeq/internal/broker"
	"tubeq/internal/store"
)

// startBroker serves a fresh broker on an ephemeral port and returns
// its address.
func startBroker(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := broker.NewServer(store.NewStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func dialBroker(t *testing.T) *Client {
	t.Helper()
	c, err := Dial(startBroker(t), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientJobLifecycle(t *testing.T) {
	t.Parallel()
	c := dialBroker(t)

	id, err := c.Put([]byte("ab12"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id != 1 {
		t.Errorf("Put id: got %d, want 1", id)
	}

	job, err := c.Reserve()
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if job.ID != id || !bytes.Equal(job.Payload, []byte("ab12")) {
		t.Errorf("Reserve: got id=%d payload=%q, want id=%d payload=%q", job.ID, job.Payload, id, "ab12")
	}

	if err := c.Delete(job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got err %v, want ErrNotFound", err)
	}
}

func TestClientReserveEmptyQueue(t *testing.T) {
	t.Parallel()
	c := dialBroker(t)

	if _, err := c.Reserve(); !errors.Is(err, ErrNoJob) {
		t.Errorf("Reserve on empty queue: got err %v, want ErrNoJob", err)
	}
}

func TestClientReleaseRoundTrip(t *testing.T) {
	t.Parallel()
	c := dialBroker(t)

	id, err := c.Put([]byte("work"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	job, err := c.Reserve()
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := c.Release(job.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := c.Reserve()
	if err != nil {
		t.Fatalf("Reserve after release: %v", err)
	}
	if again.ID != id {
		t.Errorf("re-reserved id: got %d, want %d", again.ID, id)
	}

	if err := c.Release(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Release of unknown id: got err %v, want ErrNotFound", err)
	}
}

func TestClientRejectsInvalidPayloadLocally(t *testing.T) {
	t.Parallel()
	c := dialBroker(t)

	if _, err := c.Put([]byte("two words")); err == nil {
		t.Fatal("Put with embedded space succeeded, want local rejection")
	}

	// The connection stays usable because nothing was sent.
	if _, err := c.Put([]byte("fine")); err != nil {
		t.Errorf("Put after rejected payload: %v", err)
	}
}

func TestClientTubeSurface(t *testing.T) {
	t.Parallel()
	c := dialBroker(t)

	count, err := c.Watch("anything")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if count != 1 {
		t.Errorf("Watch count: got %d, want 1", count)
	}

	using, err := c.Use("emails")
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	if using != "emails" {
		t.Errorf("Use echo: got %q, want %q", using, "emails")
	}

	tubes, err := c.ListTubes()
	if err != nil {
		t.Fatalf("ListTubes: %v", err)
	}
	if len(tubes) != 1 || tubes[0] != store.DefaultTube {
		t.Errorf("ListTubes: got %v, want [%q]", tubes, store.DefaultTube)
	}

	if _, err := c.Put([]byte("j1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	stats, err := c.StatsTube("default")
	if err != nil {
		t.Fatalf("StatsTube: %v", err)
	}
	if stats.Name != "default" || stats.CurrentJobsReady != 1 || stats.TotalJobs != 1 {
		t.Errorf("StatsTube: got %+v, want one ready job", stats)
	}
}
