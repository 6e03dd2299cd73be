package tests

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"tubeq/internal/client"
	"tubeq/internal/engine"
	"tubeq/internal/store"
)

func startWorker(t *testing.T, addr string, h engine.Handler) {
	t.Helper()

	c := newClient(t, addr)
	w := engine.NewWorker(c, h, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Worker failed: %v", err)
		}
	})
}

func TestWorkerDrainsBrokerQueue(t *testing.T) {
	addr := startBroker(t)
	producer := newClient(t, addr)

	for _, payload := range []string{"alpha", "beta", "gamma"} {
		if _, err := producer.Put([]byte(payload)); err != nil {
			t.Fatalf("Failed to put %q: %v", payload, err)
		}
	}

	var processed atomic.Int64
	startWorker(t, addr, func(ctx context.Context, job *client.ReservedJob) error {
		processed.Add(1)
		return nil
	})

	waitFor(t, func() bool { return processed.Load() == 3 })

	waitFor(t, func() bool {
		stats, err := producer.StatsTube(store.DefaultTube)
		if err != nil {
			t.Fatalf("Failed to fetch stats: %v", err)
		}
		return stats.CurrentJobsReady == 0 && stats.CurrentJobsReserved == 0
	})

	stats, err := producer.StatsTube(store.DefaultTube)
	if err != nil {
		t.Fatalf("Failed to fetch stats: %v", err)
	}
	if stats.TotalJobs != 3 {
		t.Errorf("Expected 3 total jobs, got %d", stats.TotalJobs)
	}
}

func TestWorkerExecutesProgram(t *testing.T) {
	if _, err := exec.LookPath("touch"); err != nil {
		t.Skip("touch not available")
	}

	addr := startBroker(t)
	producer := newClient(t, addr)

	// The payload is the program's argument, so run the worker from a
	// scratch directory and have touch create the file there.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	})

	if _, err := producer.Put([]byte("done123")); err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}

	startWorker(t, addr, engine.ExecHandler("touch"))

	waitFor(t, func() bool {
		_, err := os.Stat("done123")
		return err == nil
	})
}
