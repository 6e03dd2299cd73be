// Package engine runs consumer workers against a broker: reserve a
// job, hand it to a handler, then delete it on success or release it
// back to the queue on failure.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"tubeq/internal/client"
)

// Handler processes one reserved job. A nil return deletes the job; an
// error releases it for another attempt.
type Handler func(ctx context.Context, job *client.ReservedJob) error

type Worker struct {
	ID           string
	Client       *client.Client
	Handle       Handler
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewWorker(c *client.Client, h Handler, logger *slog.Logger) *Worker {
	id := uuid.NewString()[:8]
	return &Worker{
		ID:           id,
		Client:       c,
		Handle:       h,
		PollInterval: 300 * time.Millisecond,
		Logger:       logger.With("worker", id),
	}
}

// Run polls the broker until ctx is cancelled. An empty queue is not
// an error; the worker sleeps one poll interval and tries again. A
// broken broker connection stops the worker with the error.
func (w *Worker) Run(ctx context.Context) error {
	w.Logger.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("worker shutting down")
			return nil
		default:
		}

		job, err := w.Client.Reserve()
		if errors.Is(err, client.ErrNoJob) {
			select {
			case <-ctx.Done():
				w.Logger.Info("worker shutting down")
				return nil
			case <-time.After(w.PollInterval):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("reserve: %w", err)
		}

		w.Logger.Debug("job reserved", "job", job.ID, "size", humanize.IBytes(uint64(len(job.Payload))))

		if err := w.Handle(ctx, job); err != nil {
			w.Logger.Warn("job failed, releasing", "job", job.ID, "error", err)
			if err := w.Client.Release(job.ID); err != nil && !errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("release job %d: %w", job.ID, err)
			}
			continue
		}

		if err := w.Client.Delete(job.ID); err != nil && !errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("delete job %d: %w", job.ID, err)
		}
		w.Logger.Info("job completed", "job", job.ID)
	}
}

// LogHandler records each payload and succeeds. It is the default
// handler when no program is configured.
func LogHandler(logger *slog.Logger) Handler {
	return func(ctx context.Context, job *client.ReservedJob) error {
		logger.Info("processing job", "job", job.ID, "payload", string(job.Payload))
		return nil
	}
}

// ExecHandler runs program with the job payload as its only argument.
func ExecHandler(program string) Handler {
	return func(ctx context.Context, job *client.ReservedJob) error {
		cmd := exec.CommandContext(ctx, program, string(job.Payload))
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%s: %w (output: %s)", program, err, bytes.TrimSpace(out))
		}
		return nil
	}
}
