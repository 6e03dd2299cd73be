package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"tubeq/internal/client"
	"tubeq/internal/engine"
)

func NewWorkerCmd(opts *Options) *cobra.Command {
	var (
		count   int
		program string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start worker processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			if count < 1 {
				count = cfg.Worker.Count
			}

			handler := engine.LogHandler(logger)
			if program != "" {
				handler = engine.ExecHandler(program)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The client is single-connection, so each worker dials
			// its own.
			var wg sync.WaitGroup
			errCh := make(chan error, count)
			for i := 0; i < count; i++ {
				c, err := client.Dial(opts.Addr, opts.Timeout)
				if err != nil {
					stop()
					wg.Wait()
					return fmt.Errorf("connect to broker at %s: %w", opts.Addr, err)
				}

				w := engine.NewWorker(c, handler, logger)
				w.PollInterval = cfg.Worker.PollInterval.Std()

				wg.Add(1)
				go func() {
					defer wg.Done()
					defer c.Close()
					if err := w.Run(ctx); err != nil {
						errCh <- err
						stop()
					}
				}()
			}

			fmt.Printf("Started %d workers. Press Ctrl+C to stop.\n", count)
			<-ctx.Done()
			wg.Wait()

			close(errCh)
			for err := range errCh {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "number of workers to start (default from config)")
	cmd.Flags().StringVar(&program, "exec", "", "program to run per job; the payload is its argument")
	return cmd
}
