package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tubeq/internal/broker"
	"tubeq/internal/store"
)

func NewServeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			// --addr beats the config file when given explicitly.
			addr := cfg.Server.Listen
			if cmd.Flags().Changed("addr") {
				addr = opts.Addr
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			srv := broker.NewServer(store.NewStore(), logger)
			srv.WriteTimeout = cfg.Server.WriteTimeout.Std()
			srv.MaxCommandBytes = cfg.Server.MaxCommandBytes

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx, ln)
		},
	}
}
