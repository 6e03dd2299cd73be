package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubeq/internal/client"
	"tubeq/internal/config"
)

// Options carries the settings every subcommand shares. The root
// command binds the persistent flags onto it before any RunE fires.
type Options struct {
	Addr       string
	ConfigPath string
	Timeout    time.Duration
}

func (o *Options) dial() (*client.Client, error) {
	c, err := client.Dial(o.Addr, o.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to broker at %s: %w", o.Addr, err)
	}
	return c, nil
}

func (o *Options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	opts := &Options{Timeout: 5 * time.Second}

	cmd := &cobra.Command{
		Use:          "tubeq",
		Short:        "Work queue broker",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", config.DefaultListen, "broker address")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "tubeq.yaml", "path to config file")

	cmd.AddCommand(
		NewServeCmd(opts),
		NewPutCmd(opts),
		NewReserveCmd(opts),
		NewDeleteCmd(opts),
		NewReleaseCmd(opts),
		NewStatsCmd(opts),
		NewTubesCmd(opts),
		NewWorkerCmd(opts),
		NewConfigCmd(opts),
	)
	return cmd
}
