package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubeq/internal/store"
)

func NewStatsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [tube]",
		Short: "Show tube statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tube := store.DefaultTube
			if len(args) == 1 {
				tube = args[0]
			}

			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.StatsTube(tube)
			if err != nil {
				return err
			}

			fmt.Printf("Tube %s:\n", stats.Name)
			fmt.Printf("  %-10s %d\n", "ready", stats.CurrentJobsReady)
			fmt.Printf("  %-10s %d\n", "reserved", stats.CurrentJobsReserved)
			fmt.Printf("  %-10s %d\n", "buried", stats.CurrentJobsBuried)
			fmt.Printf("  %-10s %s\n", "total", humanize.Comma(int64(stats.TotalJobs)))
			fmt.Printf("  %-10s %s\n", "uptime", (time.Duration(stats.UptimeSeconds) * time.Second).String())
			return nil
		},
	}
}
