package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tubeq/internal/client"
)

func NewReserveCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reserve",
		Short: "Reserve the next ready job and print its payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			job, err := c.Reserve()
			if errors.Is(err, client.ErrNoJob) {
				fmt.Println("No jobs ready.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Reserved job %d (%s)\n", job.ID, humanize.IBytes(uint64(len(job.Payload))))
			fmt.Println(string(job.Payload))
			return nil
		},
	}
}
