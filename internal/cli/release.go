package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tubeq/internal/client"
)

func NewReleaseCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "release <id>",
		Short: "Return a reserved job to the ready queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id: %s", args[0])
			}

			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Release(id); err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("job %d is not reserved", id)
				}
				return err
			}

			fmt.Println("Job released:", id)
			return nil
		},
	}
}
