package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tubeq/internal/client"
)

func NewDeleteCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job whatever its state",
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

			if err := c.Delete(id); err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("job %d not found", id)
				}
				return err
			}

			fmt.Println("Job deleted:", id)
			return nil
		},
	}
}
