package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "put <payload>",
		Short: "Add a job to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			id, err := c.Put([]byte(args[0]))
			if err != nil {
				return err
			}

			fmt.Println("Job inserted:", id)
			return nil
		},
	}
}
