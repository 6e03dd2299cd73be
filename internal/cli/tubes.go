package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewTubesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tubes",
		Short: "List tubes known to the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.dial()
			if err != nil {
				return err
			}
			defer c.Close()

			names, err := c.ListTubes()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}
