package main

import (
	"fmt"

	"github.com/acornnet/econetd/internal/capture"
	"github.com/spf13/cobra"
)

func newInterfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List interfaces usable with monitor --iface",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := capture.Interfaces()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
