package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reaper jobs and their schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, j := range jobSchedules {
				fmt.Fprintf(out, "%-20s %s\n", j.job, j.spec)
			}
			return nil
		},
	}
}
