package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the flowsync version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			bold := color.New(color.Bold).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s/%s)\n", bold("flowsync"), version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
