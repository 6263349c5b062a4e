package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Commit is set at build time via -ldflags.
var Commit string

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the version of this tool",
		Run: func(cmd *cobra.Command, args []string) {
			if Commit == "" {
				fmt.Println("dev")
				return
			}
			fmt.Println(Commit)
		},
		Args: cobra.NoArgs,
	}
	rootCmd.AddCommand(cmd)
}
