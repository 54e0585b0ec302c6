package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of exam-schedule",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("exam-schedule %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
