package main

import (
	"fmt"
	"runtime"

	"github.com/aretw0/nestflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nestflow version",
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(nestflow.Version)
			return
		}
		fmt.Printf("nestflow version %s %s/%s (%s)\n", nestflow.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print only the version number")
}
