package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarluq/ptree-loader/internal/vinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ptree-loader version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s %s\n", rootCmd.Name(), vinfo.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
