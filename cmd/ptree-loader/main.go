// Package main is the entry point for ptree-loader.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

var watchFiles bool

var rootCmd = &cobra.Command{
	Use:   "ptree-loader <file>",
	Short: "Load property-tree files with IncludeFile resolution",
	Long: `ptree-loader loads a hierarchical configuration file (XML, JSON, INFO or
YAML) and recursively resolves the reserved "IncludeFile" key, so one file
can pull in and merge another. Include paths resolve relative to the
including file. The format is inferred from the file extension, and the load
diagnostics are printed followed by the fully merged tree in the same
format.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.Flags().BoolVar(&watchFiles, "watch", false,
		"keep running, reloading and reprinting whenever the file changes")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
