package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pergola",
	Short: "Pergola is a tool invocation engine for agent hosts",
	Long: `Pergola routes structured tool calls to action handlers with argument
validation, middleware and serialized destructive operations. The CLI runs
the engine with a demo toolset over HTTP, MCP or direct invocation.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
