package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todoapi",
	Short: "TodoMVC API - a small todo CRUD service",
	Long: `todoapi serves a todo collection over HTTP with JSON bodies.
Data lives for the lifetime of the process only.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (.toml, .yaml or .yml)")
	addServeFlags(rootCmd)
	rootCmd.AddCommand(newServeCmd(), newSchemaCmd())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
