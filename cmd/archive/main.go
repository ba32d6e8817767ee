package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "archive",
		Short:         "Archive viewer - browse a messaging archive from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default config.yml)")

	rootCmd.AddCommand(datesCmd(&configPath))
	rootCmd.AddCommand(dayCmd(&configPath))
	rootCmd.AddCommand(mediaCmd(&configPath))
	rootCmd.AddCommand(statsCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
