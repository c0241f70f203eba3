// Command splitstore writes line streams into rotating, labelled split
// files with an index, from stdin/files or from Kafka topics.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "splitstore",
		Short: "Split line streams into rotating, labelled files with an index",
		Long: `splitstore writes lines into numbered split files under a base path.
Files rotate after a number of lines or bulks, or when labels change, and
every file created is recorded in index_file.csv when the writer closes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to configuration file (default $CONFIG_PATH)")

	rootCmd.AddCommand(newWriteCommand())
	rootCmd.AddCommand(newConsumeCommand())
	return rootCmd
}

// configPath resolves the configuration file.
// Priority: --config flag > CONFIG_PATH env var > none
func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); strings.TrimSpace(path) != "" {
		return path
	}
	return os.Getenv("CONFIG_PATH")
}
