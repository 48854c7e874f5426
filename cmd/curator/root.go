package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"curator-hq/curator/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	envFiles []string
	verbose  bool
	output   string
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Curator - rule-driven media library maintenance",
	Long: `Curator evaluates rule groups against a Plex library, keeps the matching
items in collections and removes them once their retention window has passed.

Removal covers every configured application:
  - the Radarr or Sonarr record (deleted or unmonitored)
  - the Overseerr requests and media entry
  - the media item on the Plex server`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files loaded before CURATOR_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", string(cli.FormatText), "output format (text, json, yaml, csv)")
}

// formatter returns the formatter selected by --output.
func formatter() (cli.Formatter, error) {
	return cli.NewFormatter(cli.OutputFormat(output))
}
