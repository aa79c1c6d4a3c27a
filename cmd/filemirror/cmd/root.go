package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath  string
	verbose     bool
	quiet       bool
	httpTimeout time.Duration
	limitRate   int64
)

var rootCmd = &cobra.Command{
	Use:   "filemirror",
	Short: "Mirror a remote file with hash verification",
	Long: `filemirror downloads a file over HTTP(S), verifies it against a published
SHA-256 checksum, and installs it atomically at a destination path. When the
local copy already matches the published hash, no download happens, so it is
cheap to run repeatedly from a scheduler. Concurrent runs against the same
destination coordinate through a marker file and all but one skip cleanly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filemirror %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "filemirror.yaml", "path to optional settings file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output with transfer progress")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "timeout", 0, "HTTP timeout for both fetches (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&limitRate, "limit-rate", 0, "download bandwidth cap in bytes/sec (0 = unlimited)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
