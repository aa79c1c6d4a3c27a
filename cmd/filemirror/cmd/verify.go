package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/bianoble/filemirror/internal/integrity"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <destination-path> <hash-url>",
	Short: "Check a local file against its published hash",
	Long: `Fetches the SHA-256 digest published at <hash-url> and compares it against
the file at <destination-path>. Read-only: takes no lock and downloads nothing.
Exit 0 if the file matches; exit non-zero if it is missing or has drifted.
Suitable for CI and monitoring.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		dest, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		expected, err := newResolver(cfg).Fetch(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		detail("expected sha256: %s", expected)

		match, err := integrity.Matches(dest, expected)
		if err != nil {
			return err
		}
		if !match {
			actual, digErr := integrity.Digest(dest)
			if digErr != nil {
				return fmt.Errorf("%s is missing or unreadable (expected sha256 %s)", dest, expected)
			}
			return fmt.Errorf("%s does not match upstream: expected sha256 %s, got %s", dest, expected, actual)
		}

		info("%s matches upstream (sha256 %s)", dest, expected)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
