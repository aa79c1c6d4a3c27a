package cmd

import (
	"path/filepath"

	"github.com/bianoble/filemirror/internal/mirror"
	"github.com/bianoble/filemirror/internal/progress"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <source-url> <destination-path> <hash-url>",
	Short: "Download a file, verify it, and install it atomically",
	Long: `Downloads <source-url>, verifies the bytes against the SHA-256 digest
published at <hash-url>, and installs the result at <destination-path> with an
atomic rename. If the destination already matches the published digest, nothing
is downloaded.

While a run is in flight it holds <destination-path>.downloading as a lock;
concurrent runs against the same destination skip cleanly and exit 0. A marker
left behind by a hard kill (power loss, SIGKILL) is not cleaned up
automatically and must be removed by hand before the next run can proceed.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}

		dest, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}

		runner := newRunner(cfg)
		res, err := runner.Run(cmd.Context(), mirror.Request{
			SourceURL: args[0],
			DestPath:  dest,
			HashURL:   args[2],
		})
		if err != nil {
			return err
		}

		switch res.Outcome {
		case mirror.Published:
			info("downloaded %s (%s, sha256 %s)", dest, progress.FormatBytes(res.Bytes), res.Digest)
		case mirror.AlreadySatisfied:
			info("%s already matches upstream (sha256 %s), nothing to do", dest, res.Digest)
		case mirror.SkippedLocked:
			info("another run is downloading %s, skipping", dest)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
