// Package filemirror provides the public Go library API for embedding
// the mirror operation in other programs.
//
// # Basic Usage
//
//	client := filemirror.New(filemirror.Options{
//	    Timeout: 30 * time.Second,
//	})
//
//	result, err := client.Fetch(ctx,
//	    "https://example.com/artifact.bin",
//	    "/var/lib/mirror/artifact.bin",
//	    "https://example.com/artifact.bin.sha256")
//
// Fetch downloads, verifies, and atomically installs the file; when the
// local copy already matches the published hash it is a no-op. Runs
// against the same destination coordinate through a marker file, so
// concurrent callers skip rather than collide.
package filemirror

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bianoble/filemirror/internal/fetch"
	"github.com/bianoble/filemirror/internal/hashsource"
	"github.com/bianoble/filemirror/internal/integrity"
	"github.com/bianoble/filemirror/internal/mirror"
	"github.com/bianoble/filemirror/internal/progress"
)

// Outcome is the terminal state of one mirror run.
type Outcome = mirror.Outcome

const (
	Published          = mirror.Published
	AlreadySatisfied   = mirror.AlreadySatisfied
	SkippedLocked      = mirror.SkippedLocked
	VerificationFailed = mirror.VerificationFailed
	NetworkError       = mirror.NetworkError
	FormatError        = mirror.FormatError
)

// Result reports what a run did.
type Result = mirror.Result

// Sink receives transfer progress snapshots. See the progress package
// for the Snapshot shape; a nil sink disables reporting.
type Sink = progress.Sink

// Options configures a Client. The zero value is usable: no timeout
// beyond the context, no bandwidth cap, no progress reporting.
type Options struct {
	// Timeout bounds each of the two HTTP requests. 0 = context only.
	Timeout time.Duration

	// UserAgent is sent on both requests when non-empty.
	UserAgent string

	// LimitRate caps download bandwidth in bytes/sec. 0 = unlimited.
	LimitRate int64

	// LimitBurst is the token-bucket burst for LimitRate.
	// 0 = max(LimitRate, 256 KiB).
	LimitBurst int

	// MaxSize aborts downloads larger than this in bytes. 0 = unlimited.
	MaxSize int64

	// Sink receives progress snapshots during downloads.
	Sink Sink

	// Logf receives high-level status lines. nil = silent.
	Logf func(format string, args ...any)
}

// Client runs mirror operations.
type Client struct {
	runner   *mirror.Runner
	resolver *hashsource.Resolver
}

// New creates a Client from opts.
func New(opts Options) *Client {
	resolver := &hashsource.Resolver{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
	}

	fetcher := &fetch.Fetcher{
		Timeout:   opts.Timeout,
		UserAgent: opts.UserAgent,
		MaxSize:   opts.MaxSize,
	}
	if opts.LimitRate > 0 {
		burst := opts.LimitBurst
		if burst <= 0 {
			burst = 256 * 1024
			if opts.LimitRate > int64(burst) {
				burst = int(opts.LimitRate)
			}
		}
		fetcher.Limiter = rate.NewLimiter(rate.Limit(opts.LimitRate), burst)
	}

	return &Client{
		runner: &mirror.Runner{
			HashSource: resolver,
			Fetcher:    fetcher,
			Sink:       opts.Sink,
			Logf:       opts.Logf,
		},
		resolver: resolver,
	}
}

// Fetch mirrors sourceURL to destPath, verifying against the SHA-256
// digest published at hashURL. destPath must be absolute. Returns the
// run's Result; SkippedLocked and AlreadySatisfied are successes with
// a nil error.
func (c *Client) Fetch(ctx context.Context, sourceURL, destPath, hashURL string) (Result, error) {
	return c.runner.Run(ctx, mirror.Request{
		SourceURL: sourceURL,
		DestPath:  destPath,
		HashURL:   hashURL,
	})
}

// Verify fetches the digest published at hashURL and reports whether
// the file at destPath matches it. Read-only: no lock, no download.
// A missing local file is a non-match, not an error.
func (c *Client) Verify(ctx context.Context, destPath, hashURL string) (bool, error) {
	expected, err := c.resolver.Fetch(ctx, hashURL)
	if err != nil {
		return false, err
	}
	return integrity.Matches(destPath, expected)
}
