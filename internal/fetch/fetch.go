// Package fetch streams a remote file to a staging location, verifies
// its SHA-256 digest as the bytes arrive, and publishes it at the
// destination with a single atomic rename. The destination is never
// opened for in-place writing: readers observe either the old file or
// the new one, never a partial download.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/bianoble/filemirror/internal/progress"
)

// stagingPattern names the temporary file created next to the
// destination. Same directory guarantees the final rename stays on one
// filesystem.
const stagingPattern = ".filemirror-*"

// HTTPClient abstracts *http.Client for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NetworkError indicates the transfer failed before verification:
// unreachable host, timeout, non-2xx status, or a truncated body.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// VerifyError indicates the download completed but its digest does not
// match the expected hash. The destination is left untouched.
type VerifyError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verification failed for %s: expected sha256 %s, got %s", e.URL, e.Expected, e.Actual)
}

// Fetcher downloads and publishes files.
type Fetcher struct {
	Client           HTTPClient    // nil = http.DefaultClient
	Timeout          time.Duration // per-download timeout (0 = context only)
	UserAgent        string
	Limiter          *rate.Limiter // optional bandwidth cap
	MaxSize          int64         // abort downloads larger than this (0 = unlimited)
	ProgressInterval time.Duration // snapshot cadence (0 = 1s)
}

// FetchAndPublish streams sourceURL into a staging file next to
// destPath, verifies the running digest against expectedHash, and
// renames the staging file onto destPath on success. On any failure the
// staging file is removed and destPath keeps its previous contents.
// Returns the number of bytes downloaded.
func (f *Fetcher) FetchAndPublish(ctx context.Context, sourceURL, destPath, expectedHash string, sink progress.Sink) (int64, error) {
	if sink == nil {
		sink = progress.Nop{}
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, &NetworkError{URL: sourceURL, Err: fmt.Errorf("creating request: %w", err)}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, &NetworkError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &NetworkError{URL: sourceURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	staging, err := os.CreateTemp(filepath.Dir(destPath), stagingPattern)
	if err != nil {
		return 0, fmt.Errorf("creating staging file: %w", err)
	}

	published := false
	defer func() {
		_ = staging.Close()
		if !published {
			_ = os.Remove(staging.Name())
		}
	}()

	// One pass: every chunk feeds the staging file and the digest
	// simultaneously, so no second read of the file is needed.
	h := sha256.New()
	pw := progress.NewWriter(io.MultiWriter(staging, h), sink, resp.ContentLength, f.ProgressInterval)

	var body io.Reader = resp.Body
	if f.Limiter != nil {
		body = &pacedReader{ctx: ctx, r: body, limiter: f.Limiter}
	}
	if f.MaxSize > 0 {
		body = io.LimitReader(body, f.MaxSize+1)
	}

	n, err := io.Copy(pw, body)
	if err != nil {
		return n, &NetworkError{URL: sourceURL, Err: fmt.Errorf("streaming body: %w", err)}
	}
	if f.MaxSize > 0 && n > f.MaxSize {
		return n, &NetworkError{URL: sourceURL, Err: fmt.Errorf("response exceeds max size %d bytes", f.MaxSize)}
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, &NetworkError{URL: sourceURL, Err: fmt.Errorf("content length mismatch: got %d bytes, expected %d", n, resp.ContentLength)}
	}

	if err := staging.Sync(); err != nil {
		return n, fmt.Errorf("syncing staging file: %w", err)
	}
	if err := staging.Close(); err != nil {
		return n, fmt.Errorf("closing staging file: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expectedHash {
		return n, &VerifyError{URL: sourceURL, Expected: expectedHash, Actual: actual}
	}

	// The single publish point. Replaces any previous destination
	// contents in one filesystem operation.
	if err := os.Rename(staging.Name(), destPath); err != nil {
		return n, fmt.Errorf("publishing %s: %w", destPath, err)
	}
	published = true

	pw.Finish()
	return n, nil
}

// pacedReader throttles reads through a token bucket.
type pacedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (pr *pacedReader) Read(p []byte) (int, error) {
	// WaitN rejects requests above the burst size, so never read more
	// than that at once.
	if b := pr.limiter.Burst(); b > 0 && len(p) > b {
		p = p[:b]
	}

	n, err := pr.r.Read(p)
	if n > 0 {
		if werr := pr.limiter.WaitN(pr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
