// Package mirror composes the lock, hash, integrity, and download
// components into a single run: acquire the marker, resolve the
// expected hash, skip if the local copy already matches, otherwise
// download, verify, and publish. The marker is released on every exit
// path, normal or not.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/filemirror/internal/fetch"
	"github.com/bianoble/filemirror/internal/hashsource"
	"github.com/bianoble/filemirror/internal/integrity"
	"github.com/bianoble/filemirror/internal/marker"
	"github.com/bianoble/filemirror/internal/progress"
)

// Outcome is the terminal state of one run.
type Outcome int

const (
	// Failed covers local errors outside the download protocol
	// (staging I/O, rename, marker trouble).
	Failed Outcome = iota
	// Published means a new file was downloaded, verified, and installed.
	Published
	// AlreadySatisfied means the existing file matches the expected
	// hash; no download was performed.
	AlreadySatisfied
	// SkippedLocked means another run holds the marker; this run did
	// nothing. Routine under overlapping scheduled invocations.
	SkippedLocked
	// VerificationFailed means the downloaded bytes did not digest to
	// the expected hash. The previous destination contents survive.
	VerificationFailed
	// NetworkError means the hash fetch or the file fetch failed.
	NetworkError
	// FormatError means the hash source content was malformed.
	FormatError
)

func (o Outcome) String() string {
	switch o {
	case Published:
		return "published"
	case AlreadySatisfied:
		return "already-satisfied"
	case SkippedLocked:
		return "skipped-locked"
	case VerificationFailed:
		return "verification-failed"
	case NetworkError:
		return "network-error"
	case FormatError:
		return "format-error"
	default:
		return "failed"
	}
}

// Request describes one mirror run. Immutable for its lifetime.
type Request struct {
	SourceURL string
	DestPath  string // absolute
	HashURL   string
}

// Result reports what a run did.
type Result struct {
	Outcome Outcome
	Digest  string // expected hash resolved for this run (empty when skipped)
	Bytes   int64  // bytes downloaded (0 when no download happened)
}

// Runner holds the collaborators for a run. Logf, when set, receives
// high-level status lines; a nil Logf is silent. The progress sink is a
// side channel only.
type Runner struct {
	HashSource *hashsource.Resolver
	Fetcher    *fetch.Fetcher
	Sink       progress.Sink
	Logf       func(format string, args ...any)
}

// Run executes one mirror attempt. Error outcomes return both the
// classified Result and the error; SkippedLocked and AlreadySatisfied
// are successes with a nil error.
func (r *Runner) Run(ctx context.Context, req Request) (res Result, err error) {
	if !filepath.IsAbs(req.DestPath) {
		return Result{}, fmt.Errorf("destination path %s is not absolute", req.DestPath)
	}

	if mkErr := os.MkdirAll(filepath.Dir(req.DestPath), 0o755); mkErr != nil {
		return Result{}, fmt.Errorf("creating destination directory: %w", mkErr)
	}

	guard, acqErr := marker.Acquire(req.DestPath)
	if errors.Is(acqErr, marker.ErrLocked) {
		r.logf("another run holds the lock for %s, skipping", req.DestPath)
		return Result{Outcome: SkippedLocked}, nil
	}
	if acqErr != nil {
		return Result{}, acqErr
	}
	defer func() {
		// Release on every exit path. A release failure leaves a stale
		// marker behind that the next run would skip on, so it must
		// surface, but never by masking the run's own error.
		if relErr := guard.Release(); relErr != nil && err == nil {
			err = relErr
			res = Result{Outcome: Failed, Digest: res.Digest, Bytes: res.Bytes}
		}
	}()

	expected, hashErr := r.HashSource.Fetch(ctx, req.HashURL)
	if hashErr != nil {
		return Result{Outcome: classifyHashErr(hashErr)}, hashErr
	}
	r.logf("expected sha256 for %s is %s", req.DestPath, expected)

	match, matchErr := integrity.Matches(req.DestPath, expected)
	if matchErr != nil {
		return Result{Outcome: Failed, Digest: expected}, matchErr
	}
	if match {
		r.logf("%s already matches the expected hash, no download needed", req.DestPath)
		return Result{Outcome: AlreadySatisfied, Digest: expected}, nil
	}

	r.logf("downloading %s to %s", req.SourceURL, req.DestPath)
	n, fetchErr := r.Fetcher.FetchAndPublish(ctx, req.SourceURL, req.DestPath, expected, r.Sink)
	if fetchErr != nil {
		return Result{Outcome: classifyFetchErr(fetchErr), Digest: expected, Bytes: n}, fetchErr
	}

	r.logf("published %s (%d bytes, sha256 %s)", req.DestPath, n, expected)
	return Result{Outcome: Published, Digest: expected, Bytes: n}, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

func classifyHashErr(err error) Outcome {
	var fe *hashsource.FormatError
	if errors.As(err, &fe) {
		return FormatError
	}
	var ne *hashsource.NetworkError
	if errors.As(err, &ne) {
		return NetworkError
	}
	return Failed
}

func classifyFetchErr(err error) Outcome {
	var ve *fetch.VerifyError
	if errors.As(err, &ve) {
		return VerificationFailed
	}
	var ne *fetch.NetworkError
	if errors.As(err, &ne) {
		return NetworkError
	}
	return Failed
}
