package cmd

import (
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"github.com/bianoble/filemirror/internal/config"
	"github.com/bianoble/filemirror/internal/fetch"
	"github.com/bianoble/filemirror/internal/hashsource"
	"github.com/bianoble/filemirror/internal/mirror"
	"github.com/bianoble/filemirror/internal/progress"
)

// limiterBurst is the token-bucket burst for --limit-rate, sized to
// comfortably cover one 32 KiB copy chunk.
const limiterBurst = 256 * 1024

// loadSettings reads the settings file (missing file = defaults) and
// applies flag overrides.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if httpTimeout > 0 {
		cfg.HTTPTimeout = httpTimeout
	}
	if limitRate > 0 {
		cfg.LimitRate = limitRate
	}

	return cfg, nil
}

// newResolver creates the hash-source resolver from settings.
func newResolver(cfg *config.Config) *hashsource.Resolver {
	return &hashsource.Resolver{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	}
}

// newFetcher creates the downloader from settings.
func newFetcher(cfg *config.Config) *fetch.Fetcher {
	f := &fetch.Fetcher{
		Timeout:          cfg.HTTPTimeout,
		UserAgent:        cfg.UserAgent,
		MaxSize:          cfg.MaxSize,
		ProgressInterval: cfg.ProgressInterval,
	}
	if cfg.LimitRate > 0 {
		burst := limiterBurst
		if cfg.LimitRate > int64(burst) {
			burst = int(cfg.LimitRate)
		}
		f.Limiter = rate.NewLimiter(rate.Limit(cfg.LimitRate), burst)
	}
	return f
}

// newRunner wires a complete run from settings and verbosity flags.
func newRunner(cfg *config.Config) *mirror.Runner {
	return &mirror.Runner{
		HashSource: newResolver(cfg),
		Fetcher:    newFetcher(cfg),
		Sink:       newSink(),
		Logf:       detail,
	}
}

// newSink returns the progress sink for the current verbosity.
// Progress detail is verbose-only; quiet and normal runs stay silent
// during the transfer.
func newSink() progress.Sink {
	if !verbose {
		return progress.Nop{}
	}
	return &progress.Console{W: os.Stderr, Label: "download"}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}
