// Package progress reports transfer progress through a sink abstraction.
// Sinks are observational only: no component may depend on a sink for
// correctness, and a sink that does nothing (Nop) is always valid.
package progress

import (
	"fmt"
	"io"
	"time"
)

// Snapshot is a point-in-time view of a transfer.
type Snapshot struct {
	Transferred int64
	Total       int64         // -1 when the server sent no Content-Length
	Rate        float64       // bytes per second since the transfer began
	ETA         time.Duration // 0 when unknown
	Elapsed     time.Duration
}

// Sink receives periodic snapshots during a transfer and a final one
// when it completes.
type Sink interface {
	Update(Snapshot)
	Done(Snapshot)
}

// Nop discards all snapshots.
type Nop struct{}

func (Nop) Update(Snapshot) {}

func (Nop) Done(Snapshot) {}

// Writer decorates an io.Writer, feeding a Sink at most once per
// interval as bytes pass through.
type Writer struct {
	w        io.Writer
	sink     Sink
	total    int64
	interval time.Duration

	transferred int64
	start       time.Time
	last        time.Time
}

// NewWriter wraps w. total is the expected byte count, or -1 when
// unknown. interval <= 0 defaults to one second.
func NewWriter(w io.Writer, sink Sink, total int64, interval time.Duration) *Writer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Writer{
		w:        w,
		sink:     sink,
		total:    total,
		interval: interval,
		start:    time.Now(),
	}
}

func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.last) >= pw.interval {
		pw.last = time.Now()
		pw.sink.Update(pw.Snapshot())
	}

	return n, err
}

// Finish emits the terminal snapshot.
func (pw *Writer) Finish() {
	pw.sink.Done(pw.Snapshot())
}

// Snapshot returns the current transfer state.
func (pw *Writer) Snapshot() Snapshot {
	elapsed := time.Since(pw.start)
	s := Snapshot{
		Transferred: pw.transferred,
		Total:       pw.total,
		Elapsed:     elapsed,
	}

	if secs := elapsed.Seconds(); secs > 0 {
		s.Rate = float64(pw.transferred) / secs
	}
	if pw.total > 0 && s.Rate > 0 && pw.transferred < pw.total {
		remaining := float64(pw.total-pw.transferred) / s.Rate
		s.ETA = time.Duration(remaining * float64(time.Second))
	}

	return s
}

// Console renders snapshots as human-readable lines, one per update.
type Console struct {
	W     io.Writer
	Label string
}

func (c *Console) Update(s Snapshot) {
	c.print("  ", s)
}

func (c *Console) Done(s Snapshot) {
	fmt.Fprintf(c.W, "  %s: %s in %s (%s/s)\n",
		c.Label, FormatBytes(s.Transferred), s.Elapsed.Round(time.Millisecond), FormatBytes(int64(s.Rate)))
}

func (c *Console) print(prefix string, s Snapshot) {
	if s.Total > 0 {
		pct := float64(s.Transferred) / float64(s.Total) * 100
		fmt.Fprintf(c.W, "%s%s: %s / %s (%.1f%%)  %s/s  eta %s\n",
			prefix, c.Label, FormatBytes(s.Transferred), FormatBytes(s.Total), pct,
			FormatBytes(int64(s.Rate)), s.ETA.Round(time.Second))
		return
	}
	fmt.Fprintf(c.W, "%s%s: %s  %s/s\n",
		prefix, c.Label, FormatBytes(s.Transferred), FormatBytes(int64(s.Rate)))
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
