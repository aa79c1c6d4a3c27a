package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// recordingSink captures every snapshot it receives.
type recordingSink struct {
	updates []Snapshot
	done    []Snapshot
}

func (r *recordingSink) Update(s Snapshot) { r.updates = append(r.updates, s) }

func (r *recordingSink) Done(s Snapshot) { r.done = append(r.done, s) }

func TestWriterForwardsBytes(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	w := NewWriter(&buf, sink, -1, time.Hour)

	payload := []byte("payload bytes")
	n, err := w.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Errorf("n = %d, want %d", n, len(payload))
	}
	if buf.String() != string(payload) {
		t.Errorf("underlying writer got %q", buf.String())
	}
}

func TestWriterFinishEmitsDone(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	w := NewWriter(&buf, sink, 100, time.Hour)

	w.Write(make([]byte, 40))
	w.Write(make([]byte, 60))
	w.Finish()

	if len(sink.done) != 1 {
		t.Fatalf("done snapshots = %d, want 1", len(sink.done))
	}
	s := sink.done[0]
	if s.Transferred != 100 {
		t.Errorf("transferred = %d, want 100", s.Transferred)
	}
	if s.Total != 100 {
		t.Errorf("total = %d, want 100", s.Total)
	}
}

func TestSnapshotUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Nop{}, -1, time.Hour)
	w.Write(make([]byte, 1024))

	s := w.Snapshot()
	if s.Total != -1 {
		t.Errorf("total = %d, want -1", s.Total)
	}
	if s.ETA != 0 {
		t.Errorf("eta = %v, want 0 for unknown total", s.ETA)
	}
}

func TestSnapshotRateAndETA(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Nop{}, 2048, time.Hour)
	w.start = time.Now().Add(-time.Second)
	w.Write(make([]byte, 1024))

	s := w.Snapshot()
	if s.Rate <= 0 {
		t.Errorf("rate = %f, want > 0", s.Rate)
	}
	if s.ETA <= 0 {
		t.Errorf("eta = %v, want > 0 with half the bytes remaining", s.ETA)
	}
}

func TestConsoleOutput(t *testing.T) {
	var out strings.Builder
	c := &Console{W: &out, Label: "download"}

	c.Update(Snapshot{Transferred: 512, Total: 1024, Rate: 256, ETA: 2 * time.Second})
	c.Update(Snapshot{Transferred: 512, Total: -1, Rate: 256})
	c.Done(Snapshot{Transferred: 1024, Total: 1024, Rate: 512, Elapsed: 2 * time.Second})

	got := out.String()
	for _, want := range []string{"download", "50.0%", "512 B"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{10 * 1024 * 1024, "10.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
