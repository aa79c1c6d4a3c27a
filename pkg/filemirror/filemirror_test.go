package filemirror

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func serveArtifact(t *testing.T, content []byte) (fileURL, hashURL string) {
	t.Helper()
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifact.bin":
			w.Write(content)
		case "/artifact.bin.sha256":
			w.Write([]byte(hash + "  artifact.bin\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/artifact.bin", srv.URL + "/artifact.bin.sha256"
}

func TestClientFetch(t *testing.T) {
	content := []byte("library facade payload")
	fileURL, hashURL := serveArtifact(t, content)
	dest := filepath.Join(t.TempDir(), "artifact.bin")

	c := New(Options{})
	res, err := c.Fetch(context.Background(), fileURL, dest, hashURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Published {
		t.Fatalf("outcome = %s, want published", res.Outcome)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("destination content differs from source")
	}

	// Second fetch is a no-op.
	res, err = c.Fetch(context.Background(), fileURL, dest, hashURL)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if res.Outcome != AlreadySatisfied {
		t.Errorf("outcome = %s, want already-satisfied", res.Outcome)
	}
}

func TestClientVerify(t *testing.T) {
	content := []byte("verify me")
	_, hashURL := serveArtifact(t, content)
	dest := filepath.Join(t.TempDir(), "artifact.bin")

	c := New(Options{})

	ok, err := c.Verify(context.Background(), dest, hashURL)
	if err != nil {
		t.Fatalf("Verify missing file: %v", err)
	}
	if ok {
		t.Error("missing file must not verify")
	}

	if err := os.WriteFile(dest, content, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = c.Verify(context.Background(), dest, hashURL)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}

	if err := os.WriteFile(dest, []byte("drifted"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err = c.Verify(context.Background(), dest, hashURL)
	if err != nil {
		t.Fatalf("Verify drifted: %v", err)
	}
	if ok {
		t.Error("drifted file must not verify")
	}
}

func TestClientRateLimitOptions(t *testing.T) {
	content := bytes.Repeat([]byte("z"), 4096)
	fileURL, hashURL := serveArtifact(t, content)
	dest := filepath.Join(t.TempDir(), "artifact.bin")

	c := New(Options{LimitRate: 1 << 20})
	res, err := c.Fetch(context.Background(), fileURL, dest, hashURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Published {
		t.Errorf("outcome = %s, want published", res.Outcome)
	}
}
