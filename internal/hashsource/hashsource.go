// Package hashsource fetches and parses the published expected hash for
// a mirrored file. The upstream format is the common checksum-file form:
// the first whitespace-delimited token is the SHA-256 hex digest, and
// anything after it (usually a filename) is ignored.
package hashsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxBody caps the hash file response. Hash files are tiny; a larger
// body almost certainly means the URL points at the artifact itself.
const maxBody = 64 * 1024

// HTTPClient abstracts *http.Client for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NetworkError indicates the hash source could not be fetched:
// unreachable host, timeout, or a non-2xx response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching hash from %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FormatError indicates the hash source responded but its content is
// not a usable SHA-256 digest.
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hash file: %s", e.Detail)
}

// Resolver fetches the expected hash from an HTTP(S) URL.
type Resolver struct {
	Client    HTTPClient    // nil = http.DefaultClient
	Timeout   time.Duration // per-fetch timeout (0 = context only)
	UserAgent string
}

// Fetch performs a single GET against url and returns the parsed,
// lowercase expected hash.
func (r *Resolver) Fetch(ctx context.Context, url string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	if r.UserAgent != "" {
		req.Header.Set("User-Agent", r.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(body) > maxBody {
		return "", &FormatError{Detail: fmt.Sprintf("response exceeds %d bytes — is this really a checksum file?", maxBody)}
	}

	return Parse(string(body))
}

// Parse extracts the SHA-256 digest from checksum-file content.
// Only the first whitespace-delimited token is considered; it must be
// exactly 64 hex characters. The result is normalized to lowercase.
func Parse(content string) (string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", &FormatError{Detail: "empty hash file"}
	}

	token := strings.ToLower(fields[0])
	if len(token) != 64 {
		return "", &FormatError{Detail: fmt.Sprintf("expected a 64-character SHA-256 digest, got %d characters", len(token))}
	}
	for _, c := range token {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", &FormatError{Detail: fmt.Sprintf("digest contains non-hex character %q", c)}
		}
	}

	return token, nil
}
