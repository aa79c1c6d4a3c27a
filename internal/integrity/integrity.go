// Package integrity computes SHA-256 digests of local files for
// comparison against a published expected hash.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Digest streams the file at path through SHA-256 and returns the
// lowercase hex digest. The file is read in chunks, never loaded whole.
// A missing file returns the underlying error unmodified so callers can
// test it with os.IsNotExist.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether the file at path digests to expected.
// A missing file is a non-match, not an error. The comparison is
// case-insensitive on the expected side.
func Matches(path, expected string) (bool, error) {
	actual, err := Digest(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return actual == strings.ToLower(expected), nil
}
