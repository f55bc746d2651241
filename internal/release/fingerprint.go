// Package release computes image tags and build plans for the container
// release pipeline. The dependency image is keyed by a content fingerprint
// of the build inputs, so unchanged dependencies reuse the cached layer.
package release

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
)

// DefaultInputs are the files whose contents determine whether the
// dependency image must be rebuilt.
var DefaultInputs = []string{"Dockerfile", "go.mod", "go.sum"}

// Fingerprint returns the sha256 hex digest of the given build inputs.
// Identical file contents always produce an identical digest: paths are
// hashed in sorted order, and each file's name is mixed in alongside its
// contents. A missing input is an error.
func Fingerprint(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no build inputs given")
	}

	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Strings(ordered)

	h := sha256.New()
	for _, path := range ordered {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(h io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("build input %s: %w", path, err)
	}
	defer f.Close()

	_, _ = h.Write([]byte(path))
	_, _ = h.Write([]byte{0})
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("build input %s: %w", path, err)
	}
	_, _ = h.Write([]byte{0})
	return nil
}
