package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Download fetches url into destPath and sets the given file mode. The body
// is streamed into a temporary sibling file which is renamed into place only
// on success, so a half-written installer never shadows a good one.
func Download(ctx context.Context, url, destPath string, mode fs.FileMode) error {
	if err := CreateFileDir(destPath); err != nil {
		return fmt.Errorf("failed to prepare directory for %s: %w", destPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}

	tmpPath := destPath + ".part"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", tmpPath, err)
	}
	return os.Chmod(destPath, mode)
}

// SHA256Sum calculates the SHA-256 checksum of a file as a lowercase hex
// string.
func SHA256Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("failed to hash file %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifySHA256 compares the file's SHA-256 checksum against want (hex,
// case-insensitive). An empty want skips verification: operators may pin a
// checksum for a downloaded installer, but are not forced to.
func VerifySHA256(path, want string) error {
	if want == "" {
		return nil
	}
	got, err := SHA256Sum(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", path, got, strings.ToLower(want))
	}
	return nil
}
