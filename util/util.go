package util

import (
	"os"

	"github.com/pkg/errors"

	"github.com/quartzproof/rigprep/common"
)

// EnsureDir creates a directory if it does not already exist.
// It's similar to `mkdir -p`.
func EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, common.FileMode0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dirPath)
	}
	return nil
}

// ReadFileToString reads the entire file into a string.
func ReadFileToString(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file %s", filePath)
	}
	return string(data), nil
}

// TruncateString shortens a string to a maximum length, appending an ellipsis
// if truncation occurs. The ellipsis counts towards the maximum length.
func TruncateString(s string, maxLength int, ellipsis string) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= len(ellipsis) {
		if maxLength < 0 {
			maxLength = 0
		}
		return ellipsis[:maxLength]
	}
	return s[:maxLength-len(ellipsis)] + ellipsis
}

// UniqueStrings returns a new slice containing only the unique strings from
// the input slice. The order of the first appearance is preserved.
func UniqueStrings(slice []string) []string {
	if len(slice) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(slice))
	result := make([]string, 0, len(slice))
	for _, str := range slice {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}

// BytesToGiB converts a byte count to whole gibibytes, rounding down.
func BytesToGiB(b uint64) uint64 {
	return b / common.GiB
}

// GiBToBytes converts a gibibyte count to bytes.
func GiBToBytes(gib uint64) uint64 {
	return gib * common.GiB
}
