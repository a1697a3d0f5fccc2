package util

import (
	"os"
	"path/filepath"
	"strings"
)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// FileExists returns true if the file at path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExpandTilde expands the tilde in a file path to the current
// user's home directory.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(filePath, "~")), nil
}

// LooksSafeToDelete returns true if path looks safe to delete. To be
// safe, the path must have a minimum length and a minimum number of
// separators, so we never wipe out anything near the filesystem root.
func LooksSafeToDelete(path string, minLength, minSeparators int) bool {
	sepCount := strings.Count(path, string(os.PathSeparator))
	return len(path) >= minLength && sepCount >= minSeparators
}

// TestsAreRunning returns true when code is running under "go test".
func TestsAreRunning() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

// UUIDSuffix returns the last 36 characters of name, which by
// Archivematica convention is the package UUID embedded in a
// directory name. Returns an empty string if name is too short.
func UUIDSuffix(name string) string {
	if len(name) < 36 {
		return ""
	}
	return name[len(name)-36:]
}
