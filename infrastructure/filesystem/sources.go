package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VideoExtensions are the file types picked up when a directory is given as a source
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// IsVideoFile reports whether name has one of VideoExtensions, ignoring case
func IsVideoFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, v := range VideoExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// ExpandSources resolves the user's paths into an ordered source list.
// Files are kept as given; directories contribute their video files sorted by name.
func ExpandSources(paths []string) ([]string, error) {
	var sources []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("source does not exist: %s", p)
			}
			return nil, fmt.Errorf("failed to read source %s: %w", p, err)
		}

		if !info.IsDir() {
			sources = append(sources, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to list directory %s: %w", p, err)
		}

		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !IsVideoFile(entry.Name()) {
				continue
			}
			found = append(found, filepath.Join(p, entry.Name()))
		}
		sort.Strings(found)
		sources = append(sources, found...)
	}
	return sources, nil
}
