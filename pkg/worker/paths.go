package worker

import (
	"path/filepath"
	"strings"
)

// SplitFilePath returns path truncated just after the earliest occurrence of
// any marker, matched without regard to ASCII case. When two markers start at
// the same position the longer one wins. Without a match path is returned
// unchanged.
func SplitFilePath(path string, markers []string) string {
	start, end := -1, -1
	for _, m := range markers {
		if m == "" {
			continue
		}
		i := indexFold(path, m)
		if i < 0 {
			continue
		}
		if start < 0 || i < start || (i == start && i+len(m) > end) {
			start, end = i, i+len(m)
		}
	}
	if start < 0 {
		return path
	}
	return path[:end]
}

// TranslatePath strips virtualPath from filePath and joins the rest onto
// physicalPath using the OS separator.
func TranslatePath(filePath, virtualPath, physicalPath string) string {
	rel := filePath
	switch {
	case hasPrefixFold(filePath, virtualPath):
		rel = filePath[len(virtualPath):]
	case strings.EqualFold(filePath, strings.TrimSuffix(virtualPath, "/")):
		rel = ""
	}
	return filepath.Join(physicalPath, filepath.FromSlash(rel))
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
