package dataset

import (
	"io/fs"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DataPatterns match the files the watcher and the exporter care about.
var DataPatterns = []string{"**/*.json", "**/*.csv"}

// Discover returns every file in fsys matching pattern, sorted.
func Discover(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// DiscoverAll returns the union of files matching DataPatterns.
func DiscoverAll(fsys fs.FS) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range DataPatterns {
		matches, err := Discover(fsys, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// IsDataFile reports whether name matches one of DataPatterns.
func IsDataFile(name string) bool {
	for _, p := range DataPatterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, path.Base(name)); ok {
			return true
		}
	}
	return false
}
