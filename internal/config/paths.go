package config

import (
	"os"
	"path/filepath"
)

// PathSource represents where a configured location comes from.
type PathSource string

const (
	PathSourceEnv    PathSource = "env"
	PathSourceConfig PathSource = "config"
	PathSourceNone   PathSource = "none"
)

// PathStatus represents the status of a configured directory or URL.
type PathStatus struct {
	Name   string     `json:"name"`
	Value  string     `json:"value"`
	Source PathSource `json:"source"`
	Exists bool       `json:"exists"`
	Files  int        `json:"files,omitempty"` // top-level entries, directories only
	Note   string     `json:"note,omitempty"`
}

// CheckPaths returns the status of the data and output locations.
func CheckPaths(cfg *Config) []PathStatus {
	statuses := []PathStatus{
		checkDir("Data directory", cfg.Data.Dir, "CANVIZ_DATA_DIR"),
		checkDir("Build output", cfg.Build.OutDir, "CANVIZ_BUILD_OUT_DIR"),
	}

	remote := PathStatus{
		Name:   "Remote data",
		Value:  cfg.Data.BaseURL,
		Source: sourceOf(cfg.Data.BaseURL, "CANVIZ_DATA_BASE_URL"),
		Exists: cfg.Data.BaseURL != "",
	}
	if remote.Exists {
		remote.Note = "datasets are fetched over HTTP; data directory is ignored"
	}
	statuses = append(statuses, remote)
	return statuses
}

// checkDir reports whether dir exists and how many entries it holds.
func checkDir(name, dir, envVar string) PathStatus {
	status := PathStatus{
		Name:   name,
		Value:  dir,
		Source: sourceOf(dir, envVar),
	}
	if dir == "" {
		return status
	}

	entries, err := os.ReadDir(dir)
	switch {
	case err == nil:
		status.Exists = true
		status.Files = len(entries)
	case os.IsNotExist(err):
		status.Note = "missing; created on demand"
	default:
		status.Note = err.Error()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		status.Value = abs
	}
	return status
}

func sourceOf(value, envVar string) PathSource {
	switch {
	case value == "":
		return PathSourceNone
	case os.Getenv(envVar) != "":
		return PathSourceEnv
	default:
		return PathSourceConfig
	}
}
