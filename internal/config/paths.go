// Package config manages conflictfix configuration and filesystem paths.
//
// Two layers exist: Paths locates the per-user data directory that holds the
// backup catalog, backup sessions, and saved run results (default
// ~/.conflictfix, override with CONFLICTFIX_ROOT); ProjectConfig is read from
// conflictfix.yml in the project being repaired and describes how to build it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvRoot overrides the data root directory.
const EnvRoot = "CONFLICTFIX_ROOT"

// EnvLogLevel selects the log level (debug, info, warn, error).
const EnvLogLevel = "CONFLICTFIX_LOG_LEVEL"

// Paths contains all the filesystem paths used by conflictfix.
type Paths struct {
	// Root is the base directory for all conflictfix data (default: ~/.conflictfix)
	Root string

	// Backups is the directory holding one subdirectory per backup session
	Backups string

	// Catalog is the JSON document listing every backup session
	Catalog string

	// CatalogLock guards read-modify-write cycles on Catalog
	CatalogLock string

	// Runs holds saved orchestration results
	Runs string
}

// DefaultPaths returns the default paths for conflictfix.
// The root can be overridden with CONFLICTFIX_ROOT.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".conflictfix")
	}
	return PathsAt(root), nil
}

// PathsAt returns the layout rooted at root.
func PathsAt(root string) *Paths {
	backups := filepath.Join(root, "backups")
	catalog := filepath.Join(backups, "catalog.json")
	return &Paths{
		Root:        root,
		Backups:     backups,
		Catalog:     catalog,
		CatalogLock: catalog + ".lock",
		Runs:        filepath.Join(root, "runs"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Backups, p.Runs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
