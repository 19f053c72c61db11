// Package project locates the root of the codebase being repaired.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/danieljhkim/conflictfix/internal/config"
)

// ErrNotInProject indicates no project root was found above the directory.
var ErrNotInProject = errors.New("not in a project (no conflictfix.yml, *.sln or .git found)")

// Locator finds project roots.
type Locator interface {
	// Discover finds the project root starting from cwd.
	Discover(cwd string) (root string, err error)

	// RelPath computes the path of absPath relative to root.
	RelPath(root, absPath string) (string, error)
}

// FSLocator implements Locator by walking up the directory tree.
type FSLocator struct{}

// NewFSLocator creates a new FSLocator.
func NewFSLocator() *FSLocator {
	return &FSLocator{}
}

// Discover walks up from cwd. The nearest directory holding a conflictfix
// config file or a solution file wins; failing that, the nearest directory
// holding .git.
func (l *FSLocator) Discover(cwd string) (string, error) {
	absPath, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	gitRoot := ""
	current := absPath
	for {
		if hasProjectMarker(current) {
			return current, nil
		}
		if gitRoot == "" {
			// .git can be a directory or a file (for worktrees/submodules)
			if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
				gitRoot = current
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	if gitRoot != "" {
		return gitRoot, nil
	}
	return "", ErrNotInProject
}

func hasProjectMarker(dir string) bool {
	for _, name := range config.ProjectFileNames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.sln"))
	return len(matches) > 0
}

// RelPath computes the relative path from root to absPath.
func (l *FSLocator) RelPath(root, absPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute root: %w", err)
	}
	absTarget, err := filepath.Abs(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute target: %w", err)
	}

	relPath, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside project")
	}
	return relPath, nil
}

// ProjectFiles lists the .sln and .csproj files below root, skipping build
// output directories.
func ProjectFiles(root string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.sln", "**/*.csproj"} {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list project files: %w", err)
		}
		for _, m := range matches {
			if !inBuildOutput(root, m) {
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func inBuildOutput(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "bin" || part == "obj" {
			return true
		}
	}
	return false
}
