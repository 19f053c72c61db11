package resolver

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/danieljhkim/conflictfix/internal/logging"
)

// Walker enumerates the source files of a project tree.
type Walker struct {
	// Extensions lists the file suffixes to include, e.g. ".cs".
	Extensions []string
	// ExcludeDirs names directories skipped wherever they appear.
	ExcludeDirs []string
	// ExcludeGlobs are doublestar patterns matched against slash-separated
	// paths relative to the walk root.
	ExcludeGlobs []string
	// Logger receives a warning for every path skipped because it could not
	// be read. Nil discards them.
	Logger *slog.Logger
}

// DefaultWalker returns a Walker for C# sources that skips build output.
func DefaultWalker() Walker {
	return Walker{
		Extensions:  []string{".cs"},
		ExcludeDirs: []string{"bin", "obj", ".git", ".vs", "packages", "node_modules"},
	}
}

// Validate checks that every exclude glob is well formed.
func (w Walker) Validate() error {
	for _, g := range w.ExcludeGlobs {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("invalid exclude glob %q", g)
		}
	}
	return nil
}

// Files returns the matching files below root in lexical order.
func (w Walker) Files(ctx context.Context, root string) ([]string, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(w.ExcludeDirs))
	for _, d := range w.ExcludeDirs {
		excluded[d] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return w.skipUnreadable(root, path, d, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && (excluded[d.Name()] || w.globExcluded(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !w.hasExtension(path) || w.globExcluded(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// skipUnreadable handles a walk error. Only a failure on root itself ends the
// walk; an unreadable subdirectory is pruned and an unreadable file skipped.
func (w Walker) skipUnreadable(root, path string, d fs.DirEntry, err error) error {
	if path == root {
		return err
	}
	logging.OrDiscard(w.Logger).Warn("skipping unreadable path",
		slog.String("path", path),
		slog.Any("error", err))
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

func (w Walker) hasExtension(path string) bool {
	if len(w.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w Walker) globExcluded(rel string) bool {
	for _, g := range w.ExcludeGlobs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
