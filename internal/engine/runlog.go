package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/conflictfix/internal/fsops"
)

// RunLog persists run results as JSON documents so they can be reported on
// later.
type RunLog struct {
	fs  fsops.FS
	dir string
}

// NewRunLog creates a RunLog storing results in dir.
func NewRunLog(fs fsops.FS, dir string) *RunLog {
	return &RunLog{fs: fs, dir: dir}
}

// Save writes res atomically and returns its path.
func (l *RunLog) Save(res *Result) (string, error) {
	if err := l.fs.ValidateIdentifier(res.ID); err != nil {
		return "", fmt.Errorf("invalid run id: %w", err)
	}
	name := res.StartedAt.UTC().Format("20060102T150405Z") + "_" + res.ID + ".json"
	path := filepath.Join(l.dir, name)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run result: %w", err)
	}
	if err := l.fs.AtomicWrite(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run result: %w", err)
	}
	return path, nil
}

// Load reads a saved result from path.
func (l *RunLog) Load(path string) (*Result, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run result: %w", err)
	}
	return &res, nil
}

// Find loads the saved result whose id is id.
func (l *RunLog) Find(id string) (*Result, error) {
	paths, err := l.list()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if strings.HasSuffix(filepath.Base(p), "_"+id+".json") {
			return l.Load(p)
		}
	}
	return nil, fmt.Errorf("run %q: %w", id, os.ErrNotExist)
}

// Latest loads the most recently saved result.
func (l *RunLog) Latest() (*Result, error) {
	paths, err := l.list()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no saved runs: %w", os.ErrNotExist)
	}
	return l.Load(paths[len(paths)-1])
}

// list returns saved result paths, oldest first.
func (l *RunLog) list() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, filepath.Join(l.dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
