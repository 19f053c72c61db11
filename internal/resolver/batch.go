package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danieljhkim/conflictfix/internal/fsops"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// FileError records a file that could not be processed.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ScanResult summarizes one batch application of a resolver.
type ScanResult struct {
	Category     rules.Category `json:"category"`
	FilesScanned int            `json:"filesScanned"`
	// Modified lists, in processing order, the files whose content changed and
	// was written back.
	Modified []string `json:"modified"`
	// Aliases maps each modified file to the alias names inserted into it.
	Aliases map[string][]string `json:"aliases,omitempty"`
	Failed  []FileError         `json:"failed,omitempty"`
}

// DetectFiles runs detection over paths without writing anything. Unreadable
// files are logged and skipped.
func (r *Resolver) DetectFiles(ctx context.Context, paths []string) ([]rules.ConflictRecord, error) {
	var out []rules.ConflictRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		data, err := r.fs.ReadFile(path)
		if err != nil {
			r.logger.Warn("skipping unreadable file", slog.String("path", path), slog.Any("error", err))
			continue
		}
		for _, rec := range r.Detect(string(data)) {
			rec.FilePath = path
			out = append(out, rec)
		}
	}
	return out, nil
}

// DetectDirectory runs detection over every source file below root.
func (r *Resolver) DetectDirectory(ctx context.Context, w Walker, root string) ([]rules.ConflictRecord, error) {
	files, err := w.Files(ctx, root)
	if err != nil {
		return nil, err
	}
	return r.DetectFiles(ctx, files)
}

// ScanFiles resolves each file and writes back only those whose content
// changed. A failing file is recorded and the batch continues. Cancellation is
// checked between files.
func (r *Resolver) ScanFiles(ctx context.Context, paths []string) (*ScanResult, error) {
	res := &ScanResult{
		Category: r.rule.Category,
		Modified: []string{},
		Aliases:  map[string][]string{},
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.FilesScanned++
		changed, aliases, err := r.scanFile(path)
		if err != nil {
			r.logger.Warn("failed to process file", slog.String("path", path), slog.Any("error", err))
			res.Failed = append(res.Failed, FileError{Path: path, Err: err.Error()})
			continue
		}
		if changed {
			res.Modified = append(res.Modified, path)
			if len(aliases) > 0 {
				res.Aliases[path] = aliases
			}
			r.logger.Debug("rewrote file", slog.String("path", path), slog.Any("aliases", aliases))
		}
	}
	return res, nil
}

// ScanDirectory applies ScanFiles to every source file below root.
func (r *Resolver) ScanDirectory(ctx context.Context, w Walker, root string) (*ScanResult, error) {
	files, err := w.Files(ctx, root)
	if err != nil {
		return nil, err
	}
	return r.ScanFiles(ctx, files)
}

func (r *Resolver) scanFile(path string) (changed bool, aliases []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while resolving: %v", p)
		}
	}()

	data, err := r.fs.ReadFile(path)
	if err != nil {
		return false, nil, fmt.Errorf("failed to read: %w", err)
	}
	original := string(data)
	updated, aliases := r.Resolve(original)
	if updated == original {
		return false, nil, nil
	}

	mode := fsops.FileMode(r.fs, path, 0o644)
	if err := r.fs.AtomicWrite(path, []byte(updated), mode); err != nil {
		return false, nil, fmt.Errorf("failed to write: %w", err)
	}
	return true, aliases, nil
}
