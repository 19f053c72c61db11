// Package backup snapshots source files before they are rewritten and
// restores them on demand.
//
// Every session lives in its own directory below the backup root and is
// recorded in a JSON catalog. The catalog is the single source of truth: a
// session directory without a catalog entry is ignored. All catalog
// read-modify-write cycles run under an in-process mutex and an exclusive
// lock file, so concurrent runs against one backup root are serialized.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/config"
	"github.com/danieljhkim/conflictfix/internal/fsops"
	"github.com/danieljhkim/conflictfix/internal/hash"
	"github.com/danieljhkim/conflictfix/internal/logging"
)

const sessionTimeLayout = "20060102_150405"

// Manager owns the backup root and its catalog.
type Manager struct {
	fs      fsops.FS
	hasher  hash.Hasher
	clock   clock.Clock
	logger  *slog.Logger
	root    string
	catalog *catalogStore
	lock    *fileLock

	mu sync.Mutex
}

// NewManager creates a Manager storing sessions under paths.Backups.
func NewManager(paths *config.Paths, fs fsops.FS, hasher hash.Hasher, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		fs:      fs,
		hasher:  hasher,
		clock:   clk,
		logger:  logging.OrDiscard(logger).With(slog.String("component", "backup")),
		root:    paths.Backups,
		catalog: &catalogStore{fs: fs, path: paths.Catalog},
		lock:    &fileLock{path: paths.CatalogLock, wait: DefaultLockWait, stale: DefaultStaleLock},
	}
}

// SetLockTimeouts overrides how long to wait for the catalog lock and when a
// lock file counts as stale.
func (m *Manager) SetLockTimeouts(wait, stale time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lock.wait = wait
	m.lock.stale = stale
}

// withCatalog runs fn with exclusive access to the catalog.
func (m *Manager) withCatalog(fn func(cat *Catalog) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	release, err := m.lock.acquire()
	if err != nil {
		return err
	}
	defer release()

	cat, err := m.catalog.load()
	if err != nil {
		return err
	}
	return fn(cat)
}

// CreateBackup copies every existing file in files into a new session and
// appends it to the catalog. Missing files are skipped. A copy failure of an
// existing file aborts the session and removes its directory, as does
// cancellation. ErrNoBackup is returned when nothing could be captured.
func (m *Manager) CreateBackup(ctx context.Context, files []string, name string) (*Session, error) {
	var session *Session
	err := m.withCatalog(func(cat *Catalog) error {
		sources, err := m.existingFiles(files)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return ErrNoBackup
		}

		now := m.clock.Now()
		id := uuid.NewString()
		dir := filepath.Join(m.root, fmt.Sprintf("session_%s_%s", now.Format(sessionTimeLayout), id[:8]))
		if name == "" {
			name = "backup " + now.Format(time.RFC3339)
		}

		if err := m.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}

		s := &Session{
			ID:              id,
			Name:            name,
			CreatedAt:       now,
			BackupDirectory: dir,
			BackedUpFiles:   make([]FileInfo, 0, len(sources)),
		}

		base := commonDir(sources)
		for _, src := range sources {
			if err := ctx.Err(); err != nil {
				m.discard(dir)
				return err
			}
			info, err := m.copyOne(src, base, dir)
			if err != nil {
				m.discard(dir)
				return err
			}
			s.BackedUpFiles = append(s.BackedUpFiles, info)
		}

		cat.Sessions = append(cat.Sessions, *s)
		if err := m.catalog.save(cat); err != nil {
			m.discard(dir)
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("backup session created",
		slog.String("session", session.ID),
		slog.Int("files", len(session.BackedUpFiles)),
		slog.String("dir", session.BackupDirectory))
	return session, nil
}

// existingFiles returns the distinct absolute paths of the regular files in
// files that exist, in input order.
func (m *Manager) existingFiles(files []string) ([]string, error) {
	seen := make(map[string]bool, len(files))
	var out []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		info, err := m.fs.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				m.logger.Debug("skipping missing file", slog.String("path", abs))
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
		}
		if !info.Mode().IsRegular() {
			m.logger.Debug("skipping non-regular file", slog.String("path", abs))
			continue
		}
		out = append(out, abs)
	}
	return out, nil
}

func (m *Manager) copyOne(src, base, dir string) (FileInfo, error) {
	info, err := m.fs.Stat(src)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %s: %w", src, err)
	}

	rel, err := filepath.Rel(base, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(src)
	}
	dst := filepath.Join(dir, rel+".backup")

	n, err := m.fs.CopyFile(src, dst)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to back up %s: %w", src, err)
	}
	sum, err := m.hasher.HashFile(dst)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to checksum backup of %s: %w", src, err)
	}

	return FileInfo{
		OriginalPath:  src,
		BackupPath:    dst,
		FileSize:      n,
		LastModified:  info.ModTime(),
		BackupCreated: m.clock.Now(),
		Checksum:      sum,
	}, nil
}

func (m *Manager) discard(dir string) {
	if err := m.fs.RemoveAll(dir); err != nil {
		m.logger.Warn("failed to remove incomplete session", slog.String("dir", dir), slog.Any("error", err))
	}
}

// Rollback restores every file of the session to its original path, creating
// parent directories as needed. Every file is attempted; the result succeeds
// only when none failed. An unknown id yields an unsuccessful result and an
// error wrapping ErrSessionNotFound, with no file touched.
func (m *Manager) Rollback(sessionID string) (*RollbackResult, error) {
	res := &RollbackResult{SessionID: sessionID, Restored: []string{}}

	var session *Session
	err := m.withCatalog(func(cat *Catalog) error {
		s, err := find(cat, sessionID)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		res.Error = err.Error()
		return res, err
	}

	for _, f := range session.BackedUpFiles {
		if err := m.restoreOne(f); err != nil {
			m.logger.Warn("failed to restore file", slog.String("path", f.OriginalPath), slog.Any("error", err))
			res.Failed = append(res.Failed, FileError{Path: f.OriginalPath, Err: err.Error()})
			continue
		}
		res.Restored = append(res.Restored, f.OriginalPath)
	}

	res.Success = len(res.Failed) == 0
	if !res.Success {
		res.Error = fmt.Sprintf("%d of %d files failed to restore", len(res.Failed), len(session.BackedUpFiles))
	}
	m.logger.Info("rollback finished",
		slog.String("session", sessionID),
		slog.Int("restored", len(res.Restored)),
		slog.Int("failed", len(res.Failed)))
	return res, nil
}

func (m *Manager) restoreOne(f FileInfo) error {
	data, err := m.fs.ReadFile(f.BackupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if f.Checksum != "" && m.hasher.HashBytes(data) != f.Checksum {
		return fmt.Errorf("backup checksum mismatch for %s", f.BackupPath)
	}
	mode := fsops.FileMode(m.fs, f.OriginalPath, fsops.FileMode(m.fs, f.BackupPath, 0644))
	if err := m.fs.AtomicWrite(f.OriginalPath, data, mode); err != nil {
		return fmt.Errorf("failed to restore: %w", err)
	}
	return nil
}

// ListSessions returns every catalogued session, oldest first.
func (m *Manager) ListSessions() ([]Session, error) {
	var out []Session
	err := m.withCatalog(func(cat *Catalog) error {
		out = append([]Session{}, cat.Sessions...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(sessionID string) (*Session, error) {
	var out *Session
	err := m.withCatalog(func(cat *Catalog) error {
		s, err := find(cat, sessionID)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// Latest returns the most recently created session.
func (m *Manager) Latest() (*Session, error) {
	sessions, err := m.ListSessions()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	latest := sessions[len(sessions)-1]
	return &latest, nil
}

// CleanupOlderThan deletes every session created at or before now-maxAge and
// drops it from the catalog. A session whose directory cannot be deleted keeps
// its catalog entry and the cleanup continues.
func (m *Manager) CleanupOlderThan(maxAge time.Duration) (*CleanupResult, error) {
	res := &CleanupResult{Removed: []string{}}
	cutoff := m.clock.Now().Add(-maxAge)

	err := m.withCatalog(func(cat *Catalog) error {
		kept := make([]Session, 0, len(cat.Sessions))
		for _, s := range cat.Sessions {
			if s.CreatedAt.After(cutoff) {
				kept = append(kept, s)
				continue
			}
			if err := m.fs.RemoveAll(s.BackupDirectory); err != nil {
				m.logger.Warn("failed to delete session", slog.String("session", s.ID), slog.Any("error", err))
				res.Failed = append(res.Failed, FileError{Path: s.BackupDirectory, Err: err.Error()})
				kept = append(kept, s)
				continue
			}
			res.Removed = append(res.Removed, s.ID)
		}
		res.Kept = len(kept)
		if len(res.Removed) == 0 {
			return nil
		}
		cat.Sessions = kept
		return m.catalog.save(cat)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("backup cleanup finished",
		slog.Int("removed", len(res.Removed)),
		slog.Int("kept", res.Kept))
	return res, nil
}

// TotalBackupSize sums the on-disk size of every catalogued session directory.
func (m *Manager) TotalBackupSize() (int64, error) {
	sessions, err := m.ListSessions()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, s := range sessions {
		n, err := m.fs.DirSize(s.BackupDirectory)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Verify checks every backup copy of the session against its checksum.
func (m *Manager) Verify(sessionID string) (*VerifyResult, error) {
	session, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{SessionID: sessionID}
	for _, f := range session.BackedUpFiles {
		res.Checked++
		sum, err := m.hasher.HashFile(f.BackupPath)
		if err != nil {
			res.Missing = append(res.Missing, f.BackupPath)
			continue
		}
		if f.Checksum != "" && sum != f.Checksum {
			res.Mismatched = append(res.Mismatched, f.BackupPath)
		}
	}
	return res, nil
}

func find(cat *Catalog, id string) (*Session, error) {
	for i := range cat.Sessions {
		if cat.Sessions[i].ID == id {
			s := cat.Sessions[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for !within(dir, common) {
			parent := filepath.Dir(common)
			if parent == common {
				return common
			}
			common = parent
		}
	}
	return common
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
