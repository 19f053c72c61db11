package backup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLockWait bounds how long an operation waits for the catalog lock.
	DefaultLockWait = 10 * time.Second

	// DefaultStaleLock is the age after which a lock file left behind by a
	// crashed process is broken.
	DefaultStaleLock = 5 * time.Minute

	lockPoll = 50 * time.Millisecond
)

// fileLock is an exclusive lock file created with O_EXCL. It serializes
// catalog read-modify-write cycles across processes.
//
// The file holds a token unique to the holder. While held it is touched every
// stale/3, and release removes it only if it still carries that token.
type fileLock struct {
	path  string
	wait  time.Duration
	stale time.Duration
}

// acquire blocks until the lock is held or wait elapses.
func (l *fileLock) acquire() (release func(), err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	token := []byte(uuid.NewString() + " " + strconv.Itoa(os.Getpid()))
	deadline := time.Now().Add(l.wait)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.Write(token)
			cerr := f.Close()
			if err := errors.Join(werr, cerr); err != nil {
				_ = os.Remove(l.path)
				return nil, fmt.Errorf("failed to write lock file: %w", err)
			}
			return l.hold(token), nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lock file: %w", err)
		}

		if owner, ok := l.staleOwner(); ok && l.breakStale(owner) {
			continue
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogLocked, l.path)
		}
		time.Sleep(lockPoll)
	}
}

// hold keeps the lock fresh until the returned release is called.
func (l *fileLock) hold(token []byte) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if l.stale <= 0 {
			<-done
			return
		}
		ticker := time.NewTicker(l.stale / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if l.owns(token) {
					now := time.Now()
					_ = os.Chtimes(l.path, now, now)
				}
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
		if l.owns(token) {
			_ = os.Remove(l.path)
		}
	}
}

// staleOwner returns the contents of the lock file when it is older than the
// stale threshold.
func (l *fileLock) staleOwner() ([]byte, bool) {
	if l.stale <= 0 {
		return nil, false
	}
	info, err := os.Stat(l.path)
	if err != nil || time.Since(info.ModTime()) <= l.stale {
		return nil, false
	}
	owner, err := os.ReadFile(l.path)
	if err != nil {
		return nil, false
	}
	return owner, true
}

// breakStale moves the lock file aside and deletes it only if it still holds
// owner. A lock that changed hands since owner was read is put back.
func (l *fileLock) breakStale(owner []byte) bool {
	aside := l.path + ".stale-" + uuid.NewString()
	if err := os.Rename(l.path, aside); err != nil {
		// Gone already; the next create attempt decides.
		return errors.Is(err, os.ErrNotExist)
	}
	got, err := os.ReadFile(aside)
	if err == nil && bytes.Equal(got, owner) {
		_ = os.Remove(aside)
		return true
	}
	// Restore without clobbering a lock created in the meantime.
	if err := os.Link(aside, l.path); err != nil && !errors.Is(err, os.ErrExist) {
		_ = os.Rename(aside, l.path)
		return false
	}
	_ = os.Remove(aside)
	return false
}

func (l *fileLock) owns(token []byte) bool {
	got, err := os.ReadFile(l.path)
	return err == nil && bytes.Equal(got, token)
}
