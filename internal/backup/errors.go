package backup

import "errors"

var (
	// ErrSessionNotFound indicates the catalog has no session with the given id.
	ErrSessionNotFound = errors.New("backup session not found")

	// ErrNoSessions indicates the catalog is empty.
	ErrNoSessions = errors.New("no backup sessions")

	// ErrNoBackup indicates a backup was requested but no file was captured.
	ErrNoBackup = errors.New("no files were backed up")

	// ErrCatalogLocked indicates another process holds the catalog lock.
	ErrCatalogLocked = errors.New("backup catalog is locked")
)
