package backup

import "time"

// FileInfo describes one file captured in a session.
type FileInfo struct {
	// OriginalPath is the absolute path the file is restored to
	OriginalPath string `json:"originalPath"`

	// BackupPath is the absolute path of the copy inside the session directory
	BackupPath string `json:"backupPath"`

	FileSize      int64     `json:"fileSize"`
	LastModified  time.Time `json:"lastModified"`
	BackupCreated time.Time `json:"backupCreated"`

	// Checksum is the SHA-256 of the captured bytes
	Checksum string `json:"checksum,omitempty"`
}

// Session is one snapshot of a file set, restorable as a unit.
type Session struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CreatedAt       time.Time  `json:"createdAt"`
	BackupDirectory string     `json:"backupDirectory"`
	BackedUpFiles   []FileInfo `json:"backedUpFiles"`
}

// Size returns the sum of the captured file sizes.
func (s Session) Size() int64 {
	var total int64
	for _, f := range s.BackedUpFiles {
		total += f.FileSize
	}
	return total
}

// Catalog is the durable list of every session. A session directory without a
// catalog entry is orphaned and ignored.
type Catalog struct {
	Sessions []Session `json:"sessions"`
}

// FileError records a per-file failure.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// RollbackResult reports the outcome of restoring a session.
type RollbackResult struct {
	SessionID string      `json:"sessionId"`
	Restored  []string    `json:"restored"`
	Failed    []FileError `json:"failed,omitempty"`
	// Success is true when every file was restored
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CleanupResult reports the sessions removed by CleanupOlderThan.
type CleanupResult struct {
	Removed []string    `json:"removed"`
	Failed  []FileError `json:"failed,omitempty"`
	Kept    int         `json:"kept"`
}

// VerifyResult reports the integrity of a session's backup copies.
type VerifyResult struct {
	SessionID  string   `json:"sessionId"`
	Checked    int      `json:"checked"`
	Missing    []string `json:"missing,omitempty"`
	Mismatched []string `json:"mismatched,omitempty"`
}

// OK reports whether every backup copy is present and intact.
func (v *VerifyResult) OK() bool {
	return len(v.Missing) == 0 && len(v.Mismatched) == 0
}
