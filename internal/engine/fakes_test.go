package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/resolver"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// fakeValidator returns queued results in order, repeating the last one.
type fakeValidator struct {
	mu      sync.Mutex
	results []*build.ValidationResult
	errs    []error
	calls   int
}

func (f *fakeValidator) Validate(ctx context.Context, configuration string) (*build.ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	var res *build.ValidationResult
	var err error
	if len(f.results) > 0 {
		res = f.results[min(i, len(f.results)-1)]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return res, err
}

func cleanBuild() *build.ValidationResult {
	return &build.ValidationResult{
		Configuration:   "Debug",
		BuildSuccessful: true,
		ConflictCounts:  map[rules.Category]int{},
	}
}

func failingBuild(errorCount int, counts map[rules.Category]int) *build.ValidationResult {
	return &build.ValidationResult{
		Configuration:  "Debug",
		ExitCode:       1,
		ErrorCount:     errorCount,
		ConflictCounts: counts,
	}
}

// fakeResolver reports fixed records and modifies every file it is given.
type fakeResolver struct {
	category rules.Category
	records  []rules.ConflictRecord
	scanErr  error
	panics   bool
	failed   []resolver.FileError

	scanned [][]string
}

func (f *fakeResolver) Category() rules.Category { return f.category }

func (f *fakeResolver) DetectDirectory(ctx context.Context, w resolver.Walker, root string) ([]rules.ConflictRecord, error) {
	return f.records, nil
}

func (f *fakeResolver) ScanFiles(ctx context.Context, paths []string) (*resolver.ScanResult, error) {
	f.scanned = append(f.scanned, paths)
	if f.panics {
		panic("resolver exploded")
	}
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	res := &resolver.ScanResult{
		Category:     f.category,
		FilesScanned: len(paths),
		Modified:     append([]string{}, paths...),
		Aliases:      map[string][]string{},
		Failed:       f.failed,
	}
	for _, p := range paths {
		res.Aliases[p] = []string{"Alias"}
	}
	return res, nil
}

func record(c rules.Category, file string) rules.ConflictRecord {
	return rules.ConflictRecord{Category: c, FilePath: file, Line: 1, Column: 1, Identifier: "X", Syntax: rules.SyntaxDeclaration}
}

func fakeResolvers() []*fakeResolver {
	out := make([]*fakeResolver, 0, len(rules.Order))
	for _, c := range rules.Order {
		out = append(out, &fakeResolver{category: c})
	}
	return out
}

func asResolvers(fs []*fakeResolver) []Resolver {
	out := make([]Resolver, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

type fakeBackups struct {
	created   [][]string
	createErr error
	rolled    []string
}

func (f *fakeBackups) CreateBackup(ctx context.Context, files []string, name string) (*backup.Session, error) {
	f.created = append(f.created, files)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &backup.Session{ID: "session-1", Name: name, CreatedAt: testEpoch, BackupDirectory: "/backups/session-1"}, nil
}

func (f *fakeBackups) Rollback(sessionID string) (*backup.RollbackResult, error) {
	f.rolled = append(f.rolled, sessionID)
	if sessionID != "session-1" {
		return &backup.RollbackResult{SessionID: sessionID, Error: "not found"}, backup.ErrSessionNotFound
	}
	return &backup.RollbackResult{SessionID: sessionID, Success: true}, nil
}

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

var errBoom = errors.New("boom")

func newTestEngine(v Validator, rs []*fakeResolver, b BackupStore) *Engine {
	return New(v, asResolvers(rs), b, resolver.DefaultWalker(), clock.NewSteppingClock(testEpoch, time.Millisecond), logging.Discard())
}
