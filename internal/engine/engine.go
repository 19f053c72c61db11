// Package engine orchestrates conflict resolution for one project.
//
// A run moves through five strictly sequential phases:
//   - Detect: baseline build plus per-category detection across the tree
//   - Backup: one session covering every implicated file
//   - Resolve: each category's resolver in fixed order, then an intermediate build
//   - Validate: the final build, whose failure invalidates the run
//   - Analyze: effectiveness arithmetic and recommendations
//
// Each phase is a function from the previous phase's output to its own; Run
// composes them and assembles the Result.
package engine

import (
	"context"
	"log/slog"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/resolver"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// Validator runs the project build.
type Validator interface {
	Validate(ctx context.Context, configuration string) (*build.ValidationResult, error)
}

// Resolver detects and rewrites one category of conflicts.
type Resolver interface {
	Category() rules.Category
	DetectDirectory(ctx context.Context, w resolver.Walker, root string) ([]rules.ConflictRecord, error)
	ScanFiles(ctx context.Context, paths []string) (*resolver.ScanResult, error)
}

// BackupStore snapshots and restores files.
type BackupStore interface {
	CreateBackup(ctx context.Context, files []string, name string) (*backup.Session, error)
	Rollback(sessionID string) (*backup.RollbackResult, error)
}

// Engine orchestrates all conflictfix operations.
// It is the main API surface called by the CLI.
type Engine struct {
	validator Validator
	resolvers []Resolver
	backups   BackupStore
	walker    resolver.Walker
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new Engine with the given dependencies. resolvers run in the
// order given.
func New(
	validator Validator,
	resolvers []Resolver,
	backups BackupStore,
	walker resolver.Walker,
	clk clock.Clock,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		validator: validator,
		resolvers: resolvers,
		backups:   backups,
		walker:    walker,
		clock:     clk,
		logger:    logging.OrDiscard(logger),
	}
}

// Categories returns the categories handled, in resolution order.
func (e *Engine) Categories() []rules.Category {
	out := make([]rules.Category, 0, len(e.resolvers))
	for _, r := range e.resolvers {
		out = append(out, r.Category())
	}
	return out
}

// Rollback restores the given backup session. An empty id is rejected: the
// caller must choose the session explicitly.
func (e *Engine) Rollback(sessionID string) (*backup.RollbackResult, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	return e.backups.Rollback(sessionID)
}
