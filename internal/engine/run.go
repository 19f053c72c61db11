package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// detection is the output of the detect phase.
type detection struct {
	initial   *build.ValidationResult
	conflicts map[rules.Category][]rules.ConflictRecord
	files     []string
}

// needsResolution reports whether the baseline build attributed any error to
// a conflict category. Source matches alone never trigger a rewrite: a build
// that did not run or reported no ambiguity gives no evidence of conflicts.
func (d *detection) needsResolution() bool {
	return d.initial.ConflictTotal() > 0
}

// Run executes the five phases against req.Root. Failures in the detect,
// backup, resolve and analyze phases end the run with Success=false and
// ErrorMessage set; the partial result is returned with a nil error. A
// failure of the final build is returned as an error wrapping
// ErrFinalValidation, together with the partial result.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*Result, error) {
	res := &Result{
		ID:            uuid.NewString(),
		Root:          req.Root,
		Configuration: req.Configuration,
		StartedAt:     e.clock.Now(),
		Conflicts:     map[rules.Category][]rules.ConflictRecord{},
		Steps:         []StepResult{},
	}
	log := e.logger.With(slog.String("run", res.ID))
	defer func() { res.FinishedAt = e.clock.Now() }()

	if len(e.resolvers) == 0 {
		return e.fail(res, "detect", ErrNoResolvers), nil
	}

	// Phase 1
	log.Info("phase 1: detect", slog.String("root", req.Root))
	det, err := e.detect(ctx, req)
	if det != nil {
		res.InitialValidation = det.initial
		res.Conflicts = det.conflicts
	}
	if err != nil {
		return e.fail(res, "detect", err), nil
	}
	log.Info("baseline",
		slog.Int("errors", det.initial.ErrorCount),
		slog.Int("categorized", det.initial.ConflictTotal()),
		slog.Int("detected", res.ConflictTotal()),
		slog.Int("files", len(det.files)))

	if req.DryRun {
		res.Success = true
		res.Outcome = OutcomeDryRun
		res.Analysis = dryRunAnalysis(det)
		return res, nil
	}
	if !det.needsResolution() {
		if len(det.initial.ValidationErrors) > 0 {
			log.Warn("baseline build did not run; nothing rewritten",
				slog.String("error", det.initial.ValidationErrors[0]))
		}
		log.Info("no conflicts to resolve")
		res.Success = true
		res.Outcome = OutcomeNoConflicts
		res.Analysis = analyze(det.initial, det.initial, nil, nil)
		return res, nil
	}

	// Phase 2
	if req.CreateBackup {
		log.Info("phase 2: backup", slog.Int("files", len(det.files)))
		session, err := e.backup(ctx, req, det.files)
		res.Backup = session
		if err != nil {
			return e.fail(res, "backup", err), nil
		}
	}

	// Phase 3
	log.Info("phase 3: resolve")
	res.Steps = e.resolve(ctx, det.conflicts)
	if inter, err := e.validator.Validate(ctx, req.Configuration); err != nil {
		log.Warn("intermediate validation failed", slog.Any("error", err))
	} else if inter != nil {
		res.IntermediateValidations = append(res.IntermediateValidations, inter)
	}

	// Phase 4
	log.Info("phase 4: validate")
	final, err := e.validator.Validate(ctx, req.Configuration)
	res.FinalValidation = final
	if err != nil {
		e.fail(res, "validate", err)
		return res, fmt.Errorf("%w: %w", ErrFinalValidation, err)
	}

	// Phase 5
	analysis, err := safeAnalyze(det.initial, final, res.Steps, res.Backup)
	if err != nil {
		return e.fail(res, "analyze", err), nil
	}
	res.Analysis = analysis
	res.Success = final.BuildSuccessful
	if res.Success {
		res.Outcome = OutcomeResolved
	} else {
		res.Outcome = OutcomePartial
	}

	log.Info("run finished",
		slog.String("outcome", string(res.Outcome)),
		slog.Int("resolved", analysis.ErrorsResolved),
		slog.Int("files", analysis.TotalFilesModified))
	return res, nil
}

func (e *Engine) fail(res *Result, phase string, err error) *Result {
	res.Success = false
	res.Outcome = OutcomeFailed
	res.ErrorMessage = fmt.Sprintf("%s phase: %v", phase, err)
	e.logger.Error("run failed", slog.String("run", res.ID), slog.String("phase", phase), slog.Any("error", err))
	return res
}

// detect runs the baseline build and every category's detection.
func (e *Engine) detect(ctx context.Context, req *RunRequest) (det *detection, err error) {
	defer recoverInto(&err)

	initial, err := e.validator.Validate(ctx, req.Configuration)
	if err != nil {
		return &detection{initial: initial, conflicts: map[rules.Category][]rules.ConflictRecord{}}, fmt.Errorf("baseline build: %w", err)
	}

	det = &detection{initial: initial, conflicts: make(map[rules.Category][]rules.ConflictRecord, len(e.resolvers))}
	order := make([]rules.Category, 0, len(e.resolvers))
	for _, r := range e.resolvers {
		records, err := r.DetectDirectory(ctx, e.walker, req.Root)
		if err != nil {
			return det, fmt.Errorf("detect %s: %w", r.Category(), err)
		}
		det.conflicts[r.Category()] = records
		order = append(order, r.Category())
	}

	var all []rules.ConflictRecord
	for _, c := range order {
		all = append(all, det.conflicts[c]...)
	}
	det.files = rules.Files(all)
	return det, nil
}

// backup snapshots files. An empty file set needs no backup; a failure to
// capture any file aborts the run before resolution.
func (e *Engine) backup(ctx context.Context, req *RunRequest, files []string) (session *backup.Session, err error) {
	defer recoverInto(&err)

	if len(files) == 0 {
		e.logger.Info("no source files implicated, skipping backup")
		return nil, nil
	}
	name := req.BackupName
	if name == "" {
		name = "conflictfix " + req.Configuration
	}
	session, err = e.backups.CreateBackup(ctx, files, name)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	return session, nil
}

// resolve applies every resolver in order. A failing step is recorded and
// the next one still runs.
func (e *Engine) resolve(ctx context.Context, conflicts map[rules.Category][]rules.ConflictRecord) []StepResult {
	steps := make([]StepResult, 0, len(e.resolvers))
	for _, r := range e.resolvers {
		steps = append(steps, e.resolveStep(ctx, r, rules.Files(conflicts[r.Category()])))
	}
	return steps
}

func (e *Engine) resolveStep(ctx context.Context, r Resolver, files []string) (step StepResult) {
	step = StepResult{
		StepName:      "resolve " + string(r.Category()),
		Category:      r.Category(),
		StartTime:     e.clock.Now(),
		FilesModified: []string{},
	}
	defer func() {
		if p := recover(); p != nil {
			step.Success = false
			step.ErrorMessage = fmt.Sprintf("panic: %v", p)
		}
		step.EndTime = e.clock.Now()
		if !step.Success {
			e.logger.Warn("resolution step failed", slog.String("category", string(r.Category())), slog.String("error", step.ErrorMessage))
		}
	}()

	scan, err := r.ScanFiles(ctx, files)
	if scan != nil {
		step.FilesModified = append(step.FilesModified, scan.Modified...)
		for _, aliases := range scan.Aliases {
			step.AliasesAdded += len(aliases)
		}
	}
	if err != nil {
		step.ErrorMessage = err.Error()
		return step
	}
	if scan != nil && len(scan.Failed) > 0 {
		msgs := make([]string, 0, len(scan.Failed))
		for _, f := range scan.Failed {
			msgs = append(msgs, f.Path+": "+f.Err)
		}
		step.ErrorMessage = fmt.Sprintf("%d file(s) failed: %s", len(scan.Failed), strings.Join(msgs, "; "))
		return step
	}
	step.Success = true
	return step
}

func safeAnalyze(initial, final *build.ValidationResult, steps []StepResult, session *backup.Session) (a *Analysis, err error) {
	defer recoverInto(&err)
	if initial == nil || final == nil {
		return nil, errors.New("missing validation result")
	}
	return analyze(initial, final, steps, session), nil
}

func recoverInto(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("panic: %v", p)
	}
}
