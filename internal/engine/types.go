package engine

import (
	"time"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// RunRequest represents a request to detect and resolve conflicts in a
// project.
type RunRequest struct {
	// Root is the project directory to scan
	Root string

	// Configuration is the build configuration (e.g. Debug, Release)
	Configuration string

	// CreateBackup snapshots every implicated file before rewriting
	CreateBackup bool

	// BackupName labels the backup session
	BackupName string

	// DryRun stops after detection and reports what would be resolved
	DryRun bool
}

// Outcome classifies a finished run for reporting.
type Outcome string

const (
	OutcomeNoConflicts Outcome = "no-conflicts"
	OutcomeResolved    Outcome = "resolved"
	OutcomePartial     Outcome = "partial"
	OutcomeFailed      Outcome = "failed"
	OutcomeDryRun      Outcome = "dry-run"
)

// StepResult is the outcome of applying one category's resolver.
type StepResult struct {
	StepName     string         `json:"stepName"`
	Category     rules.Category `json:"category"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"errorMessage,omitempty"`

	// FilesModified lists, in order, the files the step rewrote
	FilesModified []string `json:"filesModified"`

	// AliasesAdded counts the alias directives inserted
	AliasesAdded int `json:"aliasesAdded"`
}

// Analysis is derived from the initial and final builds and the steps.
type Analysis struct {
	InitialErrorCount    int      `json:"initialErrorCount"`
	FinalErrorCount      int      `json:"finalErrorCount"`
	ErrorsResolved       int      `json:"errorsResolved"`
	EffectivenessPercent float64  `json:"effectivenessPercent"`
	TotalFilesModified   int      `json:"totalFilesModified"`
	FilesModified        []string `json:"filesModified"`
	SuccessfulSteps      int      `json:"successfulSteps"`
	TotalSteps           int      `json:"totalSteps"`
	Recommendations      []string `json:"recommendations"`
}

// Result aggregates one orchestration run. Fields are filled phase by phase;
// a run that stops early still carries everything produced so far.
type Result struct {
	ID            string    `json:"id"`
	Root          string    `json:"root"`
	Configuration string    `json:"configuration"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`

	Success      bool    `json:"success"`
	Outcome      Outcome `json:"outcome"`
	ErrorMessage string  `json:"errorMessage,omitempty"`

	InitialValidation *build.ValidationResult                   `json:"initialValidation,omitempty"`
	Conflicts         map[rules.Category][]rules.ConflictRecord `json:"conflicts"`
	Backup            *backup.Session                           `json:"backup,omitempty"`
	Steps             []StepResult                              `json:"steps"`

	IntermediateValidations []*build.ValidationResult `json:"intermediateValidations,omitempty"`
	FinalValidation         *build.ValidationResult   `json:"finalValidation,omitempty"`
	Analysis                *Analysis                 `json:"analysis,omitempty"`
}

// ConflictTotal returns the number of detected conflict records.
func (r *Result) ConflictTotal() int {
	n := 0
	for _, recs := range r.Conflicts {
		n += len(recs)
	}
	return n
}

// ConflictFiles returns the distinct files implicated by detection, following
// order.
func (r *Result) ConflictFiles(order []rules.Category) []string {
	var all []rules.ConflictRecord
	for _, c := range order {
		all = append(all, r.Conflicts[c]...)
	}
	return rules.Files(all)
}
