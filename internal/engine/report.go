package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// Headline returns the one-line verdict for a result.
func Headline(res *Result) string {
	switch res.Outcome {
	case OutcomeNoConflicts:
		return "No conflicts found"
	case OutcomeResolved:
		return "All conflicts resolved"
	case OutcomePartial:
		return "Resolved with remaining issues"
	case OutcomeDryRun:
		return "Dry run: no files were changed"
	default:
		if res.ErrorMessage != "" {
			return "Failed: " + res.ErrorMessage
		}
		return "Failed"
	}
}

// RenderReport renders a human-readable summary of res. It renders whatever
// the result holds, including partially populated results.
func RenderReport(res *Result) string {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	section := func(title string) {
		w("")
		w("== %s ==", title)
	}

	w("Conflict resolution report")
	w("Run:           %s", res.ID)
	w("Project:       %s", res.Root)
	w("Configuration: %s", res.Configuration)
	if !res.StartedAt.IsZero() {
		w("Started:       %s", res.StartedAt.Format(time.RFC3339))
	}
	if !res.FinishedAt.IsZero() && !res.StartedAt.IsZero() {
		w("Duration:      %s", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	}
	w("Result:        %s", Headline(res))

	section("Initial state")
	renderValidation(w, res.InitialValidation)

	section("Detected conflicts")
	if res.ConflictTotal() == 0 {
		w("  none")
	} else {
		for _, c := range categories(res.Conflicts) {
			recs := res.Conflicts[c]
			w("  %-12s %d reference(s) in %d file(s)", c, len(recs), len(rules.Files(recs)))
			for _, rec := range recs {
				w("    %s:%d:%d  %s (%s)", rec.FilePath, rec.Line, rec.Column, rec.Identifier, rec.Syntax)
			}
		}
	}

	if len(res.Steps) > 0 {
		section("Resolution steps")
		for i, s := range res.Steps {
			status := "ok"
			if !s.Success {
				status = "FAILED"
			}
			w("  %d. %-24s %-6s %d file(s), %d alias(es), %s",
				i+1, s.StepName, status, len(s.FilesModified), s.AliasesAdded, s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
			if s.ErrorMessage != "" {
				w("     error: %s", s.ErrorMessage)
			}
		}
	}

	if len(res.IntermediateValidations) > 0 || res.FinalValidation != nil {
		section("Final state")
		for i, v := range res.IntermediateValidations {
			w("  intermediate build %d: %s", i+1, validationLine(v))
		}
		renderValidation(w, res.FinalValidation)
	}

	if a := res.Analysis; a != nil {
		section("Analysis")
		w("  Errors:        %d -> %d (%d resolved)", a.InitialErrorCount, a.FinalErrorCount, a.ErrorsResolved)
		w("  Effectiveness: %.1f%%", a.EffectivenessPercent)
		w("  Steps:         %d/%d successful", a.SuccessfulSteps, a.TotalSteps)
		w("  Files changed: %d", a.TotalFilesModified)
		for _, f := range a.FilesModified {
			w("    %s", f)
		}
		if len(a.Recommendations) > 0 {
			w("  Recommendations:")
			for _, r := range a.Recommendations {
				w("    - %s", r)
			}
		}
	}

	section("Backup")
	if s := res.Backup; s != nil {
		w("  Session:   %s (%s)", s.ID, s.Name)
		w("  Directory: %s", s.BackupDirectory)
		w("  Files:     %d, %s", len(s.BackedUpFiles), humanize.Bytes(uint64(s.Size())))
		w("  Rollback:  conflictfix rollback %s", s.ID)
	} else {
		w("  no backup session")
	}

	if res.ErrorMessage != "" {
		section("Error")
		w("  %s", res.ErrorMessage)
	}
	return b.String()
}

func renderValidation(w func(string, ...any), v *build.ValidationResult) {
	if v == nil {
		w("  not available")
		return
	}
	w("  %s", validationLine(v))
	for _, c := range rules.Order {
		if n := v.ConflictCounts[c]; n > 0 {
			w("    %-12s %d error(s)", c, n)
		}
	}
	for _, f := range v.Analysis.TopFiles {
		w("    %s: %d error(s)", f.File, f.Count)
	}
	for _, msg := range v.ValidationErrors {
		w("    validation error: %s", msg)
	}
	for _, c := range v.FunctionalityChecks {
		status := "pass"
		if !c.Passed {
			status = "fail"
		}
		w("    check %s: %s %s", c.Name, status, c.Message)
	}
}

func validationLine(v *build.ValidationResult) string {
	status := "failed"
	if v.BuildSuccessful {
		status = "succeeded"
	}
	return fmt.Sprintf("build %s (exit %d), %d error(s), %d warning(s), %d categorized",
		status, v.ExitCode, v.ErrorCount, v.WarningCount, v.ConflictTotal())
}

func categories(m map[rules.Category][]rules.ConflictRecord) []rules.Category {
	order := make(map[rules.Category]int, len(rules.Order))
	for i, c := range rules.Order {
		order[c] = i + 1
	}
	out := make([]rules.Category, 0, len(m))
	for c, recs := range m {
		if len(recs) > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := order[out[i]], order[out[j]]
		if oi != oj {
			if oi == 0 {
				return false
			}
			if oj == 0 {
				return true
			}
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}
