package engine

import (
	"fmt"
	"sort"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// analyze derives the run analysis. It has no side effects.
func analyze(initial, final *build.ValidationResult, steps []StepResult, session *backup.Session) *Analysis {
	a := &Analysis{
		InitialErrorCount: initial.ErrorCount,
		FinalErrorCount:   final.ErrorCount,
		FilesModified:     modifiedFiles(steps),
		TotalSteps:        len(steps),
		Recommendations:   []string{},
	}
	a.ErrorsResolved = max(0, a.InitialErrorCount-a.FinalErrorCount)
	a.EffectivenessPercent = Effectiveness(a.InitialErrorCount, a.FinalErrorCount)
	a.TotalFilesModified = len(a.FilesModified)

	var failed []StepResult
	for _, s := range steps {
		if s.Success {
			a.SuccessfulSteps++
		} else {
			failed = append(failed, s)
		}
	}

	if final.BuildSuccessful {
		if a.TotalSteps == 0 {
			a.Recommendations = append(a.Recommendations, "No ambiguous references found; nothing to do")
		} else {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("All ambiguous references resolved; %d file(s) updated and the build succeeds", a.TotalFilesModified),
				"Review the inserted using aliases and commit the changes")
		}
		if session != nil {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("Backup session %s can be cleaned up once the changes are verified", session.ID))
		}
		return a
	}

	for _, r := range remainingByCategory(final.ConflictCounts) {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("%d %s conflict(s) remain", r.count, r.category))
	}
	if other := a.FinalErrorCount - final.ConflictTotal(); other > 0 {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("%d remaining error(s) are unrelated to ambiguous references", other))
	}
	for _, s := range failed {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("Step %q failed: %s", s.StepName, s.ErrorMessage))
	}
	a.Recommendations = append(a.Recommendations, final.Analysis.Recommendations...)
	if session != nil {
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("To undo all changes run: conflictfix rollback %s", session.ID))
	}
	return a
}

// Effectiveness is the share of initial errors no longer present, in percent.
// A run that started without errors is 100% effective by convention.
func Effectiveness(initialErrors, finalErrors int) float64 {
	if initialErrors <= 0 {
		return 100
	}
	resolved := max(0, initialErrors-finalErrors)
	return float64(resolved) * 100 / float64(initialErrors)
}

// dryRunAnalysis summarizes what a real run would touch.
func dryRunAnalysis(det *detection) *Analysis {
	a := &Analysis{
		InitialErrorCount: det.initial.ErrorCount,
		FinalErrorCount:   det.initial.ErrorCount,
		FilesModified:     []string{},
		Recommendations:   []string{},
	}
	a.EffectivenessPercent = Effectiveness(a.InitialErrorCount, a.FinalErrorCount)

	total := 0
	for _, recs := range det.conflicts {
		total += len(recs)
	}
	if total == 0 {
		a.Recommendations = append(a.Recommendations, "No ambiguous references detected in source")
		return a
	}
	a.Recommendations = append(a.Recommendations,
		fmt.Sprintf("Run without --dry-run to resolve %d reference(s) in %d file(s)", total, len(det.files)))
	return a
}

func modifiedFiles(steps []StepResult) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range steps {
		for _, f := range s.FilesModified {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

type categoryCount struct {
	category rules.Category
	count    int
}

func remainingByCategory(counts map[rules.Category]int) []categoryCount {
	var out []categoryCount
	for c, n := range counts {
		if n > 0 {
			out = append(out, categoryCount{category: c, count: n})
		}
	}
	order := make(map[rules.Category]int, len(rules.Order))
	for i, c := range rules.Order {
		order[c] = i
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i].category]
		oj, jok := order[out[j].category]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return out[i].category < out[j].category
	})
	return out
}
