package build

import (
	"fmt"
	"sort"

	"github.com/danieljhkim/conflictfix/internal/rules"
)

// TopFileLimit is the number of files listed in an Analysis.
const TopFileLimit = 5

// FileCount is the number of errors reported against one file.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Analysis summarizes the errors of one build.
type Analysis struct {
	TopFiles []FileCount `json:"topFiles"`
	// CategoryPercent is each category's share of all categorized errors.
	CategoryPercent map[rules.Category]float64 `json:"categoryPercent"`
	// MultiCategory counts errors that matched more than one category.
	MultiCategory   int      `json:"multiCategory"`
	Recommendations []string `json:"recommendations"`
}

// Analyze ranks files by error count, computes the category breakdown and
// derives recommendations.
func Analyze(errs []Diagnostic, byCategory map[rules.Category][]Diagnostic, table []rules.Rule) Analysis {
	a := Analysis{
		TopFiles:        topFiles(errs),
		CategoryPercent: make(map[rules.Category]float64),
		Recommendations: []string{},
	}

	counts := Counts(byCategory, table)
	total := Total(counts)
	if total > 0 {
		for c, n := range counts {
			if n > 0 {
				a.CategoryPercent[c] = float64(n) / float64(total) * 100
			}
		}
	}
	a.MultiCategory = multiCategory(byCategory)

	for _, r := range table {
		n := counts[r.Category]
		if n == 0 {
			continue
		}
		a.Recommendations = append(a.Recommendations, fmt.Sprintf(
			"Resolve %d %s conflict(s) (%.1f%% of categorized errors) with %s aliases",
			n, r.Category, a.CategoryPercent[r.Category], r.AliasPrefix))
	}
	if a.MultiCategory > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf(
			"%d error(s) matched more than one category and are counted in each", a.MultiCategory))
	}
	if len(a.TopFiles) > 0 {
		top := a.TopFiles[0]
		a.Recommendations = append(a.Recommendations, fmt.Sprintf(
			"Start with %s (%d error(s))", top.File, top.Count))
	}
	if uncategorized := countUncategorized(errs, byCategory); uncategorized > 0 {
		a.Recommendations = append(a.Recommendations, fmt.Sprintf(
			"%d error(s) are not ambiguous-reference conflicts and need manual fixes", uncategorized))
	}
	return a
}

func topFiles(errs []Diagnostic) []FileCount {
	counts := make(map[string]int)
	for _, d := range errs {
		counts[d.FilePath]++
	}
	out := make([]FileCount, 0, len(counts))
	for f, n := range counts {
		out = append(out, FileCount{File: f, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].File < out[j].File
	})
	if len(out) > TopFileLimit {
		out = out[:TopFileLimit]
	}
	return out
}

func multiCategory(byCategory map[rules.Category][]Diagnostic) int {
	hits := make(map[diagnosticKey]int)
	for _, ds := range byCategory {
		for _, d := range ds {
			hits[d.key()]++
		}
	}
	n := 0
	for _, h := range hits {
		if h > 1 {
			n++
		}
	}
	return n
}

func countUncategorized(errs []Diagnostic, byCategory map[rules.Category][]Diagnostic) int {
	matched := make(map[diagnosticKey]bool)
	for _, ds := range byCategory {
		for _, d := range ds {
			matched[d.key()] = true
		}
	}
	n := 0
	for _, d := range errs {
		if !matched[d.key()] {
			n++
		}
	}
	return n
}
