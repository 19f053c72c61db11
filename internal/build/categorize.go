package build

import (
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// Categorize assigns each error to every category whose rule matches it. One
// error may land in several categories; the association is additive.
func Categorize(errs []Diagnostic, table []rules.Rule) map[rules.Category][]Diagnostic {
	out := make(map[rules.Category][]Diagnostic)
	for _, d := range errs {
		for _, r := range table {
			if r.MatchesDiagnostic(d.Code, d.Message) {
				out[r.Category] = append(out[r.Category], d)
			}
		}
	}
	return out
}

// Counts returns the number of errors per category, with a zero entry for
// every category of table.
func Counts(byCategory map[rules.Category][]Diagnostic, table []rules.Rule) map[rules.Category]int {
	out := make(map[rules.Category]int, len(table))
	for _, r := range table {
		out[r.Category] = len(byCategory[r.Category])
	}
	return out
}

// Total sums the per-category counts. Errors in several categories are
// counted once per category.
func Total(counts map[rules.Category]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
