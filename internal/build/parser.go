package build

import (
	"regexp"
	"strconv"
	"strings"
)

// Severity is the level of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one parsed compiler error or warning.
type Diagnostic struct {
	FilePath string   `json:"filePath"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	RawText  string   `json:"rawText"`
}

// Location renders path(line,col).
func (d Diagnostic) Location() string {
	return d.FilePath + "(" + strconv.Itoa(d.Line) + "," + strconv.Itoa(d.Column) + ")"
}

// ParseResult holds the diagnostics found in build output.
type ParseResult struct {
	Errors   []Diagnostic
	Warnings []Diagnostic

	// ErrorCount and WarningCount are the summary-line totals when the output
	// has them, otherwise the number of parsed diagnostics.
	ErrorCount   int
	WarningCount int

	// SummaryFound reports whether a summary line set either count.
	SummaryFound bool
}

var (
	// path(line,col[,endLine,endCol]): error|warning CODE: message [project]
	diagnosticLine = regexp.MustCompile(`^\s*(?:\d+>)?(.+?)\((\d+),(\d+)(?:,\d+,\d+)?\)\s*:\s*(error|warning)\s+([A-Za-z]+\d+)\s*:\s*(.*?)(?:\s+\[[^\]]+\])?\s*$`)

	errorSummary   = regexp.MustCompile(`(?i)^\s*(\d+)\s+Error\(s\)`)
	warningSummary = regexp.MustCompile(`(?i)^\s*(\d+)\s+Warning\(s\)`)
)

type diagnosticKey struct {
	file      string
	line, col int
	code, msg string
}

func (d Diagnostic) key() diagnosticKey {
	return diagnosticKey{file: d.FilePath, line: d.Line, col: d.Column, code: d.Code, msg: d.Message}
}

// ParseOutput extracts diagnostics from build output lines. MSBuild repeats
// every diagnostic in its closing summary, so identical diagnostics are kept
// once.
func ParseOutput(lines []string) *ParseResult {
	res := &ParseResult{Errors: []Diagnostic{}, Warnings: []Diagnostic{}}
	seen := make(map[diagnosticKey]bool)
	errorTotal, warningTotal := -1, -1

	for _, line := range lines {
		if m := errorSummary.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				errorTotal = n
			}
			continue
		}
		if m := warningSummary.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				warningTotal = n
			}
			continue
		}

		d, ok := parseDiagnostic(line)
		if !ok {
			continue
		}
		key := d.key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if d.Severity == SeverityError {
			res.Errors = append(res.Errors, d)
		} else {
			res.Warnings = append(res.Warnings, d)
		}
	}

	res.ErrorCount = len(res.Errors)
	res.WarningCount = len(res.Warnings)
	if errorTotal >= 0 {
		res.ErrorCount = errorTotal
		res.SummaryFound = true
	}
	if warningTotal >= 0 {
		res.WarningCount = warningTotal
		res.SummaryFound = true
	}
	return res
}

func parseDiagnostic(line string) (Diagnostic, bool) {
	m := diagnosticLine.FindStringSubmatch(line)
	if m == nil {
		return Diagnostic{}, false
	}
	ln, err := strconv.Atoi(m[2])
	if err != nil {
		return Diagnostic{}, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return Diagnostic{}, false
	}
	return Diagnostic{
		FilePath: strings.TrimSpace(m[1]),
		Line:     ln,
		Column:   col,
		Severity: Severity(strings.ToLower(m[4])),
		Code:     m[5],
		Message:  m[6],
		RawText:  line,
	}, true
}
