package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/conflictfix/internal/rules"
)

const ambiguousTaskDialog = `Foo.cs(12,5): error CS0104: 'TaskDialog' is an ambiguous reference between 'A.TaskDialog' and 'B.TaskDialog'`

func TestParseOutput_AmbiguousReference(t *testing.T) {
	res := ParseOutput([]string{"Build started.", ambiguousTaskDialog})

	assert.Equal(t, 1, res.ErrorCount)
	assert.False(t, res.SummaryFound)
	require.Len(t, res.Errors, 1)
	d := res.Errors[0]
	assert.Equal(t, "Foo.cs", d.FilePath)
	assert.Equal(t, 12, d.Line)
	assert.Equal(t, 5, d.Column)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "CS0104", d.Code)
	assert.Equal(t, "'TaskDialog' is an ambiguous reference between 'A.TaskDialog' and 'B.TaskDialog'", d.Message)
	assert.Equal(t, ambiguousTaskDialog, d.RawText)
	assert.Equal(t, "Foo.cs(12,5)", d.Location())

	byCategory := Categorize(res.Errors, rules.Default())
	require.Len(t, byCategory[rules.CategoryDialog], 1)
	assert.Equal(t, "CS0104", byCategory[rules.CategoryDialog][0].Code)
}

func TestParseOutput_Forms(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		file     string
		severity Severity
		code     string
		message  string
	}{
		{
			name:     "project suffix",
			line:     `C:\src\App\Main.cs(3,17): error CS0104: 'MessageBox' is an ambiguous reference between 'System.Windows.Forms.MessageBox' and 'System.Windows.MessageBox' [C:\src\App\App.csproj]`,
			file:     `C:\src\App\Main.cs`,
			severity: SeverityError,
			code:     "CS0104",
			message:  "'MessageBox' is an ambiguous reference between 'System.Windows.Forms.MessageBox' and 'System.Windows.MessageBox'",
		},
		{
			name:     "node prefix and range",
			line:     `  2>src/View.cs(8,9,8,13): warning CS0168: The variable 'v' is declared but never used`,
			file:     "src/View.cs",
			severity: SeverityWarning,
			code:     "CS0168",
			message:  "The variable 'v' is declared but never used",
		},
		{
			name:     "path with spaces",
			line:     `/home/me/My Project/A.cs(1,1): error CS1002: ; expected`,
			file:     "/home/me/My Project/A.cs",
			severity: SeverityError,
			code:     "CS1002",
			message:  "; expected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := parseDiagnostic(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.file, d.FilePath)
			assert.Equal(t, tt.severity, d.Severity)
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.message, d.Message)
		})
	}
}

func TestParseOutput_IgnoresNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"Build succeeded.",
		"Time Elapsed 00:00:01.23",
		"CSC : error CS2001: Source file 'x.cs' could not be found.",
		"Foo.cs(a,b): error CS0104: nope",
	} {
		_, ok := parseDiagnostic(line)
		assert.False(t, ok, line)
	}
}

func TestParseOutput_SummaryOverridesTally(t *testing.T) {
	lines := []string{
		ambiguousTaskDialog,
		"Bar.cs(1,1): warning CS0168: unused",
		"Build FAILED.",
		ambiguousTaskDialog,
		"    3 Warning(s)",
		"    4 Error(s)",
	}
	res := ParseOutput(lines)
	assert.True(t, res.SummaryFound)
	assert.Len(t, res.Errors, 1, "repeated diagnostics are kept once")
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 4, res.ErrorCount)
	assert.Equal(t, 3, res.WarningCount)
}

func TestParseOutput_SummaryCaseInsensitive(t *testing.T) {
	res := ParseOutput([]string{"0 error(s)", "0 WARNING(S)"})
	assert.True(t, res.SummaryFound)
	assert.Equal(t, 0, res.ErrorCount)
	assert.Equal(t, 0, res.WarningCount)
}

func TestCategorize_Additive(t *testing.T) {
	errs := ParseOutput([]string{
		`A.cs(1,1): error CS0104: 'OpenFileDialog' is an ambiguous reference between 'Microsoft.Win32.OpenFileDialog' and 'System.Windows.Forms.OpenFileDialog'`,
		`B.cs(2,2): error CS0104: 'Button' is an ambiguous reference between 'System.Windows.Controls.Button' and 'System.Windows.Forms.Button'`,
		`C.cs(3,3): error CS0246: The type or namespace name 'Foo' could not be found`,
	}).Errors

	table := rules.Default()
	byCategory := Categorize(errs, table)
	counts := Counts(byCategory, table)

	assert.Equal(t, 1, counts[rules.CategoryDialog], "file dialog names also carry the dialog hint")
	assert.Equal(t, 1, counts[rules.CategoryFileDialog])
	assert.Equal(t, 1, counts[rules.CategoryControl])
	assert.Equal(t, 0, counts[rules.CategoryMessageBox])
	assert.Equal(t, 0, counts[rules.CategoryView])
	assert.Len(t, counts, len(table))
	assert.Equal(t, 3, Total(counts))
}

func TestAnalyze(t *testing.T) {
	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines, `Main.cs(`+string(rune('1'+i))+`,1): error CS0104: 'MessageBox' is an ambiguous reference between 'System.Windows.Forms.MessageBox' and 'System.Windows.MessageBox'`)
	}
	lines = append(lines,
		`Panel.cs(1,1): error CS0104: 'Button' is an ambiguous reference between 'System.Windows.Controls.Button' and 'System.Windows.Forms.Button'`,
		`Other.cs(1,1): error CS0246: The type or namespace name 'Foo' could not be found`,
	)
	errs := ParseOutput(lines).Errors
	table := rules.Default()
	a := Analyze(errs, Categorize(errs, table), table)

	require.NotEmpty(t, a.TopFiles)
	assert.Equal(t, FileCount{File: "Main.cs", Count: 3}, a.TopFiles[0])
	assert.Len(t, a.TopFiles, 3)
	assert.InDelta(t, 75.0, a.CategoryPercent[rules.CategoryMessageBox], 0.001)
	assert.InDelta(t, 25.0, a.CategoryPercent[rules.CategoryControl], 0.001)
	assert.Equal(t, 0, a.MultiCategory)
	assert.Contains(t, a.Recommendations, "Resolve 3 message-box conflict(s) (75.0% of categorized errors) with Wpf aliases")
	assert.Contains(t, a.Recommendations, "Start with Main.cs (3 error(s))")
	assert.Contains(t, a.Recommendations, "1 error(s) are not ambiguous-reference conflicts and need manual fixes")
}

func TestAnalyze_TopFilesLimit(t *testing.T) {
	var errs []Diagnostic
	for _, f := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		errs = append(errs, Diagnostic{FilePath: f + ".cs", Code: "CS1", Message: f})
	}
	a := Analyze(errs, nil, rules.Default())
	require.Len(t, a.TopFiles, TopFileLimit)
	assert.Equal(t, "a.cs", a.TopFiles[0].File)
	assert.Empty(t, a.CategoryPercent)
}
