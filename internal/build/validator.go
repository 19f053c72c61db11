package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// Options describes how to invoke the build tool.
type Options struct {
	Command string
	// Args precede the configuration arguments. An argument containing
	// "{configuration}" or "{verbosity}" is expanded in place; when none does,
	// "-c <configuration> -v <verbosity>" is appended.
	Args      []string
	Dir       string
	Verbosity string
}

// ValidationResult is a point-in-time snapshot of one build.
type ValidationResult struct {
	Configuration   string       `json:"configuration"`
	BuildSuccessful bool         `json:"buildSuccessful"`
	ExitCode        int          `json:"exitCode"`
	ErrorCount      int          `json:"errorCount"`
	WarningCount    int          `json:"warningCount"`
	Errors          []Diagnostic `json:"errors"`
	Warnings        []Diagnostic `json:"warnings"`

	ConflictCounts      map[rules.Category]int `json:"conflictCounts"`
	Analysis            Analysis               `json:"analysis"`
	FunctionalityChecks []CheckResult          `json:"functionalityChecks,omitempty"`
	ValidationErrors    []string               `json:"validationErrors,omitempty"`

	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
}

// ConflictTotal sums the per-category conflict counts.
func (r *ValidationResult) ConflictTotal() int {
	return Total(r.ConflictCounts)
}

// Validator runs the build and turns its output into a ValidationResult.
type Validator struct {
	runner Runner
	opts   Options
	table  []rules.Rule
	checks []FunctionalityCheck
	clock  clock.Clock
	logger *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(runner Runner, opts Options, table []rules.Rule, clk clock.Clock, logger *slog.Logger, checks ...FunctionalityCheck) *Validator {
	if opts.Verbosity == "" {
		opts.Verbosity = "normal"
	}
	return &Validator{
		runner: runner,
		opts:   opts,
		table:  table,
		checks: checks,
		clock:  clk,
		logger: logging.OrDiscard(logger).With(slog.String("component", "build")),
	}
}

// Invocation returns the command line used for configuration.
func (v *Validator) Invocation(configuration string) Invocation {
	args := make([]string, 0, len(v.opts.Args)+4)
	templated := false
	for _, a := range v.opts.Args {
		if strings.Contains(a, "{configuration}") || strings.Contains(a, "{verbosity}") {
			templated = true
		}
		args = append(args, expand(a, configuration, v.opts.Verbosity))
	}
	if !templated {
		args = append(args, "-c", configuration, "-v", v.opts.Verbosity)
	}
	return Invocation{Command: v.opts.Command, Args: args, Dir: v.opts.Dir}
}

// Validate builds the project with configuration. Launch failures and
// unexpected parse failures are recorded in ValidationErrors with
// BuildSuccessful false; only cancellation and timeout are returned as
// errors, together with the partial result.
func (v *Validator) Validate(ctx context.Context, configuration string) (res *ValidationResult, err error) {
	res = &ValidationResult{
		Configuration:  configuration,
		ExitCode:       -1,
		Errors:         []Diagnostic{},
		Warnings:       []Diagnostic{},
		ConflictCounts: Counts(nil, v.table),
		StartedAt:      v.clock.Now(),
	}
	defer func() {
		res.FinishedAt = v.clock.Now()
		res.Duration = res.FinishedAt.Sub(res.StartedAt)
	}()

	inv := v.Invocation(configuration)
	v.logger.Info("running build", slog.String("cmd", inv.String()), slog.String("configuration", configuration))

	out, runErr := v.runner.Run(ctx, inv)
	if runErr != nil {
		res.ValidationErrors = append(res.ValidationErrors, runErr.Error())
		var timeout *TimeoutError
		if errors.As(runErr, &timeout) || errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			v.absorb(res, out)
			return res, runErr
		}
		v.logger.Warn("build could not run", slog.Any("error", runErr))
		v.absorb(res, out)
		res.BuildSuccessful = false
		return res, nil
	}

	v.absorb(res, out)
	res.ExitCode = out.ExitCode
	res.BuildSuccessful = out.ExitCode == 0

	if res.BuildSuccessful {
		res.FunctionalityChecks = v.runChecks(ctx, configuration)
	}

	v.logger.Info("build finished",
		slog.Bool("success", res.BuildSuccessful),
		slog.Int("exit", res.ExitCode),
		slog.Int("errors", res.ErrorCount),
		slog.Int("warnings", res.WarningCount),
		slog.Int("conflicts", res.ConflictTotal()))
	return res, nil
}

// absorb parses out into res. A panic while parsing is recorded rather than
// propagated.
func (v *Validator) absorb(res *ValidationResult, out *Output) {
	if out == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			res.ValidationErrors = append(res.ValidationErrors, fmt.Sprintf("failed to parse build output: %v", p))
			res.BuildSuccessful = false
		}
	}()

	parsed := ParseOutput(out.Lines)
	res.Errors = parsed.Errors
	res.Warnings = parsed.Warnings
	res.ErrorCount = parsed.ErrorCount
	res.WarningCount = parsed.WarningCount

	byCategory := Categorize(parsed.Errors, v.table)
	res.ConflictCounts = Counts(byCategory, v.table)
	res.Analysis = Analyze(parsed.Errors, byCategory, v.table)
}

func (v *Validator) runChecks(ctx context.Context, configuration string) []CheckResult {
	if len(v.checks) == 0 {
		return nil
	}
	cc := CheckContext{Dir: v.opts.Dir, Configuration: configuration}
	results := make([]CheckResult, 0, len(v.checks))
	for _, c := range v.checks {
		results = append(results, runCheck(ctx, c, cc))
	}
	return results
}

func runCheck(ctx context.Context, c FunctionalityCheck, cc CheckContext) (res CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			res = CheckResult{Name: c.Name(), Message: fmt.Sprintf("check panicked: %v", p)}
		}
	}()
	return c.Run(ctx, cc)
}

func expand(s, configuration, verbosity string) string {
	return strings.NewReplacer("{configuration}", configuration, "{verbosity}", verbosity).Replace(s)
}

func dirFS(dir string) fs.FS {
	if dir == "" {
		dir = "."
	}
	return os.DirFS(dir)
}
