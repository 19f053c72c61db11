package build

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// CheckResult is the outcome of one post-build functionality check.
type CheckResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// CheckContext tells a check where the build ran.
type CheckContext struct {
	Dir           string
	Configuration string
}

// FunctionalityCheck runs after a successful build. Its result is reported
// alongside the build but never changes the build outcome or error counts.
type FunctionalityCheck interface {
	Name() string
	Run(ctx context.Context, cc CheckContext) CheckResult
}

// AssemblyCheck confirms the build produced at least one assembly under
// bin/<configuration>.
type AssemblyCheck struct {
	// Pattern overrides the doublestar glob, relative to the build directory.
	// "{configuration}" is replaced with the build configuration.
	Pattern string
}

const defaultAssemblyPattern = "**/bin/{configuration}/**/*.dll"

// Name implements FunctionalityCheck.
func (c AssemblyCheck) Name() string {
	return "assembly-output"
}

// Run implements FunctionalityCheck.
func (c AssemblyCheck) Run(ctx context.Context, cc CheckContext) CheckResult {
	res := CheckResult{Name: c.Name()}
	if err := ctx.Err(); err != nil {
		res.Message = err.Error()
		return res
	}

	pattern := c.Pattern
	if pattern == "" {
		pattern = defaultAssemblyPattern
	}
	pattern = expand(pattern, cc.Configuration, "")

	matches, err := doublestar.Glob(dirFS(cc.Dir), pattern)
	if err != nil {
		res.Message = fmt.Sprintf("invalid pattern %q: %v", pattern, err)
		return res
	}
	if len(matches) == 0 {
		res.Message = fmt.Sprintf("no assemblies match %s", pattern)
		return res
	}
	res.Passed = true
	res.Message = fmt.Sprintf("%d assembly file(s), e.g. %s", len(matches), filepath.FromSlash(matches[0]))
	return res
}
