package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/backup"
	"github.com/danieljhkim/conflictfix/internal/build"
	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/config"
	"github.com/danieljhkim/conflictfix/internal/engine"
	"github.com/danieljhkim/conflictfix/internal/fsops"
	"github.com/danieljhkim/conflictfix/internal/hash"
	"github.com/danieljhkim/conflictfix/internal/lexer"
	"github.com/danieljhkim/conflictfix/internal/logging"
	"github.com/danieljhkim/conflictfix/internal/project"
	"github.com/danieljhkim/conflictfix/internal/resolver"
	"github.com/danieljhkim/conflictfix/internal/rules"
)

// app bundles the components wired for one project.
type app struct {
	root      string
	cfg       *config.ProjectConfig
	paths     *config.Paths
	table     []rules.Rule
	resolvers []*resolver.Resolver
	walker    resolver.Walker
	validator *build.Validator
	backups   *backup.Manager
	engine    *engine.Engine
	runs      *engine.RunLog
	logger    *slog.Logger
}

// newLogger builds the logger from --verbose or CONFLICTFIX_LOG_LEVEL.
// Without either only warnings and errors are shown.
func newLogger() *slog.Logger {
	level := os.Getenv(config.EnvLogLevel)
	if verbose {
		level = "debug"
	}
	if level == "" {
		level = "warn"
	}
	return logging.New(os.Stderr, level)
}

// projectRoot returns the --project directory, or discovers the project
// enclosing the current directory.
func projectRoot() (string, error) {
	if projectDir != "" {
		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve project directory: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("failed to access project directory: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %s is not a directory", abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return project.NewFSLocator().Discover(cwd)
}

// newBackups opens the backup catalog. It needs no project.
func newBackups(logger *slog.Logger) (*backup.Manager, *config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	mgr := backup.NewManager(paths, fsops.NewRealFS(), hash.NewSHA256Hasher(), &clock.RealClock{}, logger)
	return mgr, paths, nil
}

// newApp wires every component for the current project.
func newApp() (*app, error) {
	logger := newLogger()

	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	backups, paths, err := newBackups(logger)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	clk := &clock.RealClock{}
	cache, err := lexer.NewCache(lexer.DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan cache: %w", err)
	}

	table := rules.Filter(rules.Default(), cfg.DisabledCategories)
	set := resolver.NewSet(table, fs, cache, logger)
	resolvers := make([]engine.Resolver, len(set))
	for i, r := range set {
		resolvers[i] = r
	}

	walker := resolver.Walker{
		Extensions:   cfg.Extensions,
		ExcludeDirs:  cfg.ExcludeDirs,
		ExcludeGlobs: cfg.ExcludeGlobs,
		Logger:       logger,
	}
	if err := walker.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	validator := build.NewValidator(
		build.NewExecRunner(timeout, logger),
		build.Options{
			Command:   cfg.BuildCommand,
			Args:      cfg.BuildArgs,
			Dir:       root,
			Verbosity: cfg.Verbosity,
		},
		table, clk, logger,
		build.AssemblyCheck{},
	)

	logger.Debug("project loaded",
		slog.String("root", root),
		slog.Int("categories", len(table)),
		slog.String("build", cfg.BuildCommand))

	return &app{
		root:      root,
		cfg:       cfg,
		paths:     paths,
		table:     table,
		resolvers: set,
		walker:    walker,
		validator: validator,
		backups:   backups,
		engine:    engine.New(validator, resolvers, backups, walker, clk, logger),
		runs:      engine.NewRunLog(fs, paths.Runs),
		logger:    logger,
	}, nil
}

// commandContext returns the command context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	initColors()
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
