package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/engine"
)

// errRunFailed is returned when a run completes without a clean build, so
// the process exits non-zero after the report is printed.
var errRunFailed = errors.New("conflict resolution did not produce a clean build")

var (
	runConfiguration string
	runNoBackup      bool
	runDryRun        bool
	runName          string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect, resolve and verify ambiguous references",
	Long: `Run the full resolution workflow on the project:

  1. build the project and scan the sources for ambiguous references
  2. back up every implicated file
  3. apply each category's resolver in order
  4. rebuild to verify the result
  5. analyze effectiveness and print recommendations

The result is saved and can be shown again with "conflictfix report".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, stop := commandContext(cmd)
		defer stop()

		configuration := runConfiguration
		if configuration == "" {
			configuration = a.cfg.Configuration
		}
		req := &engine.RunRequest{
			Root:          a.root,
			Configuration: configuration,
			CreateBackup:  a.cfg.BackupEnabled() && !runNoBackup,
			BackupName:    runName,
			DryRun:        runDryRun,
		}

		res, runErr := a.engine.Run(ctx, req)
		if res == nil {
			return runErr
		}

		if path, err := a.runs.Save(res); err != nil {
			a.logger.Warn("failed to save run result", slog.Any("error", err))
		} else {
			a.logger.Debug("run result saved", slog.String("path", path))
		}

		if err := printResult(res); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		if !res.Success {
			return errRunFailed
		}
		return nil
	},
}

// printResult prints res as JSON or as the text report followed by a
// colored verdict.
func printResult(res *engine.Result) error {
	if jsonOutput {
		return outputJSON(res)
	}
	fmt.Print(engine.RenderReport(res))
	fmt.Println()
	initColors()
	_, _ = outcomeColor(res.Success, res.Outcome == engine.OutcomePartial).Println(engine.Headline(res))
	return nil
}

func init() {
	runCmd.Flags().StringVarP(&runConfiguration, "configuration", "c", "", "Build configuration (default from conflictfix.yml, else Debug)")
	runCmd.Flags().BoolVar(&runNoBackup, "no-backup", false, "Do not back up files before rewriting them")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Detect only; change nothing")
	runCmd.Flags().StringVar(&runName, "name", "", "Label for the backup session")
}
