package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/project"
)

// errBuildFailed is returned when the validated build does not succeed.
var errBuildFailed = errors.New("build failed")

var validateConfiguration string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Build the project and categorize its errors",
	Long: `Run the project build, parse its diagnostics and attribute each error to the
conflict categories it belongs to. No file is changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, stop := commandContext(cmd)
		defer stop()

		configuration := validateConfiguration
		if configuration == "" {
			configuration = a.cfg.Configuration
		}

		res, err := a.validator.Validate(ctx, configuration)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(res); err != nil {
				return err
			}
		} else {
			PrintSection("Build Validation")
			PrintLabelValue("Command", a.validator.Invocation(configuration).String())
			if files, err := project.ProjectFiles(a.root); err == nil && len(files) > 0 {
				PrintLabelValue("Projects", PrintCount(len(files), "solution/project file", "solution/project files"))
			}
			PrintLabelValue("Configuration", res.Configuration)
			PrintLabelValue("Exit code", strconv.Itoa(res.ExitCode))
			PrintLabelValue("Errors", strconv.Itoa(res.ErrorCount))
			PrintLabelValue("Warnings", strconv.Itoa(res.WarningCount))
			PrintLabelValue("Duration", res.Duration.Round(time.Millisecond).String())

			if res.ConflictTotal() > 0 {
				PrintSection("Conflict Categories")
				rows := make([][]string, 0, len(a.table))
				for _, r := range a.table {
					n := res.ConflictCounts[r.Category]
					if n == 0 {
						continue
					}
					rows = append(rows, []string{
						string(r.Category),
						strconv.Itoa(n),
						fmt.Sprintf("%.1f%%", res.Analysis.CategoryPercent[r.Category]),
					})
				}
				PrintTable([]string{"Category", "Errors", "Share"}, rows)
			}

			if len(res.Analysis.TopFiles) > 0 {
				PrintSection("Most Affected Files")
				rows := make([][]string, 0, len(res.Analysis.TopFiles))
				for _, f := range res.Analysis.TopFiles {
					rows = append(rows, []string{f.File, strconv.Itoa(f.Count)})
				}
				PrintTable([]string{"File", "Errors"}, rows)
			}

			if len(res.Analysis.Recommendations) > 0 {
				PrintSection("Recommendations")
				PrintList(res.Analysis.Recommendations, 1)
			}

			if len(res.FunctionalityChecks) > 0 {
				PrintSection("Checks")
				for _, c := range res.FunctionalityChecks {
					msg := c.Name
					if c.Message != "" {
						msg += ": " + c.Message
					}
					if c.Passed {
						PrintSuccess(msg)
					} else {
						PrintWarning(msg)
					}
				}
			}

			for _, msg := range res.ValidationErrors {
				PrintError(msg)
			}

			fmt.Println()
			if res.BuildSuccessful {
				PrintSuccess("Build succeeded")
			} else {
				PrintError("Build failed")
			}
		}

		if !res.BuildSuccessful {
			return errBuildFailed
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfiguration, "configuration", "c", "", "Build configuration (default from conflictfix.yml, else Debug)")
}
