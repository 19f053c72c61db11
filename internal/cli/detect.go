package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/rules"
)

// detectReport is the JSON shape of the detect command.
type detectReport struct {
	Root      string                                    `json:"root"`
	Total     int                                       `json:"total"`
	Files     []string                                  `json:"files"`
	Conflicts map[rules.Category][]rules.ConflictRecord `json:"conflicts"`
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List ambiguous references without changing files",
	Long: `Scan the project sources for ambiguous type references in every enabled
category. No build is run and no file is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, stop := commandContext(cmd)
		defer stop()

		report := detectReport{
			Root:      a.root,
			Conflicts: make(map[rules.Category][]rules.ConflictRecord),
		}
		var all []rules.ConflictRecord
		for _, r := range a.resolvers {
			recs, err := r.DetectDirectory(ctx, a.walker, a.root)
			if err != nil {
				return fmt.Errorf("failed to detect %s conflicts: %w", r.Category(), err)
			}
			if len(recs) > 0 {
				report.Conflicts[r.Category()] = recs
				all = append(all, recs...)
			}
		}
		report.Total = len(all)
		report.Files = rules.Files(all)

		if jsonOutput {
			return outputJSON(report)
		}

		PrintSection("Ambiguous References")
		PrintLabelValue("Project", a.root)
		if report.Total == 0 {
			PrintEmptyState("No ambiguous references found")
			return nil
		}

		for _, r := range a.resolvers {
			recs := report.Conflicts[r.Category()]
			if len(recs) == 0 {
				continue
			}
			fmt.Println()
			PrintSubsection(fmt.Sprintf("%s (%s)", r.Rule().Title, PrintCount(len(recs), "reference", "references")))
			rows := make([][]string, 0, len(recs))
			for _, rec := range recs {
				rows = append(rows, []string{
					fmt.Sprintf("%s:%d:%d", rec.FilePath, rec.Line, rec.Column),
					rec.Identifier,
					string(rec.Syntax),
				})
			}
			PrintTable([]string{"Location", "Type", "Usage"}, rows)
		}
		fmt.Println()
		PrintWarning(fmt.Sprintf("%s in %s",
			PrintCount(report.Total, "ambiguous reference", "ambiguous references"),
			PrintCount(len(report.Files), "file", "files")))
		return nil
	},
}
