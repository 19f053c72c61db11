package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/engine"
	"github.com/danieljhkim/conflictfix/internal/fsops"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show the report of a previous run",
	Long:  `Render the saved result of a run. Without an id the most recent run is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, paths, err := newBackups(newLogger())
		if err != nil {
			return err
		}
		runs := engine.NewRunLog(fsops.NewRealFS(), paths.Runs)

		var res *engine.Result
		if len(args) == 1 {
			res, err = runs.Find(args[0])
		} else {
			res, err = runs.Latest()
		}
		if errors.Is(err, os.ErrNotExist) {
			if len(args) == 1 {
				return fmt.Errorf("no saved run %s", args[0])
			}
			return errors.New("no saved runs; use \"conflictfix run\" first")
		}
		if err != nil {
			return err
		}
		return printResult(res)
	},
}
