package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/clock"
	"github.com/danieljhkim/conflictfix/internal/engine"
	"github.com/danieljhkim/conflictfix/internal/resolver"
)

var rollbackLatest bool

var rollbackCmd = &cobra.Command{
	Use:   "rollback [session-id]",
	Short: "Restore the files of a backup session",
	Long: `Restore every file captured in a backup session to its original location.

A session id is required; use --latest to pick the most recent session. The
chosen id is printed before anything is restored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && rollbackLatest {
			return errors.New("pass either a session id or --latest, not both")
		}

		logger := newLogger()
		mgr, _, err := newBackups(logger)
		if err != nil {
			return err
		}
		eng := engine.New(nil, nil, mgr, resolver.Walker{}, &clock.RealClock{}, logger)

		var id string
		if len(args) == 1 {
			id = args[0]
		} else if rollbackLatest {
			latest, err := mgr.Latest()
			if err != nil {
				return err
			}
			id = latest.ID
			if !jsonOutput {
				PrintInfo(fmt.Sprintf("Rolling back latest session %s (%s)", latest.ID, latest.Name))
			}
		}

		res, err := eng.Rollback(id)
		if err != nil {
			if res != nil && jsonOutput {
				_ = outputJSON(res)
			}
			return err
		}

		if jsonOutput {
			if err := outputJSON(res); err != nil {
				return err
			}
		} else {
			for _, f := range res.Failed {
				PrintError(fmt.Sprintf("%s: %s", f.Path, f.Err))
			}
			if res.Success {
				PrintSuccess(fmt.Sprintf("Restored %s from session %s",
					PrintCount(len(res.Restored), "file", "files"), res.SessionID))
			} else {
				PrintWarning(fmt.Sprintf("Restored %s, %d failed",
					PrintCount(len(res.Restored), "file", "files"), len(res.Failed)))
			}
		}
		if !res.Success {
			return fmt.Errorf("rollback of session %s incomplete", res.SessionID)
		}
		return nil
	},
}

func init() {
	rollbackCmd.Flags().BoolVar(&rollbackLatest, "latest", false, "Roll back the most recent session")
}
