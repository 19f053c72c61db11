package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/conflictfix/internal/config"
)

var (
	backupCreateName string
	backupOlderThan  string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backup sessions",
	Long:  `List, create, verify and clean up the backup sessions taken before files are rewritten.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newBackups(newLogger())
		if err != nil {
			return err
		}
		sessions, err := mgr.ListSessions()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(sessions)
		}

		PrintSection("Backup Sessions")
		if len(sessions) == 0 {
			PrintEmptyState("No backup sessions found")
			return nil
		}
		rows := make([][]string, 0, len(sessions))
		for _, s := range sessions {
			rows = append(rows, []string{
				s.ID,
				s.Name,
				humanize.Time(s.CreatedAt),
				strconv.Itoa(len(s.BackedUpFiles)),
				humanize.Bytes(uint64(s.Size())),
			})
		}
		PrintTable([]string{"ID", "Name", "Created", "Files", "Size"}, rows)
		return nil
	},
}

var backupShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the files captured in a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newBackups(newLogger())
		if err != nil {
			return err
		}
		s, err := mgr.Get(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(s)
		}

		PrintSection("Backup Session")
		PrintLabelValue("ID", s.ID)
		PrintLabelValue("Name", s.Name)
		PrintLabelValue("Created", s.CreatedAt.Format(time.RFC3339))
		PrintLabelValue("Directory", s.BackupDirectory)
		PrintLabelValue("Size", humanize.Bytes(uint64(s.Size())))
		fmt.Println()
		files := make([]string, 0, len(s.BackedUpFiles))
		for _, f := range s.BackedUpFiles {
			files = append(files, f.OriginalPath)
		}
		PrintList(files, 1)
		return nil
	},
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <file>...",
	Short: "Back up files into a new session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newBackups(newLogger())
		if err != nil {
			return err
		}

		ctx, stop := commandContext(cmd)
		defer stop()

		s, err := mgr.CreateBackup(ctx, args, backupCreateName)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(s)
		}
		PrintSuccess(fmt.Sprintf("Created backup session %s (%s, %s)",
			s.ID, PrintCount(len(s.BackedUpFiles), "file", "files"), humanize.Bytes(uint64(s.Size()))))
		return nil
	},
}

var backupSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Show the disk space used by backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newBackups(newLogger())
		if err != nil {
			return err
		}
		size, err := mgr.TotalBackupSize()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]interface{}{
				"bytes": size,
				"human": humanize.Bytes(uint64(size)),
			})
		}
		PrintLabelValue("Backup size", humanize.Bytes(uint64(size)))
		return nil
	},
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete sessions older than the retention period",
	Long: `Delete backup sessions at least as old as --older-than. The default comes from
backupRetention in conflictfix.yml (168h when unset). "0s" deletes every session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		mgr, _, err := newBackups(logger)
		if err != nil {
			return err
		}

		maxAge, err := cleanupAge()
		if err != nil {
			return err
		}

		res, err := mgr.CleanupOlderThan(maxAge)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(res)
		}
		if len(res.Removed) == 0 {
			PrintInfo(fmt.Sprintf("No sessions older than %s", maxAge))
		} else {
			PrintSuccess(fmt.Sprintf("Removed %s", PrintCount(len(res.Removed), "session", "sessions")))
			PrintList(res.Removed, 1)
		}
		for _, f := range res.Failed {
			PrintWarning(fmt.Sprintf("Could not remove %s: %s", f.Path, f.Err))
		}
		PrintLabelValue("Kept", strconv.Itoa(res.Kept))
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify <session-id>",
	Short: "Check backup copies against their checksums",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newBackups(newLogger())
		if err != nil {
			return err
		}
		res, err := mgr.Verify(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(res); err != nil {
				return err
			}
		} else {
			for _, p := range res.Missing {
				PrintError("missing: " + p)
			}
			for _, p := range res.Mismatched {
				PrintError("checksum mismatch: " + p)
			}
			if res.OK() {
				PrintSuccess(fmt.Sprintf("Session %s intact (%s checked)", res.SessionID, PrintCount(res.Checked, "file", "files")))
			}
		}
		if !res.OK() {
			return fmt.Errorf("session %s failed verification", res.SessionID)
		}
		return nil
	},
}

// cleanupAge returns --older-than, else the project's retention, else the
// default retention.
func cleanupAge() (time.Duration, error) {
	if backupOlderThan != "" {
		d, err := time.ParseDuration(backupOlderThan)
		if err != nil {
			return 0, fmt.Errorf("invalid --older-than: %w", err)
		}
		if d < 0 {
			return 0, fmt.Errorf("invalid --older-than: must not be negative")
		}
		return d, nil
	}

	cfg := config.DefaultProjectConfig()
	if root, err := projectRoot(); err == nil {
		if loaded, err := config.LoadProject(root); err == nil {
			cfg = loaded
		}
	}
	return cfg.Retention()
}

func init() {
	backupCreateCmd.Flags().StringVar(&backupCreateName, "name", "", "Label for the session")
	backupCleanupCmd.Flags().StringVar(&backupOlderThan, "older-than", "", "Minimum age of removed sessions, e.g. 72h")

	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupShowCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupSizeCmd)
	backupCmd.AddCommand(backupCleanupCmd)
	backupCmd.AddCommand(backupVerifyCmd)
}
