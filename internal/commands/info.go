package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/config"
	"github.com/moasq/bbtool/internal/terminal"
	"github.com/moasq/bbtool/internal/update"
)

var checkUpdatesFlag bool

// updateChecker is swapped in tests.
var updateChecker = &update.Checker{Owner: "moasq", Repo: "bbtool"}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration and tool status",
	Long:  "Display the resolved configuration and whether the system tools bbtool uses are installed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		terminal.Header("bbtool " + Version)

		source := cfg.Path
		if source == "" {
			source = "none (defaults)"
		}
		terminal.Detail("Config", source)

		if manifest, err := resolveManifest(); err != nil {
			terminal.Detail("Manifest", terminal.Paint("not found", terminal.Yellow)+" ("+err.Error()+")")
		} else {
			terminal.Detail("Manifest", manifest)
		}
		terminal.Detail("Group", cfg.Group)
		target := cfg.Target
		if target == "" {
			target = "-"
		}
		terminal.Detail("Target", target)
		terminal.Detail("Backup", fmt.Sprintf("%t", cfg.Backup))
		terminal.Detail("State dir", cfg.StateDir)

		if records, err := journalStore().List(); err == nil {
			terminal.Detail("Journal", fmt.Sprintf("%d restructures", len(records)))
		} else {
			terminal.Detail("Journal", terminal.Paint("unreadable", terminal.Yellow))
		}

		terminal.Divider()
		xcode := "not installed"
		if config.CheckXcode() {
			xcode = "installed"
		}
		terminal.Detail("Xcode", xcode)
		terminal.ToolStatus(config.CheckTools(), config.SystemTools)

		if checkUpdatesFlag {
			terminal.Println("")
			res, err := updateChecker.Check(cmd.Context(), Version)
			switch {
			case err != nil:
				logger.Debug("update check failed", "error", err)
				terminal.Warning("Could not check for updates")
			case res.NeedsUpdate():
				terminal.Info(fmt.Sprintf("Update available: %s → %s (%s)", res.Current, res.Latest, res.UpdateURL))
			default:
				terminal.Success("bbtool is up to date")
			}
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&checkUpdatesFlag, "check-updates", false, "Query GitHub for a newer bbtool release")
}
