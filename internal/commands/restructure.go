package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/restructure"
	"github.com/moasq/bbtool/internal/terminal"
)

var (
	groupFlag  string
	applyFlag  bool
	backupFlag bool
)

var restructureCmd = &cobra.Command{
	Use:   "restructure",
	Short: "Move prefix-labelled files of a group into sub-groups",
	Long: "Classifies the children of an Xcode group. Files labelled \"Prefix/File.swift\" " +
		"move into a sub-group named Prefix and lose the prefix; the rest stay as constants. " +
		"Without --apply nothing is written.",
	Example: "  bbtool restructure --project BatteryBoi.xcodeproj --group Core\n" +
		"  bbtool restructure --apply --backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := resolveManifest()
		if err != nil {
			return err
		}
		group := groupFlag
		if group == "" {
			group = cfg.Group
		}
		backup := cfg.Backup
		if cmd.Flags().Changed("backup") {
			backup = backupFlag
		}

		terminal.Header("Restructuring " + group)
		terminal.Detail("Manifest", manifest)
		terminal.Println("")

		res, err := restructure.Run(cmd.Context(), restructure.Options{
			ManifestPath: manifest,
			Group:        group,
			Apply:        applyFlag,
			Backup:       backup,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		restructure.WriteReport(terminal.Output(), res.Plan)
		terminal.Println("")

		switch {
		case !applyFlag:
			terminal.Info("Dry run, nothing written. Re-run with --apply to rewrite the manifest.")
		case !res.Written:
			terminal.Success("Nothing to restructure; the manifest is unchanged.")
		default:
			terminal.Success(fmt.Sprintf("Rewrote %s", manifest))
			if res.BackupPath != "" {
				terminal.Detail("Backup", res.BackupPath)
			}
			if err := journalStore().Append(res.JournalRecord(manifest)); err != nil {
				logger.Warn("failed to record restructure", "error", err)
			}
			printNextSteps()
		}
		return nil
	},
}

func printNextSteps() {
	terminal.Header("Next steps")
	terminal.Println("  1. Close the project in Xcode if it is open")
	terminal.Println("  2. Reopen it to load the new group structure")
	terminal.Println("  3. Build once to confirm every file still resolves")
}

func init() {
	restructureCmd.Flags().StringVarP(&groupFlag, "group", "g", "", "Group to restructure, by object id, name or path (default from config, else Core)")
	restructureCmd.Flags().BoolVar(&applyFlag, "apply", false, "Rewrite the manifest instead of only reporting")
	restructureCmd.Flags().BoolVar(&backupFlag, "backup", false, "Copy the manifest to <manifest>.backup before writing")
}
