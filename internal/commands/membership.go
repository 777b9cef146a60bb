package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/membership"
	"github.com/moasq/bbtool/internal/pbxproj"
	"github.com/moasq/bbtool/internal/terminal"
)

// errMembershipIncomplete is returned when a requested file is not compiled
// by the target, so the process exits non-zero.
var errMembershipIncomplete = errors.New("target membership is incomplete")

var targetFlag string

var membershipCmd = &cobra.Command{
	Use:   "membership [FILE...]",
	Short: "Check that files are compiled by a target",
	Long: "Follows the target's Sources build phase to its file references and reports " +
		"each requested file as present or missing. Files default to membership_files from the config.",
	Example: "  bbtool membership --target \"BatteryBoi (iOS)\" BBSystemConstants.swift BBBatteryConstants.swift",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := targetFlag
		if target == "" {
			target = cfg.Target
		}
		if target == "" {
			return fmt.Errorf("no target given; pass --target or set target in the config")
		}
		files := args
		if len(files) == 0 {
			files = cfg.MembershipFiles
		}
		if len(files) == 0 {
			return fmt.Errorf("no files to check; pass them as arguments or set membership_files in the config")
		}

		manifest, err := resolveManifest()
		if err != nil {
			return err
		}
		p, err := pbxproj.Load(manifest)
		if err != nil {
			return err
		}

		report, err := membership.Verify(p, target, files)
		if err != nil {
			return err
		}

		terminal.Info(fmt.Sprintf("Found target '%s' (%s)", report.Target, report.TargetID))
		terminal.Detail("Source files", fmt.Sprintf("%d", report.SourceCount))
		terminal.Println("")
		for _, r := range report.Results {
			if r.Present {
				terminal.Success(fmt.Sprintf("%s is present in the target (%s)", r.File, r.Match))
			} else {
				terminal.Error(fmt.Sprintf("%s is MISSING from the target", r.File))
			}
		}

		if missing := report.Missing(); len(missing) > 0 {
			return fmt.Errorf("%w: %d of %d files missing from %s", errMembershipIncomplete, len(missing), len(report.Results), report.Target)
		}
		return nil
	},
}

func init() {
	membershipCmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Native target name (default from config)")
}
