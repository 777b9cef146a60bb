package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/config"
)

// Version is set at build time.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "bbtool",
	Short: "Xcode project and device toolbox for BatteryBoi",
	Long: "bbtool restructures flat, prefix-labelled Xcode groups into sub-groups, " +
		"checks target membership and reads peripheral battery state from macOS.",
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr(), verboseFlag)
		slog.SetDefault(logger)

		loaded, err := config.Load(configFlag)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("configuration loaded", "path", cfg.Path, "project", cfg.Project, "group", cfg.Group)
		return nil
	},
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as mcp.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	configFlag  string
	verboseFlag bool
	projectFlag string

	cfg    *config.Config
	logger = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default .bbtool.yml or $"+config.EnvVar+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Path to the .xcodeproj directory or its project.pbxproj")

	rootCmd.AddCommand(restructureCmd)
	rootCmd.AddCommand(membershipCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(mcpCmd)
}
