package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/diag"
)

var sudoFlag bool

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Print peripheral and profile state as JSON",
	Long:  "Reads battery levels, connected Bluetooth devices and configuration profiles from the macOS system tools.",
}

var deviceIORegCmd = &cobra.Command{
	Use:   "ioreg",
	Short: "List HID peripherals with battery levels from the I/O registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := newCollector(logger).Devices(cmd.Context())
		if err != nil {
			return err
		}
		return diag.WriteJSON(cmd.OutOrStdout(), devices)
	},
}

var deviceBluetoothCmd = &cobra.Command{
	Use:   "bluetooth",
	Short: "List connected Bluetooth devices from system_profiler",
	RunE: func(cmd *cobra.Command, args []string) error {
		connected, err := newCollector(logger).ConnectedBluetooth(cmd.Context())
		if err != nil {
			return err
		}
		return diag.WriteJSON(cmd.OutOrStdout(), connected)
	},
}

var deviceProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List installed configuration profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := newCollector(logger).Profiles(cmd.Context(), sudoFlag)
		if err != nil {
			return err
		}
		return diag.WriteJSON(cmd.OutOrStdout(), profiles)
	},
}

func init() {
	deviceProfilesCmd.Flags().BoolVar(&sudoFlag, "sudo", false, "Run profiles through sudo to include system profiles")

	deviceCmd.AddCommand(deviceIORegCmd)
	deviceCmd.AddCommand(deviceBluetoothCmd)
	deviceCmd.AddCommand(deviceProfilesCmd)
}
