package cmd

import (
	"github.com/spf13/cobra"
)

var wifiCmd = &cobra.Command{
	Use:   "wifi <host>",
	Short: "Ask a device to scan for nearby WiFi networks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := newDevice(args[0]).WiFiScan()
		if err != nil {
			emitError(err)
		}
		emit(resp)
	},
}

func init() {
	rootCmd.AddCommand(wifiCmd)
}
