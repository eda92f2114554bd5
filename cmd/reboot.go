package cmd

import (
	"github.com/spf13/cobra"
)

var rebootDelay int

var rebootCmd = &cobra.Command{
	Use:   "reboot <host>",
	Short: "Reboot a device",
	Long: "Sends a reboot request. The device drops the connection while\n" +
		"restarting, so no confirmation is read back.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newDevice(args[0]).Reboot(rebootDelay); err != nil {
			emitError(err)
		}
		emit(map[string]any{"rebooting": args[0], "delay": rebootDelay})
	},
}

func init() {
	rebootCmd.Flags().IntVar(&rebootDelay, "delay", 1, "Set the delay in seconds before the device reboots")
	rootCmd.AddCommand(rebootCmd)
}
