package cmd

import (
	"github.com/spf13/cobra"
)

var emeterCmd = &cobra.Command{
	Use:   "emeter <host>",
	Short: "Read realtime energy meter data (HS110/KP115)",
	Long: "Reads realtime power draw from energy-monitoring models. Devices\n" +
		"without a meter answer with their own error payload, which is printed\n" +
		"verbatim alongside the failure.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := newDevice(args[0]).EnergyMeter()
		if err != nil {
			if resp != nil {
				// the device answered but does not meter; surface both
				emit(map[string]any{"error": err, "response": resp})
				return
			}
			emitError(err)
		}
		emit(resp)
	},
}

func init() {
	rootCmd.AddCommand(emeterCmd)
}
