package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ledCmd = &cobra.Command{
	Use:   "led <host> <on|off>",
	Short: "Turn the status LED (nightlight) on or off",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var on bool
		switch args[1] {
		case "on", "1", "true":
			on = true
		case "off", "0", "false":
			on = false
		default:
			emitError(fmt.Errorf("invalid LED state %q, want on or off", args[1]))
		}

		result, err := newDevice(args[0]).SetLED(on)
		if err != nil {
			emitError(err)
		}
		emit(result)
	},
}

func init() {
	rootCmd.AddCommand(ledCmd)
}
