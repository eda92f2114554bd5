package cmd

import (
	"github.com/spf13/cobra"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

// The on/off/toggle commands mutate the relay and then read the state
// back so callers get both the acknowledgement and the resulting state
// in one document.

var onCmd = &cobra.Command{
	Use:   "on <host>",
	Short: "Turn a device or strip outlet on",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := newDevice(args[0])
		result, err := device.TurnOn()
		if err != nil {
			emitError(err)
		}
		emitWithState(device, result)
	},
}

var offCmd = &cobra.Command{
	Use:   "off <host>",
	Short: "Turn a device or strip outlet off",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := newDevice(args[0])
		result, err := device.TurnOff()
		if err != nil {
			emitError(err)
		}
		emitWithState(device, result)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <host>",
	Short: "Toggle a device or strip outlet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := newDevice(args[0])
		result, err := device.Toggle()
		if err != nil {
			emitError(err)
		}
		emitWithState(device, result)
	},
}

// emitWithState reads the post-command state and prints it alongside
// the device acknowledgement.
func emitWithState(device *tplink.Device, result map[string]any) {
	state, err := device.GetState()
	if err != nil {
		emitError(err)
	}
	emit(map[string]any{"result": result, "state": state})
}

func init() {
	for _, c := range []*cobra.Command{onCmd, offCmd, toggleCmd} {
		c.Flags().StringVar(&childID, "child", "", "Set the child outlet id (power strips)")
		rootCmd.AddCommand(c)
	}
}
