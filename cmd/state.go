package cmd

import (
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state <host>",
	Short: "Get the relay state of a device or a strip outlet",
	Long: "Reports on/off state. For power strips, --child narrows the query to\n" +
		"one outlet; without it, the per-outlet breakdown is returned.\n\n" +
		"Examples:\n" +
		"  kasactl state 192.168.1.40\n" +
		"  kasactl state 192.168.1.40 --child 800652A1...00",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		state, err := newDevice(args[0]).GetState()
		if err != nil {
			emitError(err)
		}
		emit(state)
	},
}

func init() {
	stateCmd.Flags().StringVar(&childID, "child", "", "Set the child outlet id (power strips)")
	rootCmd.AddCommand(stateCmd)
}
