package cmd

import (
	"github.com/spf13/cobra"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud <host>",
	Short: "Get device cloud connectivity information",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := newDevice(args[0]).CloudInfo()
		if err != nil {
			emitError(err)
		}
		emit(resp)
	},
}

func init() {
	rootCmd.AddCommand(cloudCmd)
}
