package cmd

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <host>",
	Short: "Get raw device information",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		info, err := newDevice(args[0]).GetInfo()
		if err != nil {
			emitError(err)
		}
		emit(info)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
