package cmd

import (
	"github.com/spf13/cobra"
)

var childrenCmd = &cobra.Command{
	Use:   "children <host>",
	Short: "List the outlets of a power strip",
	Long: "Lists child outlets with their ids, aliases, and states. Single-outlet\n" +
		"devices report is_strip false and an empty list.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		children, err := newDevice(args[0]).GetChildren()
		if err != nil {
			emitError(err)
		}
		emit(children)
	},
}

func init() {
	rootCmd.AddCommand(childrenCmd)
}
