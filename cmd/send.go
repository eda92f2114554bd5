package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/swelldreams/kasactl/pkg/tplink"
)

var sendData string

// The `send` command is an escape hatch for protocol commands the
// typed operations do not cover, e.g. schedule or countdown modules.
var sendCmd = &cobra.Command{
	Use: "send <host>",
	Example: `  // raw sysinfo query
  kasactl send 192.168.1.40 -d '{"system":{"get_sysinfo":{}}}'
  // command loaded from a file
  kasactl send 192.168.1.40 -d @countdown.json`,
	Short: "Send a raw protocol command to a device",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		payload := []byte(sendData)
		if len(sendData) > 0 && sendData[0] == '@' {
			contents, err := os.ReadFile(sendData[1:])
			if err != nil {
				emitError(fmt.Errorf("failed to read command file: %w", err))
			}
			payload = contents
		}

		var command tplink.Command
		if err := json.Unmarshal(payload, &command); err != nil {
			emitError(fmt.Errorf("command is not valid JSON: %w", err))
		}

		resp, err := tplink.SendCommand(args[0], viper.GetInt("port"), exchangeTimeout(), command)
		if err != nil {
			emitError(err)
		}
		emit(resp)
	},
}

func init() {
	sendCmd.Flags().StringVarP(&sendData, "data", "d", "", "Set the command JSON to send (@path reads from a file)")
	sendCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(sendCmd)
}
