package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kasactl "github.com/swelldreams/kasactl/internal"
)

var discoverTimeout int

// The `discover` command locates devices with the UDP broadcast probe.
// Some network equipment filters broadcast traffic; the `scan` command
// is the more reliable alternative in that case.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover devices on the local network via UDP broadcast",
	Long: "Sends the get_sysinfo probe to a fixed set of broadcast addresses and\n" +
		"collects responding device addresses until the timeout elapses.\n\n" +
		"Examples:\n" +
		"  kasactl discover\n" +
		"  kasactl discover --discover-timeout 3",
	Run: func(cmd *cobra.Command, args []string) {
		devices, err := kasactl.DiscoverBroadcast(context.Background(), kasactl.DiscoverParams{
			Timeout: time.Duration(discoverTimeout) * time.Second,
			Port:    viper.GetInt("port"),
		})
		if err != nil {
			emitError(err)
		}
		emit(map[string]any{"devices": devices})
	},
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "discover-timeout", 10, "Set the overall discovery window in seconds")
	rootCmd.AddCommand(discoverCmd)
}
