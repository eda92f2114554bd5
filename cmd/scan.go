package cmd

import (
	"context"
	"time"

	"github.com/cznic/mathutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kasactl "github.com/swelldreams/kasactl/internal"
)

var (
	scanSubnet       string
	scanBegin        int
	scanEnd          int
	scanProbeTimeout time.Duration
)

// The `scan` command sweeps a subnet with direct TCP probes. It works
// where broadcast discovery is filtered, at the cost of touching every
// address in the range.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a subnet for devices with TCP probes",
	Long: "Probes every host in the suffix range on the device port and reports\n" +
		"each one that answers a get_sysinfo query. The local subnet is detected\n" +
		"automatically when --subnet is not given.\n\n" +
		"Examples:\n" +
		"  kasactl scan\n" +
		"  kasactl scan --subnet 10.0.0 --begin 1 --end 100",
	Run: func(cmd *cobra.Command, args []string) {
		hostCount := scanEnd - scanBegin + 1
		workers := viper.GetInt("concurrency")
		if workers <= 0 {
			workers = mathutil.Clamp(hostCount, 1, kasactl.DefaultScanConcurrency)
		}
		result := kasactl.ScanSubnet(context.Background(), kasactl.ScanParams{
			Subnet:      scanSubnet,
			Begin:       scanBegin,
			End:         scanEnd,
			Port:        viper.GetInt("port"),
			Timeout:     scanProbeTimeout,
			Concurrency: workers,
		})
		emit(result)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSubnet, "subnet", "", "Set the subnet prefix to scan (e.g. 192.168.1)")
	scanCmd.Flags().IntVar(&scanBegin, "begin", 1, "Set the first host suffix to probe")
	scanCmd.Flags().IntVar(&scanEnd, "end", 255, "Set the last host suffix to probe")
	scanCmd.Flags().DurationVar(&scanProbeTimeout, "probe-timeout", kasactl.DefaultProbeTimeout, "Set the per-host probe timeout")
	rootCmd.AddCommand(scanCmd)
}
