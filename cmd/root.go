// The cmd package implements the interface for the kasactl CLI. The
// files in this package only contain implementations for handling CLI
// arguments and passing them along to the device client in pkg/tplink
// or the discovery routines in internal.
//
// Each network-facing subcommand has a corresponding internal or
// pkg-level routine that implements its functionality:
//
//	cmd/scan.go     --> internal/scan.go ( kasactl.ScanSubnet() )
//	cmd/discover.go --> internal/discover.go ( kasactl.DiscoverBroadcast() )
//	cmd/state.go    --> pkg/tplink ( Device.GetState() )
//
// Every command prints a single JSON (or YAML) document to stdout so
// the output can be consumed directly by calling programs.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kasactl "github.com/swelldreams/kasactl/internal"
	"github.com/swelldreams/kasactl/internal/format"
	ilog "github.com/swelldreams/kasactl/internal/log"
	"github.com/swelldreams/kasactl/pkg/tplink"
)

var (
	devicePort   int
	timeout      int
	concurrency  int
	childID      string
	verbose      bool
	configPath   string
	logPath      string
	logLevel     = ilog.INFO
	outputFormat = format.FORMAT_JSON
)

var rootCmd = &cobra.Command{
	Use:   "kasactl",
	Short: "Discover and control TP-Link Kasa smart plugs",
	Long: "Discover and control TP-Link Kasa smart plugs and power strips\n" +
		"over the legacy port-9999 protocol, without any cloud account.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				log.Error().Err(err).Msg("failed to print help")
			}
			os.Exit(0)
		}
	},
}

// Execute is called from main to run the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initialize)
	rootCmd.PersistentFlags().IntVarP(&devicePort, "port", "p", tplink.DefaultPort, "Set the device port")
	rootCmd.PersistentFlags().IntVarP(&timeout, "timeout", "t", 5, "Set the timeout for device exchanges in seconds")
	rootCmd.PersistentFlags().IntVarP(&concurrency, "concurrency", "j", -1, "Set the number of concurrent scan probes")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Set the config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Set to enable/disable verbose output")
	rootCmd.PersistentFlags().VarP(&outputFormat, "format", "F", "Set the output format (json|yaml)")
	rootCmd.PersistentFlags().Var(&logLevel, "log-level", "Set the logging level (debug|info|warn|error|disabled|trace)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Set a file path to also write logs to")

	// bind viper config flags with cobra
	checkBindFlagError(viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port")))
	checkBindFlagError(viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout")))
	checkBindFlagError(viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency")))
	checkBindFlagError(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))
	checkBindFlagError(viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format")))
	checkBindFlagError(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	checkBindFlagError(viper.BindEnv("port", "KASACTL_PORT"))
}

func checkBindFlagError(err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to bind cobra/viper flag")
	}
}

func initialize() {
	if configPath != "" {
		if err := kasactl.LoadConfig(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	// The flags are bound to viper keys in init(), so reading the keys
	// back here resolves flag > env > config file > flag default.
	if err := logLevel.Set(viper.GetString("log-level")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if viper.GetBool("verbose") && logLevel == ilog.INFO {
		logLevel = ilog.DEBUG
	}
	if err := outputFormat.Set(viper.GetString("format")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := ilog.Init(logLevel, logPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exchangeTimeout converts the effective timeout setting for the
// transport layer.
func exchangeTimeout() time.Duration {
	return time.Duration(viper.GetInt("timeout")) * time.Second
}

// newDevice builds the device handle every direct command operates on.
func newDevice(addr string) *tplink.Device {
	return &tplink.Device{
		Addr:    addr,
		Port:    viper.GetInt("port"),
		ChildID: childID,
		Timeout: exchangeTimeout(),
	}
}

// emit prints the command result to stdout in the selected format.
func emit(data any) {
	b, err := format.Marshal(data, outputFormat)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal output")
		os.Exit(1)
	}
	fmt.Println(string(b))
}

// emitError prints a structured failure object and exits nonzero.
// Errors never surface as raw panics or bare transport messages.
func emitError(err error) {
	emit(map[string]any{"error": tplink.AsError(err)})
	os.Exit(1)
}
