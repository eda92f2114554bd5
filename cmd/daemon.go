package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/swelldreams/kasactl/pkg/daemon"
)

var daemonEndpoint string

// The `daemon` command launches a long-running server that exposes
// discovery and device control as HTTP endpoints, e.g. for container
// use or as the backend of a frontend application.
var daemonCmd = &cobra.Command{
	Use: "daemon",
	Example: `  // basic launch
  kasactl daemon
  // custom listen address
  kasactl daemon --endpoint 127.0.0.1:9090`,
	Short: "Launch a long-running HTTP server exposing discovery and control",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := &daemon.Server{
			DevicePort: viper.GetInt("port"),
			Timeout:    exchangeTimeout(),
		}
		err := server.ListenAndServe(daemonEndpoint)
		if err != nil {
			log.Error().Err(err).Msg("daemon exited")
		}
		return err
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonEndpoint, "endpoint", ":8089", "Set the address the daemon listens on")
	rootCmd.AddCommand(daemonCmd)
}
