package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/safehome/internal/config"
	"github.com/oshokin/safehome/internal/service/server"
	"github.com/oshokin/safehome/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// databaseFile overrides the SQLite database path.
	databaseFile string

	// rootCmd represents the base command for running the SafeHome server.
	rootCmd = &cobra.Command{
		Use:   "safehome-server [listen-address]",
		Short: "Run the SafeHome security core and its control panel API.",
		Long: `Starts the SafeHome security manager, polls its sensors on a fixed interval
and serves the gRPC control panel API.

Only the port from server_addr config is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:50051).
When http_addr is set, status, logs and Prometheus metrics are served over HTTP.
Sensors, zones, modes and the intrusion log live in memory or in an SQLite database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				DatabaseFile:  databaseFile,
			})
		},
	}
)

// Execute runs the safehome-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&databaseFile, "database", "d", "", "path to the SQLite database (overrides database_file)")
}
