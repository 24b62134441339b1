package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/safehome/internal/api/grpc/panel"
	"github.com/oshokin/safehome/internal/config"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/service/client"
	"github.com/oshokin/safehome/internal/version"
)

var errModeUsage = errors.New("pass a mode name or --off")

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the configuration.
	serverAddress string
	// modeOff deactivates every security mode.
	modeOff bool

	// rootCmd represents the base command of the remote control panel.
	rootCmd = &cobra.Command{
		Use:   "safehome-panel",
		Short: "Remote control panel for the SafeHome server.",
		Long: `Sends control panel requests to the SafeHome server and prints the JSON response.

Every change is reported to the server together with the local user and hostname.
Server address is loaded from configuration file unless --server is given.`,
		SilenceUsage: true,
	}
)

// run executes action with signal-aware context.
func run(action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	}, action)
}

// Execute runs the safehome-panel CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sensors, zones, modes and the alarm latch.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.Status())
		},
	}
}

func logsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show the intrusion log.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(client.Logs())
		},
	}
}

func modeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "mode [name]",
		Short: "Activate a security mode, or deactivate all with --off.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			switch {
			case modeOff && len(args) == 0:
				return run(client.SetMode(""))
			case !modeOff && len(args) == 1:
				return run(client.SetMode(args[0]))
			default:
				return errModeUsage
			}
		},
	}

	c.Flags().BoolVar(&modeOff, "off", false, "deactivate every security mode")

	return c
}

func zoneCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "zone",
		Short: "Manage security zones.",
	}

	c.AddCommand(
		&cobra.Command{
			Use:   "add",
			Short: "Create a zone over the default rectangle.",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return run(client.AddZone())
			},
		},
		&cobra.Command{
			Use:   "update <id> <up> <down> <left> <right>",
			Short: "Move a zone to a new rectangle.",
			Args:  cobra.ExactArgs(5), //nolint:mnd // Zone id and four rectangle edges.
			RunE: func(_ *cobra.Command, args []string) error {
				id, err := client.ParseZoneID(args[0])
				if err != nil {
					return err
				}

				edges := make([]float64, 0, len(args)-1)

				for _, arg := range args[1:] {
					v, err := strconv.ParseFloat(arg, 64)
					if err != nil {
						return fmt.Errorf("invalid rectangle edge %q: %w", arg, err)
					}

					edges = append(edges, v)
				}

				return run(client.UpdateZone(id, geometry.NewRect(edges[0], edges[1], edges[2], edges[3])))
			},
		},
		zoneIDCommand("remove", "Delete a zone.", client.RemoveZone),
		zoneIDCommand("arm", "Enable a zone.", func(id int) client.Action { return client.ZoneArm(id, true) }),
		zoneIDCommand("disarm", "Disable a zone.", func(id int) client.Action { return client.ZoneArm(id, false) }),
	)

	return c
}

func zoneIDCommand(use, short string, action func(id int) client.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := client.ParseZoneID(args[0])
			if err != nil {
				return err
			}

			return run(action(id))
		},
	}
}

func sensorCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "sensor",
		Short: "Override, power or simulate a sensor.",
	}

	actions := []struct {
		action string
		short  string
	}{
		{panel.ActionArm, "Force the sensor armed regardless of mode and zones."},
		{panel.ActionDisarm, "Force the sensor disarmed regardless of mode and zones."},
		{panel.ActionAuto, "Drop the manual arming override."},
		{panel.ActionOn, "Power the sensor on."},
		{panel.ActionOff, "Power the sensor off."},
		{panel.ActionIntrude, "Simulate an intrusion on the sensor."},
		{panel.ActionRelease, "Clear a simulated intrusion."},
	}

	for _, a := range actions {
		c.AddCommand(sensorActionCommand(a.action, a.action, a.short))
	}

	return c
}

func bypassCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "bypass",
		Short: "Suppress or restore the alarm of a sensor.",
	}

	c.AddCommand(
		sensorActionCommand("start", panel.ActionBypass, "Stop the sensor from raising the alarm."),
		sensorActionCommand("finish", panel.ActionBypassFinish, "Let the sensor raise the alarm again."),
	)

	return c
}

func sensorActionCommand(use, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <entry|motion> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd // Sensor kind and id.
		RunE: func(_ *cobra.Command, args []string) error {
			ref, err := client.ParseSensorRef(args[0], args[1])
			if err != nil {
				return err
			}

			return run(client.Sensor(ref, action))
		},
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "server address (overrides server_addr)")

	rootCmd.AddCommand(
		statusCommand(),
		logsCommand(),
		modeCommand(),
		zoneCommand(),
		sensorCommand(),
		bypassCommand(),
	)
}
