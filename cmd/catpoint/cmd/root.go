package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/service/client"
	"github.com/oshokin/catpoint/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the configured server address.
	serverAddress string

	// rootCmd represents the base command of the catpoint CLI.
	rootCmd = &cobra.Command{
		Use:   "catpoint",
		Short: "Control the catpoint home security system.",
		Long: `Talks to a running catpoint-server: shows the state, arms and disarms
the system, manages sensors, submits camera frames and follows alarm events.`,
		SilenceUsage: true,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show arming, alarm and sensor state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.Status())
		},
	}

	armCmd = &cobra.Command{
		Use:       "arm home|away",
		Short:     "Arm the system.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"home", "away"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseArmingStatus("armed_" + args[0])
			if err != nil {
				return err
			}

			return run(cmd, client.SetArmingStatus(status))
		},
	}

	disarmCmd = &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the system and clear the alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.SetArmingStatus(domain.Disarmed))
		},
	}

	sensorCmd = &cobra.Command{
		Use:   "sensor",
		Short: "Manage sensors (types: door, window, motion).",
	}

	imageCmd = &cobra.Command{
		Use:   "image <file>",
		Short: "Submit a camera frame for cat detection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, client.ProcessImage(args[0]))
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print alarm and camera events as they happen.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.Watch())
		},
	}
)

// sensorVerbCommand builds one `sensor <verb> <name> <type>` subcommand.
func sensorVerbCommand(verb client.SensorVerb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(verb) + " <name> <type>",
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd // Name and type.
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, client.Sensor(verb, args[0], args[1]))
		},
	}
}

func run(cmd *cobra.Command, action client.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	}, action)
}

// Execute runs the catpoint CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "a", "", "override the server address")

	sensorCmd.AddCommand(
		sensorVerbCommand(client.SensorAdd, "Register a sensor."),
		sensorVerbCommand(client.SensorRemove, "Remove a sensor."),
		sensorVerbCommand(client.SensorActivate, "Report a sensor as triggered."),
		sensorVerbCommand(client.SensorDeactivate, "Report a sensor as idle."),
	)

	rootCmd.AddCommand(statusCmd, armCmd, disarmCmd, sensorCmd, imageCmd, watchCmd)
}
