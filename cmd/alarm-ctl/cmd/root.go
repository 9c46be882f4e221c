package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/service/client"
	"github.com/oshokin/alarm-scheduler/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides the control address from config.
	serverAddress string
	// asJSON lists pending alarms as JSON.
	asJSON bool

	// rootCmd represents the base command for talking to a running scheduler.
	rootCmd = &cobra.Command{
		Use:   "alarm-ctl [command line]",
		Short: "Send one command to a running alarm-scheduler.",
		Long: `Sends a single command line to a running alarm-scheduler over its gRPC control API
and prints the records it returns, for example:

  alarm-ctl -a 127.0.0.1:7070 'Start_Alarm(1): Group(7) 5 hello'
  alarm-ctl -a 127.0.0.1:7070 View_Alarms
  alarm-ctl -a 127.0.0.1:7070 --json

Arguments are joined with spaces. The server address can be provided as a flag
or loaded from the control_address setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				Line:          strings.Join(args, " "),
				JSON:          asJSON,
				Out:           cmd.OutOrStdout(),
			})
		},
	}
)

// Execute runs the alarm-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&serverAddress, "address", "a", "", "control API address of the scheduler")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "list pending alarms as JSON")

	rootCmd.SilenceUsage = true
}
