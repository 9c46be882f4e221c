package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/service/server"
	"github.com/oshokin/alarm-scheduler/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// listenAddress overrides the control API address from config.
	listenAddress string
	// logLevel overrides the configured log level.
	logLevel string
	// noPrompt hides the console prompt.
	noPrompt bool
	// noConsole disables reading commands from standard input.
	noConsole bool

	// rootCmd represents the base command for running the scheduler.
	rootCmd = &cobra.Command{
		Use:   "alarm-scheduler",
		Short: "Schedule alarms from standard input and print them when they expire.",
		Long: `Reads one command per line from standard input:

  Start_Alarm(<id>): Group(<gid>) <seconds> <message>
  Change_Alarm(<id>): Group(<gid>) <seconds> <message>
  Cancel_Alarm(<id>)
  Suspend_Alarm(<id>)
  Reactivate_Alarm(<id>)
  View_Alarms

Each started alarm prints "(<seconds>) <message>" once its deadline elapses.
Unrecognized lines print "Bad command" on standard error and are skipped.
The process exits when standard input ends.

A listen address, given with --listen or as control_address in the settings file,
also accepts commands over gRPC (see alarm-ctl).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				LogLevel:      logLevel,
				NoPrompt:      noPrompt,
				NoConsole:     noConsole,
				In:            cmd.InOrStdin(),
				Out:           cmd.OutOrStdout(),
				ErrOut:        cmd.ErrOrStderr(),
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the alarm-scheduler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "control API listen address, overrides control_address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "do not print the Alarm> prompt")
	rootCmd.Flags().BoolVar(&noConsole, "no-console", false, "ignore standard input and serve the control API only")

	// Runtime failures are logged; usage is only useful for flag errors.
	rootCmd.SilenceUsage = true
}
