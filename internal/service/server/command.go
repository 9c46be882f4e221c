package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-scheduler/internal/api/grpc/alarm"
	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/service/common"
	"github.com/oshokin/alarm-scheduler/internal/service/console"
	"github.com/oshokin/alarm-scheduler/internal/service/display"
	"github.com/oshokin/alarm-scheduler/internal/service/scheduler"
)

// Options controls the alarm-scheduler process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the control API address from the settings.
	ListenAddress string
	// LogLevel overrides the log level from the settings.
	LogLevel string
	// NoPrompt suppresses the console prompt.
	NoPrompt bool
	// NoConsole runs without reading commands from In; the process then
	// lives until ctx is canceled and takes commands over the control API only.
	NoConsole bool

	// In, Out and ErrOut default to the process standard streams.
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// listening is called with the bound control API address, for tests.
	listening func(addr net.Addr)
}

// ErrNoCommandSource indicates that neither the console nor the control API is enabled.
var ErrNoCommandSource = errors.New("console disabled and no control address configured")

// Run starts the scheduler, the display registry, the console and, when an
// address is configured, the gRPC control API. It returns nil on a clean
// end of input or when ctx is canceled.
//
//nolint:funlen // Wiring reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-scheduler")

	settings, err := resolveSettings(opts)
	if err != nil {
		return err
	}

	if opts.NoConsole && settings.ControlAddress == "" {
		return ErrNoCommandSource
	}

	level, _ := logger.ParseLogLevel(settings.LogLevel)
	logger.SetLevel(level)

	stdin, stdout, stderr := streams(opts)

	var (
		out    = common.NewSyncWriter(stdout)
		events = make(chan alarm.Event, settings.EventBuffer)
		sched  = scheduler.New(scheduler.Options{
			Output:    out,
			Events:    events,
			MaxAlarms: settings.MaxAlarms,
		})
		registry = display.NewRegistry()
	)

	// Bind before starting anything so a bad address fails startup.
	var listener net.Listener

	if settings.ControlAddress != "" {
		lc := net.ListenConfig{}

		listener, err = lc.Listen(ctx, "tcp", settings.ControlAddress)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", settings.ControlAddress, err)
		}

		if opts.listening != nil {
			opts.listening(listener.Addr())
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return sched.Run(groupCtx)
	})

	group.Go(func() error {
		return registry.Run(groupCtx, events)
	})

	if listener != nil {
		serveControlAPI(groupCtx, group, listener, sched)
	}

	if !opts.NoConsole {
		prompt := settings.Prompt
		if opts.NoPrompt {
			prompt = ""
		}

		group.Go(func() error {
			// End of input stops the whole process.
			defer cancel()

			return console.Run(groupCtx, &console.Options{
				In:        stdin,
				Out:       out,
				ErrOut:    stderr,
				Prompt:    prompt,
				Submitter: sched,
			})
		})
	}

	logger.InfoKV(ctx, "Alarm scheduler started",
		"control_address", settings.ControlAddress, "max_alarms", settings.MaxAlarms, "console", !opts.NoConsole)

	if err := group.Wait(); err != nil {
		logger.ErrorKV(ctx, "Alarm scheduler stopped", "error", err)

		return err
	}

	logger.Info(ctx, "Alarm scheduler stopped")

	return nil
}

// serveControlAPI runs the gRPC server until ctx is done.
func serveControlAPI(ctx context.Context, group *errgroup.Group, listener net.Listener, sched *scheduler.Scheduler) {
	grpcServer := grpc.NewServer()
	api.RegisterSchedulerServiceServer(grpcServer, api.NewServer(sched))

	group.Go(func() error {
		logger.InfoKV(ctx, "Control API listening", "listen_address", listener.Addr().String())

		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down control API")
		grpcServer.GracefulStop()

		return nil
	})
}

// resolveSettings loads the settings file and applies command line overrides.
func resolveSettings(opts *Options) (*config.Config, error) {
	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		settings.ControlAddress = opts.ListenAddress
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	if err := config.Validate(settings); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return settings, nil
}

func streams(opts *Options) (io.Reader, io.Writer, io.Writer) {
	var (
		in     io.Reader = os.Stdin
		out    io.Writer = os.Stdout
		errOut io.Writer = os.Stderr
	)

	if opts.In != nil {
		in = opts.In
	}

	if opts.Out != nil {
		out = opts.Out
	}

	if opts.ErrOut != nil {
		errOut = opts.ErrOut
	}

	return in, out, errOut
}
