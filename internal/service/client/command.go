package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/alarm-scheduler/internal/config"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/service/common"
)

// Options configures a single alarm-ctl invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the control address from config when specified.
	ServerAddress string
	// Line is the command line to submit.
	Line string
	// JSON lists pending alarms as JSON instead of submitting Line.
	JSON bool
	// Out receives the response. Defaults to standard output.
	Out io.Writer
}

var (
	// ErrNoServerAddress indicates missing control address configuration.
	ErrNoServerAddress = errors.New("no control address configured")
	// errEmptyLine is returned when there is nothing to submit.
	errEmptyLine = errors.New("command line is empty")
)

// Run submits the command line, or lists alarms, and prints the response.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-ctl")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// The client keeps the process-wide level untouched and scopes its own logger instead.
	if lvl, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		ctx = logger.WithMinLevel(ctx, lvl)
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ControlAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	if serverAddress == "" {
		return ErrNoServerAddress
	}

	line := strings.TrimSpace(opts.Line)
	if line == "" && !opts.JSON {
		return errEmptyLine
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Calling alarm scheduler", "server_address", serverAddress, "line", line, "json", opts.JSON)

	if opts.JSON {
		return listJSON(ctx, client, out)
	}

	resp, err := client.Submit(ctx, line)
	if err != nil {
		return err
	}

	if resp != "" {
		_, _ = fmt.Fprintln(out, resp)
	}

	return nil
}

// listJSON prints the pending alarms through protojson.
func listJSON(ctx context.Context, client *common.Client, out io.Writer) error {
	list, err := client.ListAlarms(ctx)
	if err != nil {
		return err
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	_, _ = fmt.Fprintln(out, string(data))

	return nil
}
