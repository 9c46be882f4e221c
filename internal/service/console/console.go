package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/service/scheduler"
)

// maxLineBytes bounds one input line.
const maxLineBytes = 64 * 1024

// Submitter applies commands. *scheduler.Scheduler satisfies it.
type Submitter interface {
	Submit(ctx context.Context, cmd command.Command) (*scheduler.Outcome, error)
}

// Options wires the console to its streams and the scheduler.
type Options struct {
	// In is read line by line.
	In io.Reader
	// Out receives the prompt and command records.
	Out io.Writer
	// ErrOut receives diagnostics.
	ErrOut io.Writer
	// Prompt is printed before every read. Empty disables it.
	Prompt string
	// Submitter applies parsed commands.
	Submitter Submitter
}

// Run reads commands until end of input or ctx is canceled. It returns nil
// on a clean end of input. Fatal scheduler errors are returned.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "console")

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		readErr <- scan(ctx, opts.In, lines)
	}()

	for {
		if opts.Prompt != "" {
			_, _ = io.WriteString(opts.Out, opts.Prompt)
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}

			if err := handle(ctx, opts, line); err != nil {
				return err
			}
		}
	}
}

// scan feeds lines until end of input. It closes lines when done.
func scan(ctx context.Context, in io.Reader, lines chan<- string) error {
	defer close(lines)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}

	logger.Debug(ctx, "End of input")

	return nil
}

// handle applies one line. Only fatal errors are returned.
func handle(ctx context.Context, opts *Options, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cmd, err := command.Parse(line)
	if err != nil {
		if alarm.KindOf(err) == alarm.KindParseError {
			_, _ = fmt.Fprintln(opts.ErrOut, "Bad command")
		} else {
			_, _ = fmt.Fprintln(opts.ErrOut, err)
		}

		logger.DebugKV(ctx, "Line rejected", "line", line, "error", err)

		return nil
	}

	outcome, err := opts.Submitter.Submit(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}

		if alarm.IsFatal(err) {
			return err
		}

		_, _ = fmt.Fprintln(opts.ErrOut, err)

		return nil
	}

	for _, record := range outcome.Lines() {
		_, _ = fmt.Fprintln(opts.Out, record)
	}

	return nil
}
