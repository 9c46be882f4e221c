package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/store"
)

// ErrStopped is returned by Submit once the scheduler has stopped.
var ErrStopped = errors.New("scheduler stopped")

// Options configures a Scheduler.
type Options struct {
	// Output receives delivery lines. It must be safe for concurrent use
	// when shared with other writers. Nil discards deliveries.
	Output io.Writer
	// Events receives group and delivery notifications. Sends never block:
	// events that do not fit are dropped. Nil disables publication.
	Events chan<- alarm.Event
	// Now returns the current wall-clock time. Defaults to time.Now
	// without the monotonic reading.
	Now func() time.Time
	// MaxAlarms caps the number of pending alarms. Zero means no cap.
	MaxAlarms int
}

// Scheduler is the alarm store plus the dispatcher and applier that share it.
type Scheduler struct {
	// mu guards store and ticket.
	mu    sync.Mutex
	store *store.Store
	// ticket is the deadline the dispatcher is committed to, zero when idle.
	ticket time.Time
	// wake signals the dispatcher. Capacity one, sent under mu.
	wake chan struct{}

	// commands is the single command queue drained by the applier.
	commands chan request
	// stopped is closed when Run returns.
	stopped chan struct{}

	out       io.Writer
	events    chan<- alarm.Event
	now       func() time.Time
	maxAlarms int
}

// request carries one command and its reply channel through the queue.
type request struct {
	cmd   command.Command
	reply chan response
}

type response struct {
	outcome *Outcome
	err     error
}

// New creates a scheduler. Run must be called once to start it.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		store:     store.New(),
		wake:      make(chan struct{}, 1),
		commands:  make(chan request),
		stopped:   make(chan struct{}),
		out:       opts.Output,
		events:    opts.Events,
		now:       opts.Now,
		maxAlarms: opts.MaxAlarms,
	}

	if s.out == nil {
		s.out = io.Discard
	}

	if s.now == nil {
		s.now = wallClock
	}

	return s
}

// Run starts the dispatcher and the applier and blocks until ctx is
// canceled or the dispatcher detects a broken store invariant.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.stopped)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.dispatch(logger.WithName(groupCtx, "dispatcher"))
	})

	group.Go(func() error {
		return s.applyLoop(logger.WithName(groupCtx, "applier"))
	})

	return group.Wait()
}

// Submit queues a command and waits for the applier's result.
// Commands are applied in the order they are queued.
func (s *Scheduler) Submit(ctx context.Context, cmd command.Command) (*Outcome, error) {
	req := request{
		cmd:   cmd,
		reply: make(chan response, 1),
	}

	select {
	case s.commands <- req:
	case <-s.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.outcome, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// earliestDeadline returns the deadline of the earliest active alarm, or
// the zero time. Callers hold mu.
func (s *Scheduler) earliestDeadline() time.Time {
	next, ok := s.store.EarliestActive()
	if !ok {
		return time.Time{}
	}

	return next.Deadline
}

// publish hands events to the registry without blocking. Callers hold mu,
// so the applier's and the dispatcher's events reach the registry in the
// order their mutations happened.
func (s *Scheduler) publish(ctx context.Context, events []alarm.Event) {
	if s.events == nil {
		return
	}

	for _, event := range events {
		select {
		case s.events <- event:
		default:
			logger.WarnKV(ctx, "Event dropped, registry is behind",
				"event", event.Kind.String(), "group_id", event.Group, "alarm_id", event.AlarmID)
		}
	}
}

// wallClock is time.Now stripped of its monotonic reading, so deadlines
// follow the system clock.
func wallClock() time.Time {
	return time.Now().Round(0)
}
