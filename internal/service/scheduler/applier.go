package scheduler

import (
	"context"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// applyLoop takes commands off the queue one at a time.
func (s *Scheduler) applyLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.commands:
			outcome, err := s.apply(ctx, req.cmd)

			req.reply <- response{
				outcome: outcome,
				err:     err,
			}
		}
	}
}

// apply runs one command atomically under the store mutex, publishes the
// events it produced and wakes the dispatcher if the earliest active
// deadline moved. View only copies the store under the mutex.
func (s *Scheduler) apply(ctx context.Context, cmd command.Command) (*Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd.Kind == command.KindView {
		return &Outcome{Command: cmd, Alarms: s.store.Snapshot()}, nil
	}

	before := s.earliestDeadline()

	var (
		affected *alarm.Alarm
		events   []alarm.Event
		err      error
	)

	switch cmd.Kind {
	case command.KindStart:
		affected, events, err = s.start(cmd)
	case command.KindChange:
		affected, events, err = s.change(cmd)
	case command.KindCancel:
		affected, events, err = s.cancel(cmd)
	case command.KindSuspend:
		affected, err = s.setState(cmd, alarm.StateSuspended)
	case command.KindReactivate:
		affected, err = s.setState(cmd, alarm.StateActive)
	default:
		err = alarm.Errorf(alarm.KindInvalidArgument, "unknown command %s", cmd.Kind)
	}

	if err != nil {
		logger.DebugKV(ctx, "Command rejected", "command", cmd.String(), "error", err)

		return nil, err
	}

	s.publish(ctx, events)
	s.nudge(ctx, before)

	logger.DebugKV(ctx, "Command applied",
		"command", cmd.String(), "alarm_id", affected.ID, "deadline", affected.Deadline.Unix())

	return &Outcome{Command: cmd, Alarm: affected}, nil
}

// nudge rewrites the ticket and wakes the dispatcher when the earliest
// active deadline differs from before. Callers hold mu.
func (s *Scheduler) nudge(ctx context.Context, before time.Time) {
	after := s.earliestDeadline()
	if after.Equal(before) {
		return
	}

	s.ticket = after

	select {
	case s.wake <- struct{}{}:
	default:
	}

	logger.DebugKV(ctx, "Dispatcher nudged", "from", before.Unix(), "to", after.Unix())
}

func (s *Scheduler) start(cmd command.Command) (*alarm.Alarm, []alarm.Event, error) {
	if _, exists := s.store.Find(cmd.AlarmID); !exists && s.maxAlarms > 0 && s.store.Len() >= s.maxAlarms {
		return nil, nil, alarm.Errorf(alarm.KindResourceExhausted,
			"Alarm(%d): %d alarms already pending", cmd.AlarmID, s.store.Len())
	}

	now := s.now()
	created := &alarm.Alarm{
		ID:        cmd.AlarmID,
		Group:     cmd.Group,
		Seconds:   cmd.Seconds,
		Message:   cmd.Message,
		CreatedAt: now,
		Deadline:  now.Add(time.Duration(cmd.Seconds) * time.Second),
		State:     alarm.StateActive,
	}

	if err := s.store.Insert(created); err != nil {
		return nil, nil, err
	}

	var events []alarm.Event
	if s.store.GroupSize(cmd.Group) == 1 {
		events = append(events, alarm.Event{Kind: alarm.EventGroupSeen, Group: cmd.Group})
	}

	return created, events, nil
}

func (s *Scheduler) change(cmd command.Command) (*alarm.Alarm, []alarm.Event, error) {
	previous, ok := s.store.Find(cmd.AlarmID)
	if !ok {
		return nil, nil, alarm.Errorf(alarm.KindNotFound, "Alarm(%d) is not pending", cmd.AlarmID)
	}

	if err := s.store.Amend(cmd.AlarmID, cmd.Group, cmd.Seconds, cmd.Message); err != nil {
		return nil, nil, err
	}

	deadline := s.now().Add(time.Duration(cmd.Seconds) * time.Second)
	if err := s.store.Reschedule(cmd.AlarmID, deadline); err != nil {
		return nil, nil, err
	}

	var events []alarm.Event

	if previous.Group != cmd.Group {
		if s.store.GroupSize(previous.Group) == 0 {
			events = append(events, alarm.Event{Kind: alarm.EventGroupDrained, Group: previous.Group})
		}

		if s.store.GroupSize(cmd.Group) == 1 {
			events = append(events, alarm.Event{Kind: alarm.EventGroupSeen, Group: cmd.Group})
		}
	}

	changed, _ := s.store.Find(cmd.AlarmID)

	return changed, events, nil
}

func (s *Scheduler) cancel(cmd command.Command) (*alarm.Alarm, []alarm.Event, error) {
	removed, err := s.store.Remove(cmd.AlarmID)
	if err != nil {
		return nil, nil, err
	}

	var events []alarm.Event
	if s.store.GroupSize(removed.Group) == 0 {
		events = append(events, alarm.Event{Kind: alarm.EventGroupDrained, Group: removed.Group})
	}

	return removed, events, nil
}

func (s *Scheduler) setState(cmd command.Command, state alarm.State) (*alarm.Alarm, error) {
	if err := s.store.SetState(cmd.AlarmID, state); err != nil {
		return nil, err
	}

	updated, _ := s.store.Find(cmd.AlarmID)

	return updated, nil
}
