package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// dispatch is the single worker owning the delivery timeline. It returns
// nil when ctx is canceled and an error only for a broken store invariant.
func (s *Scheduler) dispatch(ctx context.Context) error {
	for {
		s.mu.Lock()

		next, ok := s.store.EarliestActive()
		if !ok {
			s.ticket = time.Time{}
			s.mu.Unlock()

			logger.Debug(ctx, "Idle, no active alarms")

			select {
			case <-ctx.Done():
				return nil
			case <-s.wake:
				continue
			}
		}

		now := s.now()

		if !next.Deadline.After(now) {
			fired := s.take(ctx)
			s.mu.Unlock()

			s.deliver(ctx, fired)

			continue
		}

		s.ticket = next.Deadline
		s.mu.Unlock()

		logger.DebugKV(ctx, "Waiting for alarm",
			"alarm_id", next.ID, "deadline", next.Deadline.Unix(), "in", next.Deadline.Sub(now).String())

		fired, err := s.wait(ctx, next.Deadline.Sub(now), next)
		if err != nil {
			return err
		}

		if fired != nil {
			s.deliver(ctx, fired)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// wait sleeps until the committed deadline, the ticket changes, or ctx is
// done. It returns the fired alarm, or nil when the dispatcher must pick
// the earliest alarm again.
func (s *Scheduler) wait(
	ctx context.Context,
	d time.Duration,
	committed *alarm.Alarm,
) (*alarm.Alarm, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-s.wake:
			if s.preempted(committed.Deadline) {
				logger.DebugKV(ctx, "Wait preempted", "alarm_id", committed.ID)

				return nil, nil
			}
		case <-timer.C:
			return s.fire(ctx, committed)
		}
	}
}

// preempted reports whether the ticket no longer matches the committed deadline.
func (s *Scheduler) preempted(deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.ticket.Equal(deadline)
}

// fire removes the earliest active alarm once its timed wait has elapsed,
// provided nobody rewrote the ticket in the meantime.
func (s *Scheduler) fire(ctx context.Context, committed *alarm.Alarm) (*alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ticket.Equal(committed.Deadline) {
		return nil, nil
	}

	// The wall clock went backwards while we slept.
	if committed.Deadline.After(s.now()) {
		return nil, nil
	}

	// An unchanged ticket means the earliest active deadline is still the
	// committed one, though a lower id may have joined it.
	next, ok := s.store.EarliestActive()
	if !ok || !next.Deadline.Equal(committed.Deadline) {
		return nil, alarm.Errorf(alarm.KindInternal,
			"ticket %d for Alarm(%d) disagrees with the earliest active alarm %s",
			committed.Deadline.Unix(), committed.ID, describe(next))
	}

	return s.take(ctx), nil
}

// take pops the earliest active alarm and publishes its delivery events.
// Callers hold mu and know an active alarm exists.
func (s *Scheduler) take(ctx context.Context) *alarm.Alarm {
	fired, _ := s.store.PopEarliestActive()
	s.ticket = time.Time{}

	events := []alarm.Event{{
		Kind:    alarm.EventDelivered,
		AlarmID: fired.ID,
		Group:   fired.Group,
		Seconds: fired.Seconds,
		Message: fired.Message,
	}}

	if s.store.GroupSize(fired.Group) == 0 {
		events = append(events, alarm.Event{Kind: alarm.EventGroupDrained, Group: fired.Group})
	}

	s.publish(ctx, events)

	return fired
}

// deliver prints the alarm. Called without mu.
func (s *Scheduler) deliver(ctx context.Context, fired *alarm.Alarm) {
	if _, err := fmt.Fprintln(s.out, FormatDelivery(fired)); err != nil {
		logger.ErrorKV(ctx, "Failed to print delivery", "alarm_id", fired.ID, "error", err)
	}

	logger.InfoKV(ctx, "Alarm delivered",
		"alarm_id", fired.ID, "group_id", fired.Group, "deadline", fired.Deadline.Unix())
}

func describe(a *alarm.Alarm) string {
	if a == nil {
		return "<none>"
	}

	return fmt.Sprintf("Alarm(%d) at %d", a.ID, a.Deadline.Unix())
}
