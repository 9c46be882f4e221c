package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
)

// delivery is one output line and the bubble time it was written at.
type delivery struct {
	at   time.Duration
	line string
}

// recorder is a concurrency-safe writer that timestamps every line.
type recorder struct {
	mu    sync.Mutex
	start time.Time
	lines []delivery
}

func (r *recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		r.lines = append(r.lines, delivery{at: time.Since(r.start), line: line})
	}

	return len(p), nil
}

func (r *recorder) deliveries() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]delivery(nil), r.lines...)
}

// harness runs a scheduler inside a synctest bubble.
type harness struct {
	t      *testing.T
	s      *Scheduler
	out    *recorder
	cancel context.CancelFunc
	done   chan error
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	out := &recorder{start: time.Now()}
	opts.Output = out

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		t:      t,
		s:      New(opts),
		out:    out,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	go func() {
		h.done <- h.s.Run(ctx)
	}()

	return h
}

func (h *harness) submit(cmd command.Command) (*Outcome, error) {
	h.t.Helper()

	return h.s.Submit(context.Background(), cmd)
}

func (h *harness) mustSubmit(cmd command.Command) *Outcome {
	h.t.Helper()

	outcome, err := h.submit(cmd)
	require.NoError(h.t, err, cmd.String())

	return outcome
}

func (h *harness) stop() {
	h.t.Helper()

	h.cancel()
	require.NoError(h.t, <-h.done)
}

// TestScheduler_BasicOrdering starts 5s then, a second later, 2s alarms and expects them at t=3 and t=5.
func TestScheduler_BasicOrdering(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 7, 5, "hello"))
		time.Sleep(time.Second)
		h.mustSubmit(command.Start(2, 7, 2, "world"))

		time.Sleep(10 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{
			{at: 3 * time.Second, line: "(2) world"},
			{at: 5 * time.Second, line: "(5) hello"},
		}, h.out.deliveries())
	})
}

// TestScheduler_Preemption inserts an earlier deadline while the dispatcher waits on a later one.
func TestScheduler_Preemption(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 10, "A"))
		time.Sleep(2 * time.Second)
		h.mustSubmit(command.Start(2, 1, 1, "B"))

		time.Sleep(20 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{
			{at: 3 * time.Second, line: "(1) B"},
			{at: 10 * time.Second, line: "(10) A"},
		}, h.out.deliveries())
	})
}

// TestScheduler_CancelBeforeFire checks a canceled alarm never fires and leaves View empty.
func TestScheduler_CancelBeforeFire(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 5, "X"))
		time.Sleep(2 * time.Second)

		outcome := h.mustSubmit(command.Cancel(1))
		require.Equal(t, []string{"Alarm(1) Canceled"}, outcome.Lines())

		time.Sleep(10 * time.Second)
		synctest.Wait()

		require.Empty(t, h.out.deliveries())

		view := h.mustSubmit(command.View())
		require.Empty(t, view.Alarms)
		require.Empty(t, view.Lines())

		_, err := h.submit(command.Cancel(1))
		require.Equal(t, alarm.KindNotFound, alarm.KindOf(err))
	})
}

// TestScheduler_SuspendAcrossDeadline reactivates an alarm whose deadline passed while suspended.
func TestScheduler_SuspendAcrossDeadline(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		started := h.mustSubmit(command.Start(1, 1, 3, "S"))
		time.Sleep(time.Second)
		h.mustSubmit(command.Suspend(1))

		// Suspending twice is a no-op.
		h.mustSubmit(command.Suspend(1))

		time.Sleep(3 * time.Second)
		synctest.Wait()
		require.Empty(t, h.out.deliveries())

		view := h.mustSubmit(command.View())
		require.Len(t, view.Alarms, 1)
		require.Equal(t, alarm.StateSuspended, view.Alarms[0].State)
		require.Equal(t, started.Alarm.Deadline, view.Alarms[0].Deadline)

		h.mustSubmit(command.Reactivate(1))
		synctest.Wait()

		require.Equal(t, []delivery{{at: 4 * time.Second, line: "(3) S"}}, h.out.deliveries())
	})
}

// TestScheduler_SuspendReactivateKeepsDeadline reactivates before the deadline and expects the original time.
func TestScheduler_SuspendReactivateKeepsDeadline(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 6, "kept"))
		h.mustSubmit(command.Start(2, 1, 8, "later"))
		time.Sleep(time.Second)
		h.mustSubmit(command.Suspend(1))
		time.Sleep(time.Second)

		// Reactivating an active alarm is a no-op.
		h.mustSubmit(command.Reactivate(2))
		h.mustSubmit(command.Reactivate(1))

		time.Sleep(10 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{
			{at: 6 * time.Second, line: "(6) kept"},
			{at: 8 * time.Second, line: "(8) later"},
		}, h.out.deliveries())
	})
}

// TestScheduler_DuplicateID rejects a second Start with the same id and still fires the first.
func TestScheduler_DuplicateID(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 2, "first"))

		_, err := h.submit(command.Start(1, 2, 1, "second"))
		require.Equal(t, alarm.KindDuplicateID, alarm.KindOf(err))

		time.Sleep(5 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{{at: 2 * time.Second, line: "(2) first"}}, h.out.deliveries())
	})
}

// TestScheduler_ViewOrdering lists ids 2, 1, 3 with deadlines 20, 10, 15 in deadline order.
func TestScheduler_ViewOrdering(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(2, 1, 20, "twenty"))
		h.mustSubmit(command.Start(1, 1, 10, "ten"))
		h.mustSubmit(command.Start(3, 2, 15, "fifteen"))
		h.mustSubmit(command.Suspend(3))

		view := h.mustSubmit(command.View())

		now := time.Now().Unix()
		require.Equal(t, []string{
			"Alarm(1): Group(1) Active at " + strconv.FormatInt(now+10, 10) + ": 10 ten",
			"Alarm(3): Group(2) Suspended at " + strconv.FormatInt(now+15, 10) + ": 15 fifteen",
			"Alarm(2): Group(1) Active at " + strconv.FormatInt(now+20, 10) + ": 20 twenty",
		}, view.Lines())
	})
}

// TestScheduler_Change moves a pending alarm and checks it fires at its new deadline with the new message.
func TestScheduler_Change(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 4, "old"))
		h.mustSubmit(command.Start(2, 1, 6, "other"))
		time.Sleep(time.Second)

		changed := h.mustSubmit(command.Change(1, 3, 9, "new"))
		require.Equal(t, 3, changed.Alarm.Group)
		require.True(t, time.Now().Add(9*time.Second).Equal(changed.Alarm.Deadline))
		require.Equal(t, []string{
			"Alarm(1) Changed at " + strconv.FormatInt(time.Now().Unix()+9, 10) + ": Group(3) 9 new",
		}, changed.Lines())

		// A suspended alarm stays suspended across a change.
		h.mustSubmit(command.Suspend(2))
		h.mustSubmit(command.Change(2, 1, 1, "still suspended"))

		_, err := h.submit(command.Change(5, 1, 1, "missing"))
		require.Equal(t, alarm.KindNotFound, alarm.KindOf(err))

		_, err = h.submit(command.Change(1, 1, 0, "zero"))
		require.Equal(t, alarm.KindInvalidArgument, alarm.KindOf(err))

		time.Sleep(20 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{{at: 10 * time.Second, line: "(9) new"}}, h.out.deliveries())

		view := h.mustSubmit(command.View())
		require.Len(t, view.Alarms, 1)
		require.Equal(t, "still suspended", view.Alarms[0].Message)
		require.Equal(t, alarm.StateSuspended, view.Alarms[0].State)
	})
}

// TestScheduler_TiesBreakOnID starts alarms sharing a deadline out of id order.
func TestScheduler_TiesBreakOnID(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		for _, id := range []int{5, 3, 9, 1} {
			h.mustSubmit(command.Start(id, 1, 2, "tie"+strconv.Itoa(id)))
		}

		time.Sleep(3 * time.Second)
		synctest.Wait()

		require.Equal(t, []delivery{
			{at: 2 * time.Second, line: "(2) tie1"},
			{at: 2 * time.Second, line: "(2) tie3"},
			{at: 2 * time.Second, line: "(2) tie5"},
			{at: 2 * time.Second, line: "(2) tie9"},
		}, h.out.deliveries())
	})
}

// TestScheduler_ResourceExhausted caps the number of pending alarms.
func TestScheduler_ResourceExhausted(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{MaxAlarms: 2})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 5, "a"))
		h.mustSubmit(command.Start(2, 1, 5, "b"))

		_, err := h.submit(command.Start(3, 1, 5, "c"))
		require.Equal(t, alarm.KindResourceExhausted, alarm.KindOf(err))

		// Duplicates are still reported as such when the store is full.
		_, err = h.submit(command.Start(2, 1, 5, "b"))
		require.Equal(t, alarm.KindDuplicateID, alarm.KindOf(err))

		h.mustSubmit(command.Cancel(1))
		h.mustSubmit(command.Start(3, 1, 5, "c"))
	})
}

// TestScheduler_Events checks group membership and delivery notifications.
func TestScheduler_Events(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		events := make(chan alarm.Event, 16)

		h := newHarness(t, Options{Events: events})
		defer h.stop()

		h.mustSubmit(command.Start(1, 1, 5, "a"))
		h.mustSubmit(command.Start(2, 1, 5, "b"))
		h.mustSubmit(command.Start(3, 2, 3, "c"))
		h.mustSubmit(command.Change(3, 1, 3, "c"))
		h.mustSubmit(command.Cancel(1))

		time.Sleep(10 * time.Second)
		synctest.Wait()
		close(events)

		var got []alarm.Event
		for event := range events {
			got = append(got, event)
		}

		require.Equal(t, []alarm.Event{
			{Kind: alarm.EventGroupSeen, Group: 1},
			{Kind: alarm.EventGroupSeen, Group: 2},
			{Kind: alarm.EventGroupDrained, Group: 2},
			{Kind: alarm.EventDelivered, AlarmID: 3, Group: 1, Seconds: 3, Message: "c"},
			{Kind: alarm.EventDelivered, AlarmID: 2, Group: 1, Seconds: 5, Message: "b"},
			{Kind: alarm.EventGroupDrained, Group: 1},
		}, got)
	})
}

// TestScheduler_EventsNeverBlock fills the event channel and expects commands and deliveries to proceed.
func TestScheduler_EventsNeverBlock(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		events := make(chan alarm.Event)

		h := newHarness(t, Options{Events: events})
		defer h.stop()

		for id := 1; id <= 5; id++ {
			h.mustSubmit(command.Start(id, id, 1, "x"))
		}

		time.Sleep(2 * time.Second)
		synctest.Wait()

		require.Len(t, h.out.deliveries(), 5)
	})
}

// TestScheduler_DeliveriesRespectDeadlines replays a pseudo-random command mix and checks
// that deliveries are ordered, never early, and that every started alarm is accounted for.
func TestScheduler_DeliveriesRespectDeadlines(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		var (
			start     = time.Now()
			deadlines = make(map[int]time.Duration)
			canceled  = make(map[int]bool)
			seed      = uint32(7)
		)

		// A tiny LCG keeps the sequence deterministic without shared state.
		next := func(n int) int {
			seed = seed*1664525 + 1013904223
			return int(seed>>16) % n
		}

		started := 0

		for step := 0; step < 80; step++ {
			switch next(4) {
			case 0, 1:
				started++

				outcome, err := h.submit(command.Start(started, next(3)+1, next(9)+1, "m"+strconv.Itoa(started)))
				require.NoError(t, err)

				deadlines[started] = outcome.Alarm.Deadline.Sub(start)
			case 2:
				id := next(started+1) + 1

				outcome, err := h.submit(command.Change(id, next(3)+1, next(9)+1, "m"+strconv.Itoa(id)))
				if err == nil {
					deadlines[id] = outcome.Alarm.Deadline.Sub(start)
				}
			default:
				id := next(started+1) + 1

				if _, err := h.submit(command.Cancel(id)); err == nil {
					canceled[id] = true
				}
			}

			time.Sleep(time.Duration(next(1500)) * time.Millisecond)
		}

		time.Sleep(time.Minute)
		synctest.Wait()

		view := h.mustSubmit(command.View())
		require.Empty(t, view.Alarms)

		var previous time.Duration

		delivered := make(map[int]bool)

		for _, d := range h.out.deliveries() {
			var seconds, id int

			_, err := fmt.Sscanf(d.line, "(%d) m%d", &seconds, &id)
			require.NoError(t, err, d.line)

			deadline, ok := deadlines[id]
			require.True(t, ok, d.line)
			require.False(t, canceled[id], d.line)
			require.GreaterOrEqual(t, d.at, deadline, d.line)
			require.GreaterOrEqual(t, deadline, previous, d.line)
			require.False(t, delivered[id], d.line)

			previous = deadline
			delivered[id] = true
		}

		// Every started alarm was either delivered or canceled.
		require.Len(t, deadlines, len(delivered)+len(canceled))
	})
}

// TestScheduler_SubmitAfterStop returns ErrStopped once Run has returned.
func TestScheduler_SubmitAfterStop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		h.stop()

		_, err := h.submit(command.View())
		require.ErrorIs(t, err, ErrStopped)
	})
}

// TestScheduler_FireDetectsBrokenInvariant forces a ticket that disagrees with the store.
func TestScheduler_FireDetectsBrokenInvariant(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_000, 0)
	s := New(Options{Now: func() time.Time { return now }})

	require.NoError(t, s.store.Insert(&alarm.Alarm{ID: 1, Group: 1, Seconds: 1, Deadline: now.Add(-2 * time.Second)}))

	committed := &alarm.Alarm{ID: 2, Deadline: now.Add(-time.Second)}
	s.ticket = committed.Deadline

	fired, err := s.fire(context.Background(), committed)
	require.Nil(t, fired)
	require.True(t, alarm.IsFatal(err))

	// A rewritten ticket is a preemption, not a failure.
	s.ticket = now

	fired, err = s.fire(context.Background(), committed)
	require.NoError(t, err)
	require.Nil(t, fired)
}

// TestScheduler_FireWaitsWhenClockWentBack re-enters waiting when the wall clock is behind the deadline.
func TestScheduler_FireWaitsWhenClockWentBack(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_000, 0)
	events := make(chan alarm.Event, 4)
	s := New(Options{Events: events, Now: func() time.Time { return now }})

	committed := &alarm.Alarm{ID: 1, Group: 1, Seconds: 5, Deadline: now.Add(time.Second)}
	require.NoError(t, s.store.Insert(committed))

	s.ticket = committed.Deadline

	fired, err := s.fire(context.Background(), committed)
	require.NoError(t, err)
	require.Nil(t, fired)
	require.Equal(t, 1, s.store.Len())
	require.Empty(t, events)

	now = now.Add(time.Second)

	fired, err = s.fire(context.Background(), committed)
	require.NoError(t, err)
	require.Equal(t, 1, fired.ID)
	require.Len(t, events, 2)
	require.True(t, s.ticket.IsZero())
}

// TestScheduler_EventsFollowMutationOrder drains a group and seeds it again
// and expects the registry to see the events in the same order.
func TestScheduler_EventsFollowMutationOrder(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_000, 0)
	events := make(chan alarm.Event, 8)
	s := New(Options{Events: events, Now: func() time.Time { return now }})
	ctx := context.Background()

	_, err := s.apply(ctx, command.Start(1, 7, 1, "first"))
	require.NoError(t, err)

	now = now.Add(time.Second)

	// Delivery events are on the channel before the dispatcher lets go of the store.
	s.mu.Lock()
	fired := s.take(ctx)
	require.Len(t, events, 3)
	s.mu.Unlock()

	require.Equal(t, 1, fired.ID)

	_, err = s.apply(ctx, command.Start(2, 7, 1, "second"))
	require.NoError(t, err)

	close(events)

	var kinds []alarm.EventKind
	for event := range events {
		kinds = append(kinds, event.Kind)
	}

	require.Equal(t, []alarm.EventKind{
		alarm.EventGroupSeen,
		alarm.EventDelivered,
		alarm.EventGroupDrained,
		alarm.EventGroupSeen,
	}, kinds)
}

// TestScheduler_SecondsBound rejects delays a time.Duration cannot hold and
// keeps the longest accepted one in the future.
func TestScheduler_SecondsBound(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, Options{})
		defer h.stop()

		maxSeconds := alarm.MaxSeconds
		tooFar := int(maxSeconds + 1)

		_, err := h.submit(command.Start(1, 1, tooFar, "far future"))
		require.Equal(t, alarm.KindInvalidArgument, alarm.KindOf(err))

		far := h.mustSubmit(command.Start(2, 1, int(maxSeconds), "far future"))
		require.True(t, far.Alarm.Deadline.After(far.Alarm.CreatedAt))

		h.mustSubmit(command.Start(3, 1, 5, "soon"))

		_, err = h.submit(command.Change(3, 1, tooFar, "far future"))
		require.Equal(t, alarm.KindInvalidArgument, alarm.KindOf(err))

		time.Sleep(10 * time.Second)
		synctest.Wait()

		require.Equal(t, []string{"(5) soon"}, lines(h.out.deliveries()))
		require.Len(t, h.mustSubmit(command.View()).Alarms, 1)
	})
}

func lines(deliveries []delivery) []string {
	out := make([]string, 0, len(deliveries))
	for _, d := range deliveries {
		out = append(out, d.line)
	}

	return out
}
