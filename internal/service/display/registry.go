package display

import (
	"context"
	"sync"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// workerBuffer is how many deliveries a group worker can lag behind.
const workerBuffer = 16

// Registry tracks one display worker per live group.
type Registry struct {
	// mu guards workers and shown.
	mu      sync.Mutex
	workers map[int]*worker
	// shown counts deliveries displayed per group over the registry lifetime.
	shown map[int]int

	wg sync.WaitGroup
}

// worker is the display goroutine of one group.
type worker struct {
	group      int
	deliveries chan alarm.Event
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[int]*worker),
		shown:   make(map[int]int),
	}
}

// Run consumes events until ctx is canceled or events is closed, then
// retires every worker and waits for them.
func (r *Registry) Run(ctx context.Context, events <-chan alarm.Event) error {
	ctx = logger.WithName(ctx, "display")

	defer r.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			r.handle(ctx, event)
		}
	}
}

// Groups returns the groups that currently have a worker.
func (r *Registry) Groups() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make([]int, 0, len(r.workers))
	for group := range r.workers {
		groups = append(groups, group)
	}

	return groups
}

// Shown returns how many deliveries the workers of a group displayed.
func (r *Registry) Shown(group int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.shown[group]
}

func (r *Registry) handle(ctx context.Context, event alarm.Event) {
	switch event.Kind {
	case alarm.EventGroupSeen:
		r.spawn(ctx, event.Group)
	case alarm.EventDelivered:
		r.forward(ctx, event)
	case alarm.EventGroupDrained:
		r.retire(ctx, event.Group)
	default:
		logger.WarnKV(ctx, "Unknown event", "kind", int(event.Kind))
	}
}

func (r *Registry) spawn(ctx context.Context, group int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workers[group]; ok {
		return
	}

	w := &worker{
		group:      group,
		deliveries: make(chan alarm.Event, workerBuffer),
	}
	r.workers[group] = w

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		r.display(logger.WithKV(ctx, "group_id", group), w)
	}()

	logger.InfoKV(ctx, "Display worker started", "group_id", group)
}

// forward hands a delivery to its group worker, starting one if the
// group-seen event was dropped.
func (r *Registry) forward(ctx context.Context, event alarm.Event) {
	r.mu.Lock()
	w, ok := r.workers[event.Group]
	r.mu.Unlock()

	if !ok {
		r.spawn(ctx, event.Group)

		r.mu.Lock()
		w = r.workers[event.Group]
		r.mu.Unlock()
	}

	select {
	case w.deliveries <- event:
	default:
		logger.WarnKV(ctx, "Display worker is behind, delivery not shown",
			"group_id", event.Group, "alarm_id", event.AlarmID)
	}
}

func (r *Registry) retire(ctx context.Context, group int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[group]
	if !ok {
		return
	}

	delete(r.workers, group)
	close(w.deliveries)

	logger.InfoKV(ctx, "Display worker retired", "group_id", group)
}

func (r *Registry) shutdown() {
	r.mu.Lock()
	for group, w := range r.workers {
		delete(r.workers, group)
		close(w.deliveries)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// display drains one group's deliveries until its channel is closed.
func (r *Registry) display(ctx context.Context, w *worker) {
	for event := range w.deliveries {
		r.mu.Lock()
		r.shown[w.group]++
		r.mu.Unlock()

		logger.InfoKV(ctx, "Alarm displayed",
			"alarm_id", event.AlarmID, "seconds", event.Seconds, "message", event.Message)
	}
}
