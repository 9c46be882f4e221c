package store

import (
	"container/heap"
	"slices"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Store is the set of pending alarms. The zero value is not usable; call New.
type Store struct {
	// index maps alarm id to its entry, active or suspended.
	index map[int]*entry
	// active orders the active entries.
	active activeHeap
	// groups counts pending alarms per group.
	groups map[int]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index:  make(map[int]*entry),
		groups: make(map[int]int),
	}
}

// Len returns the number of pending alarms, suspended ones included.
func (s *Store) Len() int {
	return len(s.index)
}

// GroupSize returns the number of pending alarms in the group.
func (s *Store) GroupSize(group int) int {
	return s.groups[group]
}

// Insert adds a new alarm. The store keeps its own copy.
func (s *Store) Insert(a *alarm.Alarm) error {
	if _, ok := s.index[a.ID]; ok {
		return alarm.Errorf(alarm.KindDuplicateID, "Alarm(%d) already exists", a.ID)
	}

	e := &entry{
		alarm: a.Clone(),
		pos:   -1,
	}

	s.index[a.ID] = e
	s.groups[a.Group]++

	if e.alarm.IsActive() {
		heap.Push(&s.active, e)
	}

	return nil
}

// Remove deletes the alarm and returns it.
func (s *Store) Remove(id int) (*alarm.Alarm, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	s.drop(e)

	return e.alarm, nil
}

// Find returns a copy of the alarm for inspection.
func (s *Store) Find(id int) (*alarm.Alarm, bool) {
	e, ok := s.index[id]
	if !ok {
		return nil, false
	}

	return e.alarm.Clone(), true
}

// SetState moves the alarm between the active heap and the suspended set.
// Setting the current state again is a no-op.
func (s *Store) SetState(id int, state alarm.State) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	if e.alarm.State == state {
		return nil
	}

	if e.alarm.IsActive() {
		heap.Remove(&s.active, e.pos)
	}

	e.alarm.State = state

	if e.alarm.IsActive() {
		heap.Push(&s.active, e)
	}

	return nil
}

// Reschedule sets a new deadline and restores the ordering.
func (s *Store) Reschedule(id int, deadline time.Time) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.alarm.Deadline = deadline

	if e.pos >= 0 {
		heap.Fix(&s.active, e.pos)
	}

	return nil
}

// Amend replaces the fields of an alarm that do not take part in ordering.
func (s *Store) Amend(id, group, seconds int, message string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	if e.alarm.Group != group {
		s.leaveGroup(e.alarm.Group)
		s.groups[group]++
	}

	e.alarm.Group = group
	e.alarm.Seconds = seconds
	e.alarm.Message = message

	return nil
}

// EarliestActive returns a copy of the active alarm with the smallest
// (deadline, id), or false when no alarm is active.
func (s *Store) EarliestActive() (*alarm.Alarm, bool) {
	if len(s.active) == 0 {
		return nil, false
	}

	return s.active[0].alarm.Clone(), true
}

// PopEarliestActive removes and returns the earliest active alarm.
func (s *Store) PopEarliestActive() (*alarm.Alarm, bool) {
	if len(s.active) == 0 {
		return nil, false
	}

	e := s.active[0]
	s.drop(e)

	return e.alarm, true
}

// Snapshot returns copies of every pending alarm ordered by (deadline, id).
func (s *Store) Snapshot() []alarm.Alarm {
	result := make([]alarm.Alarm, 0, len(s.index))
	for _, e := range s.index {
		result = append(result, *e.alarm)
	}

	slices.SortFunc(result, func(a, b alarm.Alarm) int {
		switch {
		case a.Before(&b):
			return -1
		case b.Before(&a):
			return 1
		default:
			return 0
		}
	})

	return result
}

func (s *Store) lookup(id int) (*entry, error) {
	e, ok := s.index[id]
	if !ok {
		return nil, alarm.Errorf(alarm.KindNotFound, "Alarm(%d) is not pending", id)
	}

	return e, nil
}

func (s *Store) drop(e *entry) {
	if e.pos >= 0 {
		heap.Remove(&s.active, e.pos)
	}

	delete(s.index, e.alarm.ID)
	s.leaveGroup(e.alarm.Group)
}

func (s *Store) leaveGroup(group int) {
	s.groups[group]--
	if s.groups[group] <= 0 {
		delete(s.groups, group)
	}
}
