package alarm

import (
	"fmt"
	"math"
	"time"
)

const (
	// MaxMessageBytes is the longest message an alarm can carry.
	MaxMessageBytes = 127
	// MaxSeconds is the longest delay a time.Duration can hold, about 292 years.
	MaxSeconds int64 = math.MaxInt64 / int64(time.Second)
)

// State is the lifecycle state of a pending alarm.
type State int

const (
	// StateActive alarms are considered by the dispatcher.
	StateActive State = iota
	// StateSuspended alarms stay in the store but never fire.
	StateSuspended
)

// String returns the human-readable state name used in View output.
func (s State) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateSuspended:
		return "Suspended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Alarm is a scheduled one-shot delivery of a message.
type Alarm struct {
	// ID is unique among live alarms.
	ID int
	// Group is the user-supplied partitioning key.
	Group int
	// Seconds is the originally requested duration, echoed on delivery.
	Seconds int
	// Message is printed when the alarm fires.
	Message string
	// CreatedAt is when the alarm was started or last changed.
	CreatedAt time.Time
	// Deadline is the absolute wall-clock instant of delivery.
	Deadline time.Time
	// State tells whether the dispatcher may fire the alarm.
	State State
}

// Clone returns a copy of the alarm to avoid leaking internal references.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Before reports whether a is ordered before b by (deadline, id).
func (a *Alarm) Before(b *Alarm) bool {
	if !a.Deadline.Equal(b.Deadline) {
		return a.Deadline.Before(b.Deadline)
	}

	return a.ID < b.ID
}

// IsActive reports whether the dispatcher may fire the alarm.
func (a *Alarm) IsActive() bool {
	return a.State == StateActive
}
