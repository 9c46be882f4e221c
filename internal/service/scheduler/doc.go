// Package scheduler runs the alarm scheduler core.
//
// A Scheduler owns the pending-alarm store, one mutex guarding it, and the
// ticket: the deadline the dispatcher is currently committed to, zero when
// it is idle. Two goroutines touch the store:
//
//   - the applier takes commands from a single queue in arrival order and
//     applies each one atomically under the mutex. When a command changes
//     the earliest active deadline it rewrites the ticket and wakes the
//     dispatcher;
//   - the dispatcher sleeps until the earliest active deadline. A wakeup
//     that finds the ticket unchanged is spurious and the wait resumes; a
//     changed ticket sends it back to pick the earliest alarm again. Alarms
//     leave the store only when they fire, so preemption never loses one.
//
// Group membership changes and deliveries are published on a non-blocking
// event channel while the mutex is still held, so events arrive in the
// order the store changed.
package scheduler
