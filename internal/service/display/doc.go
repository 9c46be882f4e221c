// Package display runs the group display registry.
//
// The registry consumes scheduler events: a group seen for the first time
// gets its own worker goroutine, deliveries are forwarded to that worker,
// and a drained group has its worker retired. Events arrive in the order
// the store changed, so a group drained and seen again gets a fresh worker.
package display
