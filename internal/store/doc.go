// Package store implements the ordered set of pending alarms.
//
// Active alarms live in a binary min-heap ordered by (deadline, id) with a
// side index by id, so insert, remove, state changes and reschedules are
// O(log n) and the earliest-active query is O(1). Suspended alarms are kept
// only in the index. The store performs no I/O and takes no locks; callers
// serialize access.
package store
