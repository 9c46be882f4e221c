// Package alarm contains core domain types for the alarm scheduler.
//
// It defines Alarm (a one-shot delivery of a message at an absolute
// deadline), its lifecycle State, the Event values the scheduler publishes
// to group display workers, and the Error kinds shared by every layer.
package alarm
