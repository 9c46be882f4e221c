// Package alarm exposes the scheduler over gRPC.
//
// The alarm.v1.SchedulerService control API accepts one command line per
// Submit call and lists pending alarms with ListAlarms. Messages are
// protobuf well-known types, so the service descriptor and client stub are
// declared here by hand instead of being generated.
package alarm
