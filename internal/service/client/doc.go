// Package client implements alarm-ctl: it sends one command line to a
// running scheduler over the control API and prints the records it gets
// back, or dumps the pending alarms as JSON.
package client
