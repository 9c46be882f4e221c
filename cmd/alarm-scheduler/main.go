// Command alarm-scheduler reads alarm commands on standard input and prints
// each alarm's message once its deadline elapses.
package main

import "github.com/oshokin/alarm-scheduler/cmd/alarm-scheduler/cmd"

func main() {
	cmd.Execute()
}
