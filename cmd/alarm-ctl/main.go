// Command alarm-ctl sends commands to a running alarm-scheduler over its control API.
package main

import "github.com/oshokin/alarm-scheduler/cmd/alarm-ctl/cmd"

func main() {
	cmd.Execute()
}
