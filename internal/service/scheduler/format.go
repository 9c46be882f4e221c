package scheduler

import (
	"fmt"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/domain/command"
)

// Outcome is the result of one applied command.
type Outcome struct {
	// Command is the command that produced the outcome.
	Command command.Command
	// Alarm is the affected alarm after the command. Nil for View.
	Alarm *alarm.Alarm
	// Alarms is the ordered snapshot taken by View.
	Alarms []alarm.Alarm
}

// Lines renders the outcome as the records printed on standard output.
func (o *Outcome) Lines() []string {
	switch o.Command.Kind {
	case command.KindView:
		lines := make([]string, 0, len(o.Alarms))
		for i := range o.Alarms {
			lines = append(lines, FormatListing(&o.Alarms[i]))
		}

		return lines
	case command.KindStart:
		return []string{fmt.Sprintf("Alarm(%d) Inserted Into Alarm List at %d: Group(%d) %d %s",
			o.Alarm.ID, o.Alarm.Deadline.Unix(), o.Alarm.Group, o.Alarm.Seconds, o.Alarm.Message)}
	case command.KindChange:
		return []string{fmt.Sprintf("Alarm(%d) Changed at %d: Group(%d) %d %s",
			o.Alarm.ID, o.Alarm.Deadline.Unix(), o.Alarm.Group, o.Alarm.Seconds, o.Alarm.Message)}
	case command.KindCancel:
		return []string{fmt.Sprintf("Alarm(%d) Canceled", o.Alarm.ID)}
	case command.KindSuspend:
		return []string{fmt.Sprintf("Alarm(%d) Suspended", o.Alarm.ID)}
	case command.KindReactivate:
		return []string{fmt.Sprintf("Alarm(%d) Reactivated", o.Alarm.ID)}
	default:
		return nil
	}
}

// FormatDelivery renders the line printed when an alarm fires.
func FormatDelivery(a *alarm.Alarm) string {
	return fmt.Sprintf("(%d) %s", a.Seconds, a.Message)
}

// FormatListing renders one View line.
func FormatListing(a *alarm.Alarm) string {
	return fmt.Sprintf("Alarm(%d): Group(%d) %s at %d: %d %s",
		a.ID, a.Group, a.State, a.Deadline.Unix(), a.Seconds, a.Message)
}
