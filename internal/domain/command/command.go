package command

import (
	"fmt"
	"unicode/utf8"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Kind tags a Command.
type Kind int

const (
	// KindStart inserts a new alarm.
	KindStart Kind = iota + 1
	// KindChange replaces group, seconds and message of a pending alarm.
	KindChange
	// KindCancel removes a pending alarm.
	KindCancel
	// KindSuspend stops a pending alarm from firing.
	KindSuspend
	// KindReactivate lets a suspended alarm fire again.
	KindReactivate
	// KindView lists pending alarms.
	KindView
)

// String returns the keyword of the command kind.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "Start_Alarm"
	case KindChange:
		return "Change_Alarm"
	case KindCancel:
		return "Cancel_Alarm"
	case KindSuspend:
		return "Suspend_Alarm"
	case KindReactivate:
		return "Reactivate_Alarm"
	case KindView:
		return "View_Alarms"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is a typed scheduler command. Which fields are meaningful
// depends on Kind: Start and Change use all of them, Cancel, Suspend and
// Reactivate use AlarmID only, View uses none.
type Command struct {
	Kind    Kind
	AlarmID int
	Group   int
	Seconds int
	Message string
}

// Start builds a Start command.
func Start(id, group, seconds int, message string) Command {
	return Command{Kind: KindStart, AlarmID: id, Group: group, Seconds: seconds, Message: message}
}

// Change builds a Change command.
func Change(id, group, seconds int, message string) Command {
	return Command{Kind: KindChange, AlarmID: id, Group: group, Seconds: seconds, Message: message}
}

// Cancel builds a Cancel command.
func Cancel(id int) Command {
	return Command{Kind: KindCancel, AlarmID: id}
}

// Suspend builds a Suspend command.
func Suspend(id int) Command {
	return Command{Kind: KindSuspend, AlarmID: id}
}

// Reactivate builds a Reactivate command.
func Reactivate(id int) Command {
	return Command{Kind: KindReactivate, AlarmID: id}
}

// View builds a View command.
func View() Command {
	return Command{Kind: KindView}
}

// Validate checks field ranges for the command kind.
func (c *Command) Validate() error {
	switch c.Kind {
	case KindStart, KindChange:
		if c.AlarmID <= 0 || c.Group <= 0 {
			return alarm.Errorf(alarm.KindInvalidArgument,
				"%s(%d): alarm and group ids must be positive", c.Kind, c.AlarmID)
		}

		if c.Seconds <= 0 || int64(c.Seconds) > alarm.MaxSeconds {
			return alarm.Errorf(alarm.KindInvalidArgument,
				"%s(%d): seconds must be between 1 and %d, got %d", c.Kind, c.AlarmID, alarm.MaxSeconds, c.Seconds)
		}

		if len(c.Message) > alarm.MaxMessageBytes {
			return alarm.Errorf(alarm.KindInvalidArgument,
				"%s(%d): message exceeds %d bytes", c.Kind, c.AlarmID, alarm.MaxMessageBytes)
		}

		if !utf8.ValidString(c.Message) {
			return alarm.Errorf(alarm.KindInvalidArgument,
				"%s(%d): message is not valid UTF-8", c.Kind, c.AlarmID)
		}
	case KindCancel, KindSuspend, KindReactivate:
		if c.AlarmID <= 0 {
			return alarm.Errorf(alarm.KindInvalidArgument,
				"%s(%d): alarm id must be positive", c.Kind, c.AlarmID)
		}
	case KindView:
	default:
		return alarm.Errorf(alarm.KindInvalidArgument, "unknown command kind %d", int(c.Kind))
	}

	return nil
}

// String renders the command back into its textual form.
func (c Command) String() string {
	switch c.Kind {
	case KindStart, KindChange:
		return fmt.Sprintf("%s(%d): Group(%d) %d %s", c.Kind, c.AlarmID, c.Group, c.Seconds, c.Message)
	case KindCancel, KindSuspend, KindReactivate:
		return fmt.Sprintf("%s(%d)", c.Kind, c.AlarmID)
	default:
		return c.Kind.String()
	}
}
