package alarm

// EventKind enumerates notifications published to the group display registry.
type EventKind int

const (
	// EventGroupSeen is published when a group gets its first pending alarm.
	EventGroupSeen EventKind = iota + 1
	// EventDelivered is published after the dispatcher fires an alarm.
	EventDelivered
	// EventGroupDrained is published when the last alarm of a group leaves the store.
	EventGroupDrained
)

// String returns the event kind name for logs.
func (k EventKind) String() string {
	switch k {
	case EventGroupSeen:
		return "group_seen"
	case EventDelivered:
		return "delivered"
	case EventGroupDrained:
		return "group_drained"
	default:
		return "unknown"
	}
}

// Event is a notification about group membership or a delivery.
type Event struct {
	// Kind selects which of the fields below are meaningful.
	Kind EventKind
	// AlarmID is set for EventDelivered.
	AlarmID int
	// Group is set for every kind.
	Group int
	// Seconds and Message describe the delivered alarm.
	Seconds int
	Message string
}
