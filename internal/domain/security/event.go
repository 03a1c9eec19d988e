package security

import "time"

// EventKind tells which listener callback produced an Event.
type EventKind uint8

const (
	// EventAlarmStatus is an alarm status change.
	EventAlarmStatus EventKind = iota + 1
	// EventCatDetected is a camera classification verdict.
	EventCatDetected
)

// String returns the wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventAlarmStatus:
		return "alarm_status"
	case EventCatDetected:
		return "cat_detected"
	default:
		return "unknown"
	}
}

// Event is a listener notification captured as a value, so it can be queued,
// published or streamed.
type Event struct {
	// Timestamp is when the engine emitted the notification.
	Timestamp time.Time
	// Kind selects which of the fields below is meaningful.
	Kind EventKind
	// AlarmStatus is set for EventAlarmStatus.
	AlarmStatus AlarmStatus
	// CatPresent is set for EventCatDetected.
	CatPresent bool
}

// NewAlarmStatusEvent captures an alarm status change.
func NewAlarmStatusEvent(status AlarmStatus) Event {
	return Event{
		Timestamp:   time.Now(),
		Kind:        EventAlarmStatus,
		AlarmStatus: status,
	}
}

// NewCatDetectedEvent captures a cat detection verdict.
func NewCatDetectedEvent(present bool) Event {
	return Event{
		Timestamp:  time.Now(),
		Kind:       EventCatDetected,
		CatPresent: present,
	}
}
