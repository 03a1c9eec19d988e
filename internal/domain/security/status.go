package security

import (
	"errors"
	"fmt"
	"strings"
)

// ArmingStatus is the manual mode selecting whether sensor trips are monitored.
type ArmingStatus uint8

const (
	// Disarmed ignores sensor trips.
	Disarmed ArmingStatus = iota
	// ArmedHome monitors sensors and escalates on a visible cat.
	ArmedHome
	// ArmedAway monitors sensors.
	ArmedAway
)

// AlarmStatus is the derived severity level of the system.
type AlarmStatus uint8

const (
	// NoAlarm means nothing is happening.
	NoAlarm AlarmStatus = iota
	// PendingAlarm means a sensor tripped while the system was armed.
	PendingAlarm
	// Alarm is the ceiling state.
	Alarm
)

var (
	// ErrInvalidArmingStatus is returned for values outside of the ArmingStatus set.
	ErrInvalidArmingStatus = errors.New("invalid arming status")
	// ErrInvalidAlarmStatus is returned for values outside of the AlarmStatus set.
	ErrInvalidAlarmStatus = errors.New("invalid alarm status")
)

//nolint:gochecknoglobals // Lookup tables for enum names.
var (
	armingStatusNames = [...]string{
		Disarmed:  "DISARMED",
		ArmedHome: "ARMED_HOME",
		ArmedAway: "ARMED_AWAY",
	}
	alarmStatusNames = [...]string{
		NoAlarm:      "NO_ALARM",
		PendingAlarm: "PENDING_ALARM",
		Alarm:        "ALARM",
	}
)

// Valid reports whether s is one of the declared arming statuses.
func (s ArmingStatus) Valid() bool {
	return int(s) < len(armingStatusNames)
}

// String returns the wire name of the status.
func (s ArmingStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ArmingStatus(%d)", uint8(s))
	}

	return armingStatusNames[s]
}

// IsArmed reports whether sensor trips are monitored.
func (s ArmingStatus) IsArmed() bool {
	return s == ArmedHome || s == ArmedAway
}

// ParseArmingStatus converts a wire name (case-insensitive) into an ArmingStatus.
func ParseArmingStatus(s string) (ArmingStatus, error) {
	name := normalize(s)
	for i, candidate := range armingStatusNames {
		if candidate == name {
			return ArmingStatus(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidArmingStatus, s)
}

// Valid reports whether s is one of the declared alarm statuses.
func (s AlarmStatus) Valid() bool {
	return int(s) < len(alarmStatusNames)
}

// String returns the wire name of the status.
func (s AlarmStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("AlarmStatus(%d)", uint8(s))
	}

	return alarmStatusNames[s]
}

// ParseAlarmStatus converts a wire name (case-insensitive) into an AlarmStatus.
func ParseAlarmStatus(s string) (AlarmStatus, error) {
	name := normalize(s)
	for i, candidate := range alarmStatusNames {
		if candidate == name {
			return AlarmStatus(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidAlarmStatus, s)
}

// normalize upper-cases the input and accepts dashes in place of underscores,
// so "armed-home" and "ARMED_HOME" name the same status.
func normalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}
