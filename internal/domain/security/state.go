package security

import (
	"slices"
	"time"
)

// State is a snapshot of everything the state store persists.
type State struct {
	// UpdatedAt is when any field of the state was last written.
	UpdatedAt time.Time
	// Sensors holds the sensor set in insertion order.
	Sensors []*Sensor
	// ArmingStatus is the last arming command.
	ArmingStatus ArmingStatus
	// AlarmStatus is the current derived alarm level.
	AlarmStatus AlarmStatus
	// CatDisplayed is the last classifier verdict.
	CatDisplayed bool
	// SensorStatus is the store-level convenience flag written after
	// the engine verifies that no sensor is active.
	SensorStatus bool
}

// NewState returns the state of a freshly initialised store.
func NewState() *State {
	return &State{
		ArmingStatus: Disarmed,
		AlarmStatus:  NoAlarm,
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Sensors = CloneSensors(s.Sensors)

	return &cloned
}

// Validate checks that every enum and sensor in the state is well-formed.
func (s *State) Validate() error {
	if !s.ArmingStatus.Valid() {
		return ErrInvalidArmingStatus
	}

	if !s.AlarmStatus.Valid() {
		return ErrInvalidAlarmStatus
	}

	for _, sensor := range s.Sensors {
		if err := sensor.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// IndexOf returns the position of the sensor with the given key, or -1.
func (s *State) IndexOf(key SensorKey) int {
	for i, sensor := range s.Sensors {
		if sensor.Key() == key {
			return i
		}
	}

	return -1
}

// UpsertSensor replaces the sensor with the same identity or appends it.
func (s *State) UpsertSensor(sensor *Sensor) {
	if i := s.IndexOf(sensor.Key()); i >= 0 {
		s.Sensors[i] = sensor.Clone()

		return
	}

	s.Sensors = append(s.Sensors, sensor.Clone())
}

// RemoveSensor drops the sensor with the same identity, if present.
func (s *State) RemoveSensor(key SensorKey) {
	if i := s.IndexOf(key); i >= 0 {
		s.Sensors = slices.Delete(s.Sensors, i, i+1)
	}
}

// CloneSensors deep-copies a sensor slice.
func CloneSensors(sensors []*Sensor) []*Sensor {
	if sensors == nil {
		return nil
	}

	cloned := make([]*Sensor, 0, len(sensors))
	for _, sensor := range sensors {
		cloned = append(cloned, sensor.Clone())
	}

	return cloned
}
