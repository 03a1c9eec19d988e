package security

import (
	"errors"
	"fmt"
)

// SensorType is the kind of device a sensor is attached to.
type SensorType uint8

const (
	// Door sensor.
	Door SensorType = iota
	// Window sensor.
	Window
	// Motion sensor.
	Motion
)

var (
	// ErrInvalidSensorType is returned for values outside of the SensorType set.
	ErrInvalidSensorType = errors.New("invalid sensor type")
	// ErrInvalidSensor is returned when a sensor is missing or has no name.
	ErrInvalidSensor = errors.New("invalid sensor")
)

//nolint:gochecknoglobals // Lookup table for enum names.
var sensorTypeNames = [...]string{
	Door:   "DOOR",
	Window: "WINDOW",
	Motion: "MOTION",
}

// Valid reports whether t is one of the declared sensor types.
func (t SensorType) Valid() bool {
	return int(t) < len(sensorTypeNames)
}

// String returns the wire name of the sensor type.
func (t SensorType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SensorType(%d)", uint8(t))
	}

	return sensorTypeNames[t]
}

// ParseSensorType converts a wire name (case-insensitive) into a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	name := normalize(s)
	for i, candidate := range sensorTypeNames {
		if candidate == name {
			return SensorType(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidSensorType, s)
}

// SensorKey is the identity of a sensor: two sensors with the same key are the same entity.
type SensorKey struct {
	// Name is the human-readable sensor name.
	Name string
	// Type is the device kind.
	Type SensorType
}

// String renders the key as "NAME/TYPE".
func (k SensorKey) String() string {
	return k.Name + "/" + k.Type.String()
}

// Sensor is a named, typed binary device reporting active or inactive.
type Sensor struct {
	// Name is the human-readable sensor name, part of the identity.
	Name string
	// Type is the device kind, part of the identity.
	Type SensorType
	// Active reports whether the sensor is currently tripped.
	Active bool
}

// NewSensor returns an inactive sensor after validating its identity.
func NewSensor(name string, sensorType SensorType) (*Sensor, error) {
	s := &Sensor{
		Name: name,
		Type: sensorType,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Key returns the identity of the sensor.
func (s *Sensor) Key() SensorKey {
	return SensorKey{
		Name: s.Name,
		Type: s.Type,
	}
}

// Validate rejects sensors without a name or with an unknown type.
func (s *Sensor) Validate() error {
	if s == nil || s.Name == "" {
		return ErrInvalidSensor
	}

	if !s.Type.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSensorType, s.Type)
	}

	return nil
}

// Clone returns a copy of the sensor.
func (s *Sensor) Clone() *Sensor {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
