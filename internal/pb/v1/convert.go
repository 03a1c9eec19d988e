package pb

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Field names shared by every struct-encoded message.
const (
	FieldName         = "name"
	FieldType         = "type"
	FieldActive       = "active"
	FieldSensors      = "sensors"
	FieldArmingStatus = "arming_status"
	FieldAlarmStatus  = "alarm_status"
	FieldCatDisplayed = "cat_displayed"
	FieldSensorStatus = "sensor_status"
	FieldUpdatedAt    = "updated_at"
	FieldKind         = "kind"
	FieldCatPresent   = "cat_present"
	FieldTimestamp    = "timestamp"
)

var (
	// ErrMissingField is returned when a required field is absent or has the wrong kind.
	ErrMissingField = errors.New("missing field")
	// ErrUnknownEventKind is returned when decoding an event of an unknown kind.
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// StateToProto encodes a state snapshot.
func StateToProto(state *domain.State) *structpb.Struct {
	if state == nil {
		state = domain.NewState()
	}

	sensors := make([]*structpb.Value, 0, len(state.Sensors))
	for _, sensor := range state.Sensors {
		sensors = append(sensors, structpb.NewStructValue(SensorToProto(sensor)))
	}

	fields := map[string]*structpb.Value{
		FieldSensors:      structpb.NewListValue(&structpb.ListValue{Values: sensors}),
		FieldArmingStatus: structpb.NewStringValue(state.ArmingStatus.String()),
		FieldAlarmStatus:  structpb.NewStringValue(state.AlarmStatus.String()),
		FieldCatDisplayed: structpb.NewBoolValue(state.CatDisplayed),
		FieldSensorStatus: structpb.NewBoolValue(state.SensorStatus),
	}

	if !state.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = structpb.NewStringValue(state.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// StateFromProto decodes a state snapshot, rejecting unknown enum values.
func StateFromProto(msg *structpb.Struct) (*domain.State, error) {
	arming, err := stringField(msg, FieldArmingStatus)
	if err != nil {
		return nil, err
	}

	alarm, err := stringField(msg, FieldAlarmStatus)
	if err != nil {
		return nil, err
	}

	state := domain.NewState()

	if state.ArmingStatus, err = domain.ParseArmingStatus(arming); err != nil {
		return nil, err
	}

	if state.AlarmStatus, err = domain.ParseAlarmStatus(alarm); err != nil {
		return nil, err
	}

	state.CatDisplayed = boolField(msg, FieldCatDisplayed)
	state.SensorStatus = boolField(msg, FieldSensorStatus)

	if raw, ok := msg.GetFields()[FieldUpdatedAt]; ok {
		if state.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw.GetStringValue()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", FieldUpdatedAt, err)
		}
	}

	for _, value := range msg.GetFields()[FieldSensors].GetListValue().GetValues() {
		sensor, err := SensorFromProto(value.GetStructValue())
		if err != nil {
			return nil, err
		}

		state.Sensors = append(state.Sensors, sensor)
	}

	return state, nil
}

// SensorToProto encodes a sensor.
func SensorToProto(sensor *domain.Sensor) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldName:   structpb.NewStringValue(sensor.Name),
			FieldType:   structpb.NewStringValue(sensor.Type.String()),
			FieldActive: structpb.NewBoolValue(sensor.Active),
		},
	}
}

// SensorFromProto decodes and validates a sensor. A missing active flag means inactive.
func SensorFromProto(msg *structpb.Struct) (*domain.Sensor, error) {
	name, err := stringField(msg, FieldName)
	if err != nil {
		return nil, err
	}

	rawType, err := stringField(msg, FieldType)
	if err != nil {
		return nil, err
	}

	sensorType, err := domain.ParseSensorType(rawType)
	if err != nil {
		return nil, err
	}

	sensor, err := domain.NewSensor(name, sensorType)
	if err != nil {
		return nil, err
	}

	sensor.Active = boolField(msg, FieldActive)

	return sensor, nil
}

// EventToProto encodes a listener notification.
func EventToProto(event domain.Event) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldKind:      structpb.NewStringValue(event.Kind.String()),
		FieldTimestamp: structpb.NewStringValue(event.Timestamp.UTC().Format(time.RFC3339Nano)),
	}

	switch event.Kind {
	case domain.EventAlarmStatus:
		fields[FieldAlarmStatus] = structpb.NewStringValue(event.AlarmStatus.String())
	case domain.EventCatDetected:
		fields[FieldCatPresent] = structpb.NewBoolValue(event.CatPresent)
	}

	return &structpb.Struct{Fields: fields}
}

// EventFromProto decodes a listener notification.
func EventFromProto(msg *structpb.Struct) (domain.Event, error) {
	var event domain.Event

	kind, err := stringField(msg, FieldKind)
	if err != nil {
		return event, err
	}

	if raw, ok := msg.GetFields()[FieldTimestamp]; ok {
		if event.Timestamp, err = time.Parse(time.RFC3339Nano, raw.GetStringValue()); err != nil {
			return event, fmt.Errorf("parse %s: %w", FieldTimestamp, err)
		}
	}

	switch kind {
	case domain.EventAlarmStatus.String():
		event.Kind = domain.EventAlarmStatus

		status, err := stringField(msg, FieldAlarmStatus)
		if err != nil {
			return event, err
		}

		if event.AlarmStatus, err = domain.ParseAlarmStatus(status); err != nil {
			return event, err
		}
	case domain.EventCatDetected.String():
		event.Kind = domain.EventCatDetected
		event.CatPresent = boolField(msg, FieldCatPresent)
	default:
		return event, fmt.Errorf("%w: %q", ErrUnknownEventKind, kind)
	}

	return event, nil
}

func stringField(msg *structpb.Struct, name string) (string, error) {
	value, ok := msg.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}

	s, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMissingField, name)
	}

	return s.StringValue, nil
}

func boolField(msg *structpb.Struct, name string) bool {
	return msg.GetFields()[name].GetBoolValue()
}
