package security

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Repository is the state store the engine reads from and writes to.
// It is the sole owner of every persisted field; the engine caches nothing.
type Repository interface {
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	// UpdateSensor upserts the sensor by identity.
	UpdateSensor(ctx context.Context, sensor *domain.Sensor) error
	Sensors(ctx context.Context) ([]*domain.Sensor, error)
	AlarmStatus(ctx context.Context) (domain.AlarmStatus, error)
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	ArmingStatus(ctx context.Context) (domain.ArmingStatus, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	CatDisplayed(ctx context.Context) (bool, error)
	SetCatDisplayed(ctx context.Context, displayed bool) error
	// ChangeSensorStatus stores the store-level sensor status flag.
	ChangeSensorStatus(ctx context.Context, status bool) error
	// State returns a snapshot of every persisted field.
	State(ctx context.Context) (*domain.State, error)
}

// ImageClassifier decides whether a camera frame shows a cat.
type ImageClassifier interface {
	ContainsCat(ctx context.Context, image []byte, confidenceThreshold float32) (bool, error)
}

// StatusListener receives alarm status changes and cat detection events.
// Listeners are called synchronously while the engine holds its lock and
// must not call back into the engine.
type StatusListener interface {
	AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus)
	CatDetected(ctx context.Context, present bool)
}
