package security

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// AddSensor registers a new sensor with the store. Sensors start inactive:
// an active sensor is rejected. Adding a registered sensor is a no-op.
func (e *Engine) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	if sensor.Active {
		return fmt.Errorf("%w: %s must be added inactive", domain.ErrInvalidSensor, sensor.Key())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.findSensor(ctx, sensor.Key())

	switch {
	case err == nil:
		logger.DebugKV(ctx, "Sensor already registered", "sensor", sensor.Key())

		return nil
	case !errors.Is(err, ErrSensorNotFound):
		return err
	}

	if err = e.repo.AddSensor(ctx, sensor); err != nil {
		return fmt.Errorf("add sensor %s: %w", sensor.Key(), err)
	}

	logger.InfoKV(ctx, "Sensor added", "sensor", sensor.Key())

	return nil
}

// RemoveSensor drops a sensor from the store. The alarm is not re-evaluated.
func (e *Engine) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.repo.RemoveSensor(ctx, sensor); err != nil {
		return fmt.Errorf("remove sensor %s: %w", sensor.Key(), err)
	}

	logger.InfoKV(ctx, "Sensor removed", "sensor", sensor.Key())

	return nil
}

// Sensor looks up a sensor by identity.
func (e *Engine) Sensor(ctx context.Context, key domain.SensorKey) (*domain.Sensor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.findSensor(ctx, key)
}

func (e *Engine) findSensor(ctx context.Context, key domain.SensorKey) (*domain.Sensor, error) {
	sensors, err := e.repo.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("get sensors: %w", err)
	}

	for _, sensor := range sensors {
		if sensor.Key() == key {
			return sensor, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, key)
}

// Sensors returns the current sensor set.
func (e *Engine) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sensors, err := e.repo.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("get sensors: %w", err)
	}

	return sensors, nil
}

// AlarmStatus returns the persisted alarm status.
func (e *Engine) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status, err := e.repo.AlarmStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("get alarm status: %w", err)
	}

	return status, nil
}

// ArmingStatus returns the persisted arming status.
func (e *Engine) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status, err := e.repo.ArmingStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("get arming status: %w", err)
	}

	return status, nil
}

// CatDisplayed returns the last classifier verdict.
func (e *Engine) CatDisplayed(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	displayed, err := e.repo.CatDisplayed(ctx)
	if err != nil {
		return false, fmt.Errorf("get cat displayed: %w", err)
	}

	return displayed, nil
}

// State returns a snapshot of the store.
func (e *Engine) State(ctx context.Context) (*domain.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.repo.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return state, nil
}
