package security

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// CatConfidenceThreshold is the confidence, in percent, the classifier must reach.
const CatConfidenceThreshold float32 = 50.0

var (
	// ErrSensorNotFound is returned when a sensor lookup has no match in the store.
	ErrSensorNotFound = errors.New("sensor not found")
	// errRepositoryRequired is returned when the engine is built without a store.
	errRepositoryRequired = errors.New("repository must be provided")
	// errClassifierRequired is returned when the engine is built without a classifier.
	errClassifierRequired = errors.New("image classifier must be provided")
)

// Engine is the security decision engine.
//
// Public methods are serialized by a single mutex: each one performs several
// read-modify-write steps against the store that must not interleave.
// Unexported methods assume the lock is held.
type Engine struct {
	// repo persists sensors, statuses and flags.
	repo Repository
	// classifier answers whether a frame shows a cat.
	classifier ImageClassifier
	// listeners are notified in registration order.
	listeners []StatusListener
	// mu serializes public operations.
	mu sync.Mutex
}

// NewEngine wires the engine to its collaborators.
func NewEngine(repo Repository, classifier ImageClassifier) (*Engine, error) {
	if repo == nil {
		return nil, errRepositoryRequired
	}

	if classifier == nil {
		return nil, errClassifierRequired
	}

	return &Engine{
		repo:       repo,
		classifier: classifier,
	}, nil
}

// AddStatusListener registers a listener. Registering the same listener twice is a no-op.
func (e *Engine) AddStatusListener(listener StatusListener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if listener == nil || slices.Contains(e.listeners, listener) {
		return
	}

	e.listeners = append(e.listeners, listener)
}

// RemoveStatusListener unregisters a listener.
func (e *Engine) RemoveStatusListener(listener StatusListener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if i := slices.Index(e.listeners, listener); i >= 0 {
		e.listeners = slices.Delete(e.listeners, i, i+1)
	}
}

// SetArmingStatus applies an arming command and persists it.
func (e *Engine) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidArmingStatus, status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.setArmingStatus(ctx, status)
}

// SetAlarmStatus runs the requested status through the alarm arbiter.
func (e *Engine) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAlarmStatus, status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.setAlarmStatus(ctx, status)
}

// ChangeSensorActivationStatus sets the sensor's active flag, persists it and
// escalates or de-escalates the alarm. The sensor is updated in place once
// the store accepted the change.
func (e *Engine) ChangeSensorActivationStatus(ctx context.Context, sensor *domain.Sensor, active bool) error {
	if err := sensor.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.changeSensorActivationStatus(ctx, sensor, active)
}

// ChangeSensorActivation looks up the registered sensor by identity and
// changes its activation in one step. It returns ErrSensorNotFound when no
// such sensor is registered.
func (e *Engine) ChangeSensorActivation(ctx context.Context, key domain.SensorKey, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sensor, err := e.findSensor(ctx, key)
	if err != nil {
		return err
	}

	return e.changeSensorActivationStatus(ctx, sensor, active)
}

// ProcessImage classifies a camera frame and reacts to the verdict.
func (e *Engine) ProcessImage(ctx context.Context, image []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	present, err := e.classifier.ContainsCat(ctx, image, CatConfidenceThreshold)
	if err != nil {
		return fmt.Errorf("classify image: %w", err)
	}

	return e.catDetected(ctx, present)
}

// ResetSensors deactivates every sensor through the activation pipeline.
func (e *Engine) ResetSensors(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.resetSensors(ctx)
}

// VerifySensorsInactive reports whether no sensor in the store is active.
func (e *Engine) VerifySensorsInactive(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.verifySensorsInactive(ctx)
}

// setArmingStatus persists the new arming status after its side effects.
func (e *Engine) setArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	switch status {
	case domain.ArmedAway:
		if err := e.resetSensors(ctx); err != nil {
			return err
		}
	case domain.Disarmed:
		if err := e.setAlarmStatus(ctx, domain.NoAlarm); err != nil {
			return err
		}
	case domain.ArmedHome:
		catDisplayed, err := e.repo.CatDisplayed(ctx)
		if err != nil {
			return fmt.Errorf("get cat displayed: %w", err)
		}

		if catDisplayed {
			if err = e.setAlarmStatus(ctx, domain.Alarm); err != nil {
				return err
			}
		}

		if err = e.resetSensors(ctx); err != nil {
			return err
		}
	}

	if err := e.repo.SetArmingStatus(ctx, status); err != nil {
		return fmt.Errorf("set arming status: %w", err)
	}

	logger.InfoKV(ctx, "Arming status changed", "arming_status", status)

	return nil
}

// setAlarmStatus is the alarm arbiter. A pending request is suppressed when
// nothing is active and no cat is shown, and escalated when a cat is shown.
// Only a status persisted as requested reaches the listeners.
func (e *Engine) setAlarmStatus(ctx context.Context, requested domain.AlarmStatus) error {
	inactive, err := e.verifySensorsInactive(ctx)
	if err != nil {
		return err
	}

	catDisplayed, err := e.repo.CatDisplayed(ctx)
	if err != nil {
		return fmt.Errorf("get cat displayed: %w", err)
	}

	switch {
	case inactive && requested == domain.PendingAlarm && !catDisplayed:
		return e.persistAlarmStatus(ctx, domain.NoAlarm, requested)
	case requested == domain.PendingAlarm && catDisplayed:
		return e.persistAlarmStatus(ctx, domain.Alarm, requested)
	}

	if err = e.persistAlarmStatus(ctx, requested, requested); err != nil {
		return err
	}

	for _, listener := range e.listeners {
		listener.AlarmStatusChanged(ctx, requested)
	}

	return nil
}

func (e *Engine) persistAlarmStatus(ctx context.Context, status, requested domain.AlarmStatus) error {
	if err := e.repo.SetAlarmStatus(ctx, status); err != nil {
		return fmt.Errorf("set alarm status: %w", err)
	}

	logger.InfoKV(ctx, "Alarm status changed", "alarm_status", status, "requested", requested)

	return nil
}

func (e *Engine) changeSensorActivationStatus(ctx context.Context, sensor *domain.Sensor, active bool) error {
	wasActive := sensor.Active

	updated := sensor.Clone()
	updated.Active = active

	// The store is written on every call, including false -> false.
	if err := e.repo.UpdateSensor(ctx, updated); err != nil {
		return fmt.Errorf("update sensor %s: %w", sensor.Key(), err)
	}

	sensor.Active = active

	logger.DebugKV(ctx, "Sensor activation changed", "sensor", sensor.Key(), "was_active", wasActive, "active", active)

	switch {
	case active:
		// Re-affirming an active sensor escalates again.
		return e.handleSensorActivated(ctx)
	case wasActive:
		return e.handleSensorDeactivated(ctx)
	default:
		return nil
	}
}

func (e *Engine) handleSensorActivated(ctx context.Context) error {
	arming, err := e.repo.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("get arming status: %w", err)
	}

	// A disarmed system ignores sensor trips.
	if arming == domain.Disarmed {
		return nil
	}

	alarm, err := e.repo.AlarmStatus(ctx)
	if err != nil {
		return fmt.Errorf("get alarm status: %w", err)
	}

	switch alarm {
	case domain.NoAlarm:
		err = e.setAlarmStatus(ctx, domain.PendingAlarm)
	case domain.PendingAlarm:
		err = e.setAlarmStatus(ctx, domain.Alarm)
	case domain.Alarm:
	}

	if err != nil {
		return err
	}

	// Here false is written once inactivity is verified.
	return e.signalSensorStatus(ctx, false)
}

func (e *Engine) handleSensorDeactivated(ctx context.Context) error {
	alarm, err := e.repo.AlarmStatus(ctx)
	if err != nil {
		return fmt.Errorf("get alarm status: %w", err)
	}

	if alarm == domain.PendingAlarm {
		inactive, err := e.verifySensorsInactive(ctx)
		if err != nil {
			return err
		}

		if inactive {
			if err = e.setAlarmStatus(ctx, domain.NoAlarm); err != nil {
				return err
			}
		}
	}

	// Here true is written once inactivity is verified.
	return e.signalSensorStatus(ctx, true)
}

// signalSensorStatus forwards flag to the store's sensor status, but only
// when no sensor is active. The two handlers pass opposite values for the
// same verified condition; the store treats it as an opaque signal.
func (e *Engine) signalSensorStatus(ctx context.Context, flag bool) error {
	inactive, err := e.verifySensorsInactive(ctx)
	if err != nil || !inactive {
		return err
	}

	if err = e.repo.ChangeSensorStatus(ctx, flag); err != nil {
		return fmt.Errorf("change sensor status: %w", err)
	}

	return nil
}

func (e *Engine) catDetected(ctx context.Context, present bool) error {
	if err := e.repo.SetCatDisplayed(ctx, present); err != nil {
		return fmt.Errorf("set cat displayed: %w", err)
	}

	logger.InfoKV(ctx, "Cat detection processed", "cat_present", present)

	arming, err := e.repo.ArmingStatus(ctx)
	if err != nil {
		return fmt.Errorf("get arming status: %w", err)
	}

	if present && arming == domain.ArmedHome {
		err = e.setAlarmStatus(ctx, domain.Alarm)
	} else if !present {
		var inactive bool

		inactive, err = e.verifySensorsInactive(ctx)
		if err == nil && inactive {
			err = e.setAlarmStatus(ctx, domain.NoAlarm)
		}
	}

	if err != nil {
		return err
	}

	for _, listener := range e.listeners {
		listener.CatDetected(ctx, present)
	}

	return nil
}

func (e *Engine) resetSensors(ctx context.Context) error {
	sensors, err := e.repo.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("get sensors: %w", err)
	}

	for _, sensor := range sensors {
		if err = e.changeSensorActivationStatus(ctx, sensor, false); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) verifySensorsInactive(ctx context.Context) (bool, error) {
	sensors, err := e.repo.Sensors(ctx)
	if err != nil {
		return false, fmt.Errorf("get sensors: %w", err)
	}

	return !slices.ContainsFunc(sensors, func(s *domain.Sensor) bool {
		return s.Active
	}), nil
}
