package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Storage loads and saves a whole state document.
type Storage interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

// ErrNotFound is returned by a Storage when no document has been saved yet.
var ErrNotFound = errors.New("state not found")

// DocumentRepository implements the engine's state store on top of a Storage.
// Every write loads the document, applies the change and saves it back.
type DocumentRepository struct {
	// storage persists the state document.
	storage Storage
	// now stamps UpdatedAt on every write.
	now func() time.Time
	// mu serializes read-modify-write cycles.
	mu sync.Mutex
}

// NewDocumentRepository wraps the provided storage.
func NewDocumentRepository(storage Storage) *DocumentRepository {
	return &DocumentRepository{
		storage: storage,
		now:     time.Now,
	}
}

// AddSensor inserts the sensor, replacing one with the same identity.
func (r *DocumentRepository) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	return r.update(ctx, func(state *domain.State) {
		state.UpsertSensor(sensor)
	})
}

// RemoveSensor drops the sensor with the same identity.
func (r *DocumentRepository) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	return r.update(ctx, func(state *domain.State) {
		state.RemoveSensor(sensor.Key())
	})
}

// UpdateSensor upserts the sensor by identity.
func (r *DocumentRepository) UpdateSensor(ctx context.Context, sensor *domain.Sensor) error {
	return r.update(ctx, func(state *domain.State) {
		state.UpsertSensor(sensor)
	})
}

// Sensors returns a copy of the sensor set in insertion order.
func (r *DocumentRepository) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	state, err := r.State(ctx)
	if err != nil {
		return nil, err
	}

	return state.Sensors, nil
}

// AlarmStatus returns the persisted alarm status.
func (r *DocumentRepository) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	state, err := r.State(ctx)
	if err != nil {
		return 0, err
	}

	return state.AlarmStatus, nil
}

// SetAlarmStatus persists the alarm status.
func (r *DocumentRepository) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return r.update(ctx, func(state *domain.State) {
		state.AlarmStatus = status
	})
}

// ArmingStatus returns the persisted arming status.
func (r *DocumentRepository) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	state, err := r.State(ctx)
	if err != nil {
		return 0, err
	}

	return state.ArmingStatus, nil
}

// SetArmingStatus persists the arming status.
func (r *DocumentRepository) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return r.update(ctx, func(state *domain.State) {
		state.ArmingStatus = status
	})
}

// CatDisplayed returns the last classifier verdict.
func (r *DocumentRepository) CatDisplayed(ctx context.Context) (bool, error) {
	state, err := r.State(ctx)
	if err != nil {
		return false, err
	}

	return state.CatDisplayed, nil
}

// SetCatDisplayed persists the last classifier verdict.
func (r *DocumentRepository) SetCatDisplayed(ctx context.Context, displayed bool) error {
	return r.update(ctx, func(state *domain.State) {
		state.CatDisplayed = displayed
	})
}

// ChangeSensorStatus persists the store-level sensor status flag.
func (r *DocumentRepository) ChangeSensorStatus(ctx context.Context, status bool) error {
	return r.update(ctx, func(state *domain.State) {
		state.SensorStatus = status
	})
}

// State returns a copy of the whole document, or the defaults if none was saved.
func (r *DocumentRepository) State(ctx context.Context) (*domain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

func (r *DocumentRepository) load(ctx context.Context) (*domain.State, error) {
	state, err := r.storage.Load(ctx)

	switch {
	case errors.Is(err, ErrNotFound):
		return domain.NewState(), nil
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	case state == nil:
		return domain.NewState(), nil
	}

	return state, nil
}

func (r *DocumentRepository) update(ctx context.Context, apply func(state *domain.State)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.load(ctx)
	if err != nil {
		return err
	}

	apply(state)
	state.UpdatedAt = r.now()

	if err = r.storage.Save(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}
