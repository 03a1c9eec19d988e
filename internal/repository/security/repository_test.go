package security

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// store is the method set shared by every repository implementation.
type store interface {
	AddSensor(ctx context.Context, sensor *domain.Sensor) error
	RemoveSensor(ctx context.Context, sensor *domain.Sensor) error
	UpdateSensor(ctx context.Context, sensor *domain.Sensor) error
	Sensors(ctx context.Context) ([]*domain.Sensor, error)
	AlarmStatus(ctx context.Context) (domain.AlarmStatus, error)
	SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error
	ArmingStatus(ctx context.Context) (domain.ArmingStatus, error)
	SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error
	CatDisplayed(ctx context.Context) (bool, error)
	SetCatDisplayed(ctx context.Context, displayed bool) error
	ChangeSensorStatus(ctx context.Context, status bool) error
	State(ctx context.Context) (*domain.State, error)
}

// stores builds one instance of each implementation for contract tests.
func stores(t *testing.T) map[string]store {
	t.Helper()

	dir := t.TempDir()

	sqliteRepo, err := OpenSQLite(context.Background(), filepath.Join(dir, "catpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqliteRepo.Close()
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return map[string]store{
		"memory": NewDocumentRepository(NewMemoryStorage(nil)),
		"file":   NewDocumentRepository(NewFileStorage(filepath.Join(dir, "state.json"))),
		"redis":  NewDocumentRepository(NewRedisStorage(client, "catpoint:test")),
		"sqlite": sqliteRepo,
	}
}

// TestStores_Defaults verifies a fresh store reports the initial state.
func TestStores_Defaults(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		ctx := context.Background()

		state, err := s.State(ctx)
		require.NoError(t, err, name)
		require.Empty(t, state.Sensors, name)
		require.Equal(t, domain.Disarmed, state.ArmingStatus, name)
		require.Equal(t, domain.NoAlarm, state.AlarmStatus, name)
		require.False(t, state.CatDisplayed, name)
		require.False(t, state.SensorStatus, name)
	}
}

// TestStores_Sensors verifies upsert by identity, insertion order and removal.
func TestStores_Sensors(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		ctx := context.Background()

		door := &domain.Sensor{Name: "front", Type: domain.Door}
		window := &domain.Sensor{Name: "front", Type: domain.Window}
		hall := &domain.Sensor{Name: "hall", Type: domain.Motion}

		require.NoError(t, s.AddSensor(ctx, door), name)
		require.NoError(t, s.AddSensor(ctx, window), name)
		require.NoError(t, s.AddSensor(ctx, hall), name)

		// Update of an existing identity keeps its position.
		require.NoError(t, s.UpdateSensor(ctx, &domain.Sensor{Name: "front", Type: domain.Window, Active: true}), name)

		sensors, err := s.Sensors(ctx)
		require.NoError(t, err, name)
		require.Equal(t, []*domain.Sensor{
			{Name: "front", Type: domain.Door},
			{Name: "front", Type: domain.Window, Active: true},
			{Name: "hall", Type: domain.Motion},
		}, sensors, name)

		require.NoError(t, s.RemoveSensor(ctx, door), name)
		require.NoError(t, s.RemoveSensor(ctx, door), name)

		sensors, err = s.Sensors(ctx)
		require.NoError(t, err, name)
		require.Len(t, sensors, 2, name)
		require.Equal(t, window.Key(), sensors[0].Key(), name)

		// Returned sensors are copies.
		sensors[0].Active = false

		again, err := s.Sensors(ctx)
		require.NoError(t, err, name)
		require.True(t, again[0].Active, name)
	}
}

// TestStores_Statuses verifies every scalar field is persisted.
func TestStores_Statuses(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		ctx := context.Background()

		require.NoError(t, s.SetArmingStatus(ctx, domain.ArmedAway), name)
		require.NoError(t, s.SetAlarmStatus(ctx, domain.PendingAlarm), name)
		require.NoError(t, s.SetCatDisplayed(ctx, true), name)
		require.NoError(t, s.ChangeSensorStatus(ctx, true), name)

		arming, err := s.ArmingStatus(ctx)
		require.NoError(t, err, name)
		require.Equal(t, domain.ArmedAway, arming, name)

		alarm, err := s.AlarmStatus(ctx)
		require.NoError(t, err, name)
		require.Equal(t, domain.PendingAlarm, alarm, name)

		cat, err := s.CatDisplayed(ctx)
		require.NoError(t, err, name)
		require.True(t, cat, name)

		state, err := s.State(ctx)
		require.NoError(t, err, name)
		require.True(t, state.SensorStatus, name)
		require.WithinDuration(t, time.Now(), state.UpdatedAt, time.Minute, name)
	}
}
