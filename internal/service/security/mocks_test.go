package security

import (
	"context"

	"github.com/stretchr/testify/mock"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// mockRepository is a testify mock of Repository. Getters are usually pinned
// to a fixed value so a test can observe every write the engine attempts.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) AddSensor(ctx context.Context, sensor *domain.Sensor) error {
	return m.Called(ctx, sensor).Error(0)
}

func (m *mockRepository) RemoveSensor(ctx context.Context, sensor *domain.Sensor) error {
	return m.Called(ctx, sensor).Error(0)
}

func (m *mockRepository) UpdateSensor(ctx context.Context, sensor *domain.Sensor) error {
	return m.Called(ctx, sensor).Error(0)
}

func (m *mockRepository) Sensors(ctx context.Context) ([]*domain.Sensor, error) {
	args := m.Called(ctx)

	sensors, _ := args.Get(0).([]*domain.Sensor)

	return sensors, args.Error(1)
}

func (m *mockRepository) AlarmStatus(ctx context.Context) (domain.AlarmStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(domain.AlarmStatus), args.Error(1) //nolint:forcetypeassert // Test double.
}

func (m *mockRepository) SetAlarmStatus(ctx context.Context, status domain.AlarmStatus) error {
	return m.Called(ctx, status).Error(0)
}

func (m *mockRepository) ArmingStatus(ctx context.Context) (domain.ArmingStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(domain.ArmingStatus), args.Error(1) //nolint:forcetypeassert // Test double.
}

func (m *mockRepository) SetArmingStatus(ctx context.Context, status domain.ArmingStatus) error {
	return m.Called(ctx, status).Error(0)
}

func (m *mockRepository) CatDisplayed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)

	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) SetCatDisplayed(ctx context.Context, displayed bool) error {
	return m.Called(ctx, displayed).Error(0)
}

func (m *mockRepository) ChangeSensorStatus(ctx context.Context, status bool) error {
	return m.Called(ctx, status).Error(0)
}

func (m *mockRepository) State(ctx context.Context) (*domain.State, error) {
	args := m.Called(ctx)

	state, _ := args.Get(0).(*domain.State)

	return state, args.Error(1)
}

// countCalls returns how many times method was called with exactly the given trailing argument.
func (m *mockRepository) countCalls(method string, arg any) int {
	count := 0

	for _, call := range m.Calls {
		if call.Method == method && len(call.Arguments) > 1 && call.Arguments[1] == arg {
			count++
		}
	}

	return count
}

// mockClassifier is a testify mock of ImageClassifier.
type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) ContainsCat(ctx context.Context, image []byte, threshold float32) (bool, error) {
	args := m.Called(ctx, image, threshold)

	return args.Bool(0), args.Error(1)
}

// recordingListener records every notification it receives.
type recordingListener struct {
	statuses []domain.AlarmStatus
	cats     []bool
}

func (l *recordingListener) AlarmStatusChanged(_ context.Context, status domain.AlarmStatus) {
	l.statuses = append(l.statuses, status)
}

func (l *recordingListener) CatDetected(_ context.Context, present bool) {
	l.cats = append(l.cats, present)
}

// pinnedStore describes the values the mock store answers with.
type pinnedStore struct {
	sensors      []*domain.Sensor
	arming       domain.ArmingStatus
	alarm        domain.AlarmStatus
	catDisplayed bool
}

// newMockRepository returns a lenient mock answering with the pinned values
// and accepting every write.
func newMockRepository(p pinnedStore) *mockRepository {
	m := new(mockRepository)

	m.On("Sensors", mock.Anything).Return(p.sensors, nil).Maybe()
	m.On("ArmingStatus", mock.Anything).Return(p.arming, nil).Maybe()
	m.On("AlarmStatus", mock.Anything).Return(p.alarm, nil).Maybe()
	m.On("CatDisplayed", mock.Anything).Return(p.catDisplayed, nil).Maybe()
	m.On("UpdateSensor", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("AddSensor", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("RemoveSensor", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SetAlarmStatus", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SetArmingStatus", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SetCatDisplayed", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("ChangeSensorStatus", mock.Anything, mock.Anything).Return(nil).Maybe()

	return m
}

// dummySensors returns three sensors of distinct types with the given flag.
func dummySensors(active bool) []*domain.Sensor {
	return []*domain.Sensor{
		{Name: "front door", Type: domain.Door, Active: active},
		{Name: "kitchen window", Type: domain.Window, Active: active},
		{Name: "hall", Type: domain.Motion, Active: active},
	}
}
