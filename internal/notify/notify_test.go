package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

var errTestBroker = errors.New("test broker error")

// fakePublisher records publications.
type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)

	return nil
}

func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

// TestLogListener verifies that notifications are logged with their values.
func TestLogListener(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext()
	l := NewLogListener()

	l.AlarmStatusChanged(ctx, domain.PendingAlarm)
	l.CatDetected(ctx, true)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "PENDING_ALARM", entries[0].ContextMap()["alarm_status"])
	require.Equal(t, true, entries[1].ContextMap()["cat_present"])
}

// TestBroadcaster_Fanout verifies every subscriber receives every event in order.
func TestBroadcaster_Fanout(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(4)

	first, cancelFirst := b.Subscribe()
	defer cancelFirst()

	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	require.Equal(t, 2, b.Subscribers())

	b.AlarmStatusChanged(context.Background(), domain.Alarm)
	b.CatDetected(context.Background(), false)

	for _, ch := range []<-chan domain.Event{first, second} {
		event := <-ch
		require.Equal(t, domain.EventAlarmStatus, event.Kind)
		require.Equal(t, domain.Alarm, event.AlarmStatus)

		event = <-ch
		require.Equal(t, domain.EventCatDetected, event.Kind)
		require.False(t, event.CatPresent)
	}
}

// TestBroadcaster_SlowSubscriber verifies a full channel drops events instead of blocking.
func TestBroadcaster_SlowSubscriber(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext()
	b := NewBroadcaster(1)

	ch, cancel := b.Subscribe()
	defer cancel()

	b.AlarmStatusChanged(ctx, domain.PendingAlarm)
	b.AlarmStatusChanged(ctx, domain.Alarm)

	event := <-ch
	require.Equal(t, domain.PendingAlarm, event.AlarmStatus)
	require.Len(t, ch, 0)
	require.Equal(t, 1, logs.FilterMessage("Dropping event for slow subscriber").Len())
}

// TestBroadcaster_Unsubscribe verifies cancel closes the channel and is idempotent.
func TestBroadcaster_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(0)
	ch, cancel := b.Subscribe()

	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, b.Subscribers())

	b.CatDetected(context.Background(), true)
}

// TestMQTTListener_Publish verifies topics and JSON payloads.
func TestMQTTListener_Publish(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	l := NewMQTTListener(pub, "home/catpoint")

	l.AlarmStatusChanged(context.Background(), domain.Alarm)
	l.CatDetected(context.Background(), true)

	require.Equal(t, []string{"home/catpoint/alarm_status", "home/catpoint/cat_detected"}, pub.topics)

	msg := &structpb.Struct{}
	require.NoError(t, protojson.Unmarshal(pub.payloads[0], msg))

	event, err := pb.EventFromProto(msg)
	require.NoError(t, err)
	require.Equal(t, domain.EventAlarmStatus, event.Kind)
	require.Equal(t, domain.Alarm, event.AlarmStatus)

	msg = &structpb.Struct{}
	require.NoError(t, protojson.Unmarshal(pub.payloads[1], msg))

	event, err = pb.EventFromProto(msg)
	require.NoError(t, err)
	require.Equal(t, domain.EventCatDetected, event.Kind)
	require.True(t, event.CatPresent)
}

// TestMQTTListener_Topic verifies topics without a prefix.
func TestMQTTListener_Topic(t *testing.T) {
	t.Parallel()

	l := NewMQTTListener(&fakePublisher{}, "")
	require.Equal(t, "alarm_status", l.Topic(domain.EventAlarmStatus))
}

// TestMQTTListener_PublishError verifies broker failures are logged, not raised.
func TestMQTTListener_PublishError(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext()
	l := NewMQTTListener(&fakePublisher{err: errTestBroker}, "catpoint")

	l.CatDetected(ctx, false)

	failures := logs.FilterMessage("Failed to publish event").All()
	require.Len(t, failures, 1)
	require.Equal(t, "catpoint/cat_detected", failures[0].ContextMap()["topic"])
}
