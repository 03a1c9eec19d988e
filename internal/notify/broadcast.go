package notify

import (
	"context"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// DefaultSubscriberBuffer is the channel capacity given to each subscriber.
const DefaultSubscriberBuffer = 16

// Broadcaster fans notifications out to subscribers as domain events.
// A subscriber that does not keep up loses events instead of blocking the engine.
type Broadcaster struct {
	// subscribers maps each channel to itself so it can be removed.
	subscribers map[chan domain.Event]struct{}
	// buffer is the capacity of new subscriber channels.
	buffer int
	// mu protects subscribers.
	mu sync.RWMutex
}

// NewBroadcaster returns a broadcaster whose subscriber channels hold buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	return &Broadcaster{
		subscribers: make(map[chan domain.Event]struct{}),
		buffer:      buffer,
	}
}

// Subscribe registers a subscriber and returns its channel together with a
// function that unregisters it and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, b.buffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers)
}

// AlarmStatusChanged publishes an alarm status event.
func (b *Broadcaster) AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	b.publish(ctx, domain.NewAlarmStatusEvent(status))
}

// CatDetected publishes a cat detection event.
func (b *Broadcaster) CatDetected(ctx context.Context, present bool) {
	b.publish(ctx, domain.NewCatDetectedEvent(present))
}

func (b *Broadcaster) publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logger.WarnKV(ctx, "Dropping event for slow subscriber", "kind", event.Kind.String())
		}
	}
}
