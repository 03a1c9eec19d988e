package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	pb "github.com/oshokin/catpoint/internal/pb/v1"
)

// disconnectQuiesce is how long, in milliseconds, Close waits for pending work.
const disconnectQuiesce = 250

// errPublishTimeout is returned when the broker does not acknowledge in time.
var errPublishTimeout = errors.New("mqtt publish timed out")

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// MQTTClient publishes through a connected paho client.
type MQTTClient struct {
	// client is the connected paho client.
	client mqtt.Client
	// qos is used for every publication.
	qos byte
	// timeout bounds the wait for the broker acknowledgement.
	timeout time.Duration
}

// DialMQTT connects to the broker described by cfg.
func DialMQTT(cfg *config.MQTT, timeout time.Duration) (*MQTTClient, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}

	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	return &MQTTClient{
		client:  client,
		qos:     cfg.QoS,
		timeout: timeout,
	}, nil
}

// Publish sends the payload and waits for the broker acknowledgement or ctx.
func (c *MQTTClient) Publish(ctx context.Context, topic string, payload []byte) error {
	token := c.client.Publish(topic, c.qos, false, payload)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: %s", errPublishTimeout, topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (c *MQTTClient) Close() {
	c.client.Disconnect(disconnectQuiesce)
}

// MQTTListener publishes notifications as JSON events under a topic prefix:
// <prefix>/alarm_status and <prefix>/cat_detected.
type MQTTListener struct {
	// publisher delivers the payloads.
	publisher Publisher
	// prefix is prepended to every topic.
	prefix string
}

// NewMQTTListener returns a listener publishing through publisher.
func NewMQTTListener(publisher Publisher, prefix string) *MQTTListener {
	return &MQTTListener{
		publisher: publisher,
		prefix:    prefix,
	}
}

// AlarmStatusChanged publishes the alarm status event.
func (l *MQTTListener) AlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) {
	l.publish(ctx, domain.NewAlarmStatusEvent(status))
}

// CatDetected publishes the cat detection event.
func (l *MQTTListener) CatDetected(ctx context.Context, present bool) {
	l.publish(ctx, domain.NewCatDetectedEvent(present))
}

// Topic returns the topic events of the given kind are published to.
func (l *MQTTListener) Topic(kind domain.EventKind) string {
	if l.prefix == "" {
		return kind.String()
	}

	return l.prefix + "/" + kind.String()
}

// publish never fails the engine: delivery errors are logged.
func (l *MQTTListener) publish(ctx context.Context, event domain.Event) {
	topic := l.Topic(event.Kind)

	payload, err := protojson.Marshal(pb.EventToProto(event))
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode event", "topic", topic, "error", err)

		return
	}

	if err := l.publisher.Publish(ctx, topic, payload); err != nil {
		logger.ErrorKV(ctx, "Failed to publish event", "topic", topic, "error", err)

		return
	}

	logger.DebugKV(ctx, "Published event", "topic", topic)
}
