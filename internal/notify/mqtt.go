package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sony/gobreaker"

	"github.com/oshokin/safehome/internal/logger"
)

const (
	// DefaultTopic is the topic alarm events are published to.
	DefaultTopic = "safehome/alarm"

	// disconnectQuiesce is how long Close waits for in-flight messages, in milliseconds.
	disconnectQuiesce = 250

	// connectMaxElapsed bounds the connection retries.
	connectMaxElapsed = 10 * time.Second

	// connectMaxRetries bounds the number of connection attempts.
	connectMaxRetries = 4

	// breakerFailures is the number of consecutive failures that opens the breaker.
	breakerFailures = 3

	// breakerOpenFor is how long the breaker stays open before a trial publish.
	breakerOpenFor = 30 * time.Second
)

var errPublishTimeout = errors.New("publish timed out")

// MQTTOptions configures the MQTT publisher.
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// Topic is the topic to publish to; DefaultTopic when empty.
	Topic string
	// ClientID identifies the server to the broker.
	ClientID string
	// Timeout bounds a single publish.
	Timeout time.Duration
}

// MQTTNotifier publishes alarm events as JSON messages.
type MQTTNotifier struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// DialMQTT connects to the broker, retrying with exponential backoff.
func DialMQTT(ctx context.Context, opts MQTTOptions) (*MQTTNotifier, error) {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true)

	var client mqtt.Client

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	err := backoff.Retry(func() error {
		client = mqtt.NewClient(clientOpts)

		token := client.Connect()
		if token.Wait() && token.Error() != nil {
			logger.WarnKV(ctx, "MQTT connect failed", "broker", opts.Broker, "error", token.Error())

			return token.Error()
		}

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectMaxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", opts.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", opts.Broker)

	return NewMQTTNotifier(client, opts.Topic, opts.Timeout), nil
}

// NewMQTTNotifier wraps an already connected client.
func NewMQTTNotifier(client mqtt.Client, topic string, timeout time.Duration) *MQTTNotifier {
	if topic == "" {
		topic = DefaultTopic
	}

	return &MQTTNotifier{
		client:  client,
		topic:   topic,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mqtt-notifier",
			Timeout: breakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= breakerFailures
			},
		}),
	}
}

// Notify publishes event with QoS 1.
func (n *MQTTNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alarm event: %w", err)
	}

	_, err = n.breaker.Execute(func() (any, error) {
		token := n.client.Publish(n.topic, 1, false, payload)

		if n.timeout > 0 && !token.WaitTimeout(n.timeout) {
			return nil, errPublishTimeout
		}

		if n.timeout <= 0 {
			token.Wait()
		}

		return nil, token.Error()
	})
	if err != nil {
		return fmt.Errorf("publish alarm event to %s: %w", n.topic, err)
	}

	logger.DebugKV(ctx, "Alarm event published", "topic", n.topic, "sensors", event.Description)

	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.client.IsConnected() {
		n.client.Disconnect(disconnectQuiesce)
	}
}

var _ Notifier = (*MQTTNotifier)(nil)
