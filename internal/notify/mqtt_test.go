package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

var errBrokerDown = errors.New("broker down")

// fakeToken is an already completed token.
type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)

	return done
}

// fakeClient records published messages; unused mqtt.Client methods panic.
type fakeClient struct {
	mqtt.Client

	err          error
	published    [][]byte
	topics       []string
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	c.topics = append(c.topics, topic)

	if b, ok := payload.([]byte); ok {
		c.published = append(c.published, b)
	}

	return fakeToken{err: c.err}
}

func (c *fakeClient) IsConnected() bool { return !c.disconnected }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTTNotifier_Publishes(t *testing.T) {
	t.Parallel()

	client := new(fakeClient)
	n := NewMQTTNotifier(client, "", time.Second)

	event := Event{
		Time:        time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		Mode:        "Away",
		Sensors:     []string{"entry#1"},
		Description: "[1]",
	}

	require.NoError(t, n.Notify(context.Background(), event))
	require.Equal(t, []string{DefaultTopic}, client.topics)

	var got Event
	require.NoError(t, json.Unmarshal(client.published[0], &got))
	require.Equal(t, event.Sensors, got.Sensors)
	require.Equal(t, "Away", got.Mode)
	require.True(t, event.Time.Equal(got.Time))

	n.Close()
	require.True(t, client.disconnected)
}

func TestMQTTNotifier_BreakerOpens(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errBrokerDown}
	n := NewMQTTNotifier(client, "home/alarm", 0)

	for i := 0; i < breakerFailures; i++ {
		require.ErrorIs(t, n.Notify(context.Background(), Event{}), errBrokerDown)
	}

	err := n.Notify(context.Background(), Event{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Len(t, client.topics, breakerFailures)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var n Notifier = Nop{}

	require.NoError(t, n.Notify(context.Background(), Event{}))
	n.Close()
}
