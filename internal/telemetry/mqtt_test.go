package telemetry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/status"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// stuckToken never completes, like a publish to an unreachable broker.
type stuckToken struct{ done chan struct{} }

func (t stuckToken) Wait() bool {
	<-t.done
	return true
}
func (t stuckToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t stuckToken) Done() <-chan struct{} { return t.done }
func (t stuckToken) Error() error          { return nil }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	sent  []message
	err   error
	stuck chan struct{}
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message{topic: topic, retained: retained, payload: payload.([]byte)})
	if f.stuck != nil {
		return stuckToken{done: f.stuck}
	}
	return doneToken{err: f.err}
}

func (f *fakePublisher) messages() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.sent...)
}

// waitSent blocks until n messages went out and returns them.
func waitSent(t *testing.T, pub *fakePublisher, n int) []message {
	t.Helper()
	require.Eventually(t, func() bool { return len(pub.messages()) >= n }, time.Second, time.Millisecond)
	return pub.messages()
}

var topics = Topics{State: "envmon/state", Thresholds: "envmon/thresholds", SetThresholds: "envmon/thresholds/set"}

func TestPublishState(t *testing.T) {
	pub := &fakePublisher{}
	m := newMQTT(logger.Discard(), pub, topics, thresholds.NewStore(thresholds.Defaults))
	defer m.Close()
	_, err := uuid.Parse(m.BootID())
	require.NoError(t, err)

	m.Publish(monitor.State{
		HaveReading: true,
		Reading:     env.Reading{Temperature: 26, Humidity: 35, Pressure: 1000},
		Status:      status.Alert,
		Breaches:    []thresholds.Metric{thresholds.Temperature},
	})

	sent := waitSent(t, pub, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "envmon/state", sent[0].topic)
	assert.True(t, sent[0].retained)

	var got StatePayload
	require.NoError(t, json.Unmarshal(sent[0].payload, &got))
	assert.Equal(t, m.BootID(), got.BootID)
	assert.Equal(t, status.Alert, got.State.Status)
	assert.Equal(t, 26.0, got.State.Reading.Temperature)
}

func TestApplyUpdateFromPayload(t *testing.T) {
	pub := &fakePublisher{}
	store := thresholds.NewStore(thresholds.Defaults)
	m := newMQTT(logger.Discard(), pub, topics, store)
	defer m.Close()

	applied := m.applyUpdate([]byte(`{"tHigh": 27, "hLow": "abc"}`))

	assert.Equal(t, []thresholds.Field{thresholds.FieldTempHigh}, applied)
	assert.Equal(t, 27.0, store.Current().TempHigh)
	assert.Equal(t, 20.0, store.Current().HumidLow)

	sent := waitSent(t, pub, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "envmon/thresholds", sent[0].topic)
	var set thresholds.Set
	require.NoError(t, json.Unmarshal(sent[0].payload, &set))
	assert.Equal(t, store.Current(), set)
}

func TestApplyUpdateIgnoresGarbage(t *testing.T) {
	pub := &fakePublisher{}
	store := thresholds.NewStore(thresholds.Defaults)
	m := newMQTT(logger.Discard(), pub, topics, store)
	defer m.Close()

	assert.Empty(t, m.applyUpdate([]byte(`not json`)))
	assert.Empty(t, m.applyUpdate([]byte(`{"tLow": "x"}`)))
	assert.Equal(t, thresholds.Defaults, store.Current())
	assert.Empty(t, pub.messages())
}

func TestPublishErrorIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	m := newMQTT(logger.Discard(), pub, topics, thresholds.NewStore(thresholds.Defaults))
	defer m.Close()

	assert.NotPanics(t, func() { m.Publish(monitor.State{}) })
	assert.Len(t, waitSent(t, pub, 1), 1)
}

func TestPublishDoesNotWaitForBroker(t *testing.T) {
	pub := &fakePublisher{stuck: make(chan struct{})}
	defer close(pub.stuck)
	m := newMQTT(logger.Discard(), pub, topics, thresholds.NewStore(thresholds.Defaults))
	defer m.Close()

	start := time.Now()
	for i := 0; i < 3*queueSize; i++ {
		m.Publish(monitor.State{Cycles: uint64(i)})
	}
	elapsed := time.Since(start)

	assert.Less(t, elapsed, publishTimeout/4)
	// the sender is stuck on the first message; the rest queue or drop
	assert.Len(t, waitSent(t, pub, 1), 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	m := newMQTT(logger.Discard(), &fakePublisher{}, topics, thresholds.NewStore(thresholds.Defaults))
	m.Close()
	assert.NotPanics(t, m.Close)
}
