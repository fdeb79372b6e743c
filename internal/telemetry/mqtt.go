// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry mirrors monitor state to MQTT and accepts threshold
// updates from it.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 8
)

// Topics names the MQTT topics used by the monitor.
type Topics struct {
	State         string
	Thresholds    string
	SetThresholds string
}

// StatePayload is what goes out on the state topic. BootID changes on
// every restart because timestamps count from process start.
type StatePayload struct {
	BootID string        `json:"boot_id"`
	State  monitor.State `json:"state"`
}

// publisher is the part of mqtt.Client used to send messages.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each cycle's state and applies threshold updates
// received on Topics.SetThresholds.
type MQTT struct {
	log    *slog.Logger
	client mqtt.Client
	pub    publisher
	topics Topics
	store  *thresholds.Store
	bootID string

	queue     chan outgoing
	done      chan struct{}
	closeOnce sync.Once
}

type outgoing struct {
	topic   string
	payload []byte
}

// Connect dials broker and subscribes to the threshold update topic.
func Connect(log *slog.Logger, broker, clientID string, topics Topics, store *thresholds.Store) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}

	m := newMQTT(log, client, topics, store)
	m.client = client
	log.Info("connected to MQTT broker", slog.String("broker", broker))

	token := client.Subscribe(topics.SetThresholds, 1, m.onSetThresholds)
	token.Wait()
	if token.Error() != nil {
		m.Close()
		return nil, fmt.Errorf("mqtt subscribe %s: %w", topics.SetThresholds, token.Error())
	}
	m.log.Info("subscribed", slog.String("topic", topics.SetThresholds))

	m.publishThresholds()
	return m, nil
}

// newMQTT starts the sender goroutine; Close stops it.
func newMQTT(log *slog.Logger, pub publisher, topics Topics, store *thresholds.Store) *MQTT {
	m := &MQTT{
		log:    log.With(slog.String("component", "mqtt")),
		pub:    pub,
		topics: topics,
		store:  store,
		bootID: uuid.NewString(),
		queue:  make(chan outgoing, queueSize),
		done:   make(chan struct{}),
	}
	go m.run()
	return m
}

// BootID identifies this process run in every state payload.
func (m *MQTT) BootID() string {
	return m.bootID
}

// Publish queues s to be sent retained on the state topic and returns
// without waiting for the broker. Implements monitor.Publisher.
func (m *MQTT) Publish(s monitor.State) {
	payload, err := json.Marshal(StatePayload{BootID: m.bootID, State: s})
	if err != nil {
		m.log.Error("state marshal error", logger.Err(err))
		return
	}
	m.enqueue(m.topics.State, payload)
}

// Close stops the sender and disconnects from the broker.
func (m *MQTT) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		if m.client != nil {
			m.client.Disconnect(250)
		}
	})
}

func (m *MQTT) onSetThresholds(_ mqtt.Client, msg mqtt.Message) {
	m.applyUpdate(msg.Payload())
}

// applyUpdate decodes a JSON partial update and applies it. Malformed
// payloads are logged and dropped.
func (m *MQTT) applyUpdate(payload []byte) []thresholds.Field {
	partial, err := thresholds.FromJSON(payload)
	if err != nil {
		m.log.Warn("ignoring threshold update", logger.Err(err))
		return nil
	}

	applied := m.store.ApplyUpdate(partial)
	if len(applied) == 0 {
		return nil
	}

	set := m.store.Current()
	m.log.Info("thresholds updated over MQTT", slog.Any("fields", applied), slog.Any("thresholds", set))
	if inv := set.Inverted(); len(inv) > 0 {
		m.log.Warn("threshold band inverted, metric will always alert", slog.Any("metrics", inv))
	}
	m.publishThresholds()
	return applied
}

func (m *MQTT) publishThresholds() {
	payload, err := json.Marshal(m.store.Current())
	if err != nil {
		m.log.Error("thresholds marshal error", logger.Err(err))
		return
	}
	m.enqueue(m.topics.Thresholds, payload)
}

// enqueue hands a message to the sender without waiting. When the queue
// is full (broker slow or gone) the message is dropped.
func (m *MQTT) enqueue(topic string, payload []byte) {
	select {
	case m.queue <- outgoing{topic: topic, payload: payload}:
	default:
		m.log.Debug("MQTT queue full, dropping message", slog.String("topic", topic))
	}
}

func (m *MQTT) run() {
	for {
		select {
		case <-m.done:
			return
		case msg := <-m.queue:
			m.send(msg.topic, msg.payload)
		}
	}
}

func (m *MQTT) send(topic string, payload []byte) {
	token := m.pub.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.log.Warn("MQTT publish timed out", slog.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		m.log.Warn("MQTT publish error", slog.String("topic", topic), logger.Err(err))
	}
}
