// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/envmon/internal/config"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/telemetry"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RunConsoleMQTT subscribes to the state topic and prints one line per
// cycle to out until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, log *slog.Logger, out io.Writer) error {
	if cfg.MQTTBroker == "" {
		return errors.New("console: MQTT_BROKER is not set")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWatch)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("console: connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	defer client.Disconnect(250)
	log.Info("console connected to MQTT broker", slog.String("broker", cfg.MQTTBroker))

	token := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p telemetry.StatePayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warn("console: state unmarshal error", logger.Err(err))
			return
		}
		fmt.Fprintln(out, formatState(p))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Info("console subscribed", slog.String("topic", cfg.TopicState))

	<-ctx.Done()
	log.Info("console shutting down")
	return nil
}

func formatState(p telemetry.StatePayload) string {
	s := p.State
	boot := p.BootID
	if len(boot) > 8 {
		boot = boot[:8]
	}
	prefix := dimStyle.Render(fmt.Sprintf("[%s t=%5ds]", boot, s.Timestamp))

	if !s.HaveReading {
		return prefix + " " + warnStyle.Render("no reading: "+s.LastError)
	}

	badge := okStyle.Render(string(s.Status))
	if s.Status.IsAlert() {
		badge = alertStyle.Render(string(s.Status))
	}

	line := fmt.Sprintf("%s %-5s T=%6.2f°C  H=%6.2f%%  P=%7.2fhPa",
		prefix, badge, s.Reading.Temperature, s.Reading.Humidity, s.Reading.Pressure)

	if len(s.Breaches) > 0 {
		names := make([]string, len(s.Breaches))
		for i, m := range s.Breaches {
			names[i] = string(m)
		}
		line += "  " + alertStyle.Render("out of band: "+strings.Join(names, ","))
	}
	if s.ConsecutiveFailures > 0 {
		line += "  " + warnStyle.Render(fmt.Sprintf("(%d read failures: %s)", s.ConsecutiveFailures, s.LastError))
	}
	return line
}
