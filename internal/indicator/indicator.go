// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package indicator drives the green/red status LEDs.
package indicator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrHardwareFault marks LED pins that cannot be resolved or driven.
var ErrHardwareFault = errors.New("indicator hardware fault")

// Indicator is a two-state output. SetAlert(true) asserts the alert
// output and deasserts the ok output; SetAlert(false) does the inverse.
type Indicator interface {
	SetAlert(alert bool) error
}

// LEDs drives a green and a red LED on two GPIO outputs.
type LEDs struct {
	mu    sync.Mutex
	green gpio.PinOut
	red   gpio.PinOut
}

// NewLEDs wraps two already-resolved pins. Both start off.
func NewLEDs(green, red gpio.PinOut) (*LEDs, error) {
	if err := green.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: green LED %s: %w", ErrHardwareFault, green.Name(), err)
	}
	if err := red.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: red LED %s: %w", ErrHardwareFault, red.Name(), err)
	}
	return &LEDs{green: green, red: red}, nil
}

// OpenGPIO initializes periph and resolves the pins by name, e.g. "GPIO27".
func OpenGPIO(greenPin, redPin string) (*LEDs, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrHardwareFault, err)
	}

	green := gpioreg.ByName(greenPin)
	if green == nil {
		return nil, fmt.Errorf("%w: green LED pin %q not found", ErrHardwareFault, greenPin)
	}
	red := gpioreg.ByName(redPin)
	if red == nil {
		return nil, fmt.Errorf("%w: red LED pin %q not found", ErrHardwareFault, redPin)
	}
	return NewLEDs(green, red)
}

// SetAlert switches which LED is lit. The lit LED is always turned off
// before the other is turned on, so the two are never on together.
func (l *LEDs) SetAlert(alert bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	on, off := l.green, l.red
	if alert {
		on, off = l.red, l.green
	}
	if err := off.Out(gpio.Low); err != nil {
		return fmt.Errorf("led %s off: %w", off.Name(), err)
	}
	if err := on.Out(gpio.High); err != nil {
		return fmt.Errorf("led %s on: %w", on.Name(), err)
	}
	return nil
}

// Log is an Indicator for hosts without LEDs; it logs state changes.
type Log struct {
	log   *slog.Logger
	mu    sync.Mutex
	alert *bool
}

// NewLog returns a logging Indicator.
func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

// SetAlert logs only when the state differs from the previous call.
func (l *Log) SetAlert(alert bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.alert != nil && *l.alert == alert {
		return nil
	}
	l.alert = &alert
	if alert {
		l.log.Warn("indicator: red on, green off")
	} else {
		l.log.Info("indicator: green on, red off")
	}
	return nil
}
