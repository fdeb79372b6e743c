// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders the latest reading on local text outputs.
package display

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/relabs-tech/envmon/internal/env"
)

// ErrHardwareFault marks a display that cannot be initialized.
var ErrHardwareFault = errors.New("display hardware fault")

// Display is a best-effort text sink for the latest reading.
type Display interface {
	Render(r env.Reading) error
}

// Lines formats r as the three lines shown on every display.
func Lines(r env.Reading) []string {
	return []string{
		fmt.Sprintf("T:%.2f C", r.Temperature),
		fmt.Sprintf("H:%.2f %%", r.Humidity),
		fmt.Sprintf("P:%.2fhPa", r.Pressure),
	}
}

// Multi renders to every display in turn and joins their errors.
type Multi []Display

func (m Multi) Render(r env.Reading) error {
	var errs []error
	for _, d := range m {
		if err := d.Render(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes each reading to the logger at debug level.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Render(r env.Reading) error {
	l.log.Debug("display",
		slog.Float64("temp_c", r.Temperature),
		slog.Float64("humidity_rh", r.Humidity),
		slog.Float64("pressure_hpa", r.Pressure),
	)
	return nil
}
