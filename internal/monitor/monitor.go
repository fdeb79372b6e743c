// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package monitor runs the sample → log → display → evaluate → indicate cycle.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/relabs-tech/envmon/internal/display"
	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/history"
	"github.com/relabs-tech/envmon/internal/indicator"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/sensors"
	"github.com/relabs-tech/envmon/internal/status"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

// DefaultInterval is the pause between cycles.
const DefaultInterval = 2 * time.Second

// Publisher receives the state produced by every cycle.
type Publisher interface {
	Publish(s State)
}

// Deps are the collaborators of a Loop. Source, History, Thresholds,
// Display and Indicator are required.
type Deps struct {
	Log        *slog.Logger
	Source     sensors.Source
	History    *history.Log
	Thresholds *thresholds.Store
	Display    display.Display
	Indicator  indicator.Indicator
	Interval   time.Duration

	// Elapsed reports time since process start; defaults to a monotonic clock.
	Elapsed func() time.Duration
}

// Loop owns every sensor read, display write, indicator write and history
// append. Other goroutines only read its State and the history snapshot.
type Loop struct {
	log        *slog.Logger
	source     sensors.Source
	history    *history.Log
	thresholds *thresholds.Store
	display    display.Display
	indicator  indicator.Indicator
	interval   time.Duration
	elapsed    func() time.Duration

	pubMu      sync.RWMutex
	publishers []Publisher

	mu     sync.RWMutex
	latest State
}

// New validates deps and returns a Loop.
func New(d Deps) (*Loop, error) {
	switch {
	case d.Source == nil:
		return nil, fmt.Errorf("monitor: sensor source is required")
	case d.History == nil:
		return nil, fmt.Errorf("monitor: history log is required")
	case d.Thresholds == nil:
		return nil, fmt.Errorf("monitor: threshold store is required")
	case d.Display == nil:
		return nil, fmt.Errorf("monitor: display is required")
	case d.Indicator == nil:
		return nil, fmt.Errorf("monitor: indicator is required")
	}

	l := &Loop{
		log:        d.Log,
		source:     d.Source,
		history:    d.History,
		thresholds: d.Thresholds,
		display:    d.Display,
		indicator:  d.Indicator,
		interval:   d.Interval,
		elapsed:    d.Elapsed,
	}
	if l.log == nil {
		l.log = logger.Discard()
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.elapsed == nil {
		start := time.Now()
		l.elapsed = func() time.Duration { return time.Since(start) }
	}
	l.log = l.log.With(slog.String("component", "monitor"))
	return l, nil
}

// AddPublisher registers p for every subsequent cycle.
func (l *Loop) AddPublisher(p Publisher) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	l.publishers = append(l.publishers, p)
}

// Run cycles immediately and then once per interval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("starting monitor loop", slog.Duration("interval", l.interval))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		// read failures are already logged and counted by Cycle
		_, _ = l.Cycle(ctx)

		select {
		case <-ctx.Done():
			l.log.Info("monitor loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle runs one iteration and returns the resulting state. A failed read
// skips the rest of the cycle: history, display and indicator are left as
// they were and the failure is counted in the state.
func (l *Loop) Cycle(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return l.Latest(), err
	}

	uptime := l.elapsed()
	reading, err := l.source.Read()
	if err != nil {
		st := l.recordFailure(uptime, err)
		l.log.Error("sensor read failed, skipping cycle",
			slog.Int("consecutive_failures", st.ConsecutiveFailures),
			logger.Err(err),
		)
		l.publish(st)
		return st, err
	}

	ts := uint64(uptime / time.Second)
	l.history.Append(reading, ts)

	if err := l.display.Render(reading); err != nil {
		l.log.Warn("display render failed", logger.Err(err))
	}

	set := l.thresholds.Current()
	verdict := status.Explain(reading, set)

	if err := l.indicator.SetAlert(verdict.Status.IsAlert()); err != nil {
		l.log.Error("indicator update failed", logger.Err(err))
	}

	st := l.recordSuccess(reading, ts, uptime, set, verdict)

	attrs := []any{
		slog.Uint64("t_s", ts),
		slog.Float64("temp_c", reading.Temperature),
		slog.Float64("humidity_rh", reading.Humidity),
		slog.Float64("pressure_hpa", reading.Pressure),
		slog.String("status", string(verdict.Status)),
	}
	if verdict.Status.IsAlert() {
		attrs = append(attrs, slog.Any("breaches", verdict.Breaches))
	}
	l.log.Debug("cycle", attrs...)

	l.publish(st)
	return st, nil
}

// Latest returns the state of the most recent cycle.
func (l *Loop) Latest() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.latest.clone()
}

// History exposes the log for read-only reporting.
func (l *Loop) History() *history.Log {
	return l.history
}

// Thresholds exposes the store for reporting and updates.
func (l *Loop) Thresholds() *thresholds.Store {
	return l.thresholds
}

func (l *Loop) recordSuccess(r env.Reading, ts uint64, uptime time.Duration, set thresholds.Set, v status.Verdict) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.latest.Cycles++
	l.latest.HaveReading = true
	l.latest.Reading = r
	l.latest.Timestamp = ts
	l.latest.Uptime = uint64(uptime / time.Second)
	l.latest.Status = v.Status
	l.latest.Breaches = v.Breaches
	l.latest.Thresholds = set
	l.latest.Inverted = set.Inverted()
	l.latest.ConsecutiveFailures = 0
	l.latest.LastError = ""
	return l.latest.clone()
}

func (l *Loop) recordFailure(uptime time.Duration, err error) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.latest.Cycles++
	l.latest.Uptime = uint64(uptime / time.Second)
	l.latest.ConsecutiveFailures++
	l.latest.LastError = err.Error()
	return l.latest.clone()
}

func (l *Loop) publish(st State) {
	l.pubMu.RLock()
	defer l.pubMu.RUnlock()
	for _, p := range l.publishers {
		p.Publish(st)
	}
}
