// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package thresholds holds the operator-editable acceptable band for each metric.
package thresholds

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// Set is the six inclusive band bounds, in °C, %RH and hPa.
type Set struct {
	TempLow   float64 `json:"tLow"`
	TempHigh  float64 `json:"tHigh"`
	HumidLow  float64 `json:"hLow"`
	HumidHigh float64 `json:"hHigh"`
	PressLow  float64 `json:"pLow"`
	PressHigh float64 `json:"pHigh"`
}

// Defaults are the bounds used until an operator changes them.
var Defaults = Set{
	TempLow:   20,
	TempHigh:  25,
	HumidLow:  20,
	HumidHigh: 40,
	PressLow:  950,
	PressHigh: 1050,
}

// Metric names one of the three measured quantities.
type Metric string

const (
	Temperature Metric = "temperature"
	Humidity    Metric = "humidity"
	Pressure    Metric = "pressure"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{Temperature, Humidity, Pressure}

// Band returns the [low, high] bounds for m.
func (s Set) Band(m Metric) (low, high float64) {
	switch m {
	case Temperature:
		return s.TempLow, s.TempHigh
	case Humidity:
		return s.HumidLow, s.HumidHigh
	case Pressure:
		return s.PressLow, s.PressHigh
	}
	return math.NaN(), math.NaN()
}

// Inverted lists the metrics whose low bound exceeds the high bound.
// Such a band can never be satisfied; it is reported, not corrected.
func (s Set) Inverted() []Metric {
	var out []Metric
	for _, m := range Metrics {
		if low, high := s.Band(m); low > high {
			out = append(out, m)
		}
	}
	return out
}

// Field is the wire name of one bound, as used by the config form.
type Field string

const (
	FieldTempLow   Field = "tLow"
	FieldTempHigh  Field = "tHigh"
	FieldHumidLow  Field = "hLow"
	FieldHumidHigh Field = "hHigh"
	FieldPressLow  Field = "pLow"
	FieldPressHigh Field = "pHigh"
)

// Fields lists every wire field in form order.
var Fields = []Field{FieldTempLow, FieldTempHigh, FieldHumidLow, FieldHumidHigh, FieldPressLow, FieldPressHigh}

func (s *Set) ptr(f Field) *float64 {
	switch f {
	case FieldTempLow:
		return &s.TempLow
	case FieldTempHigh:
		return &s.TempHigh
	case FieldHumidLow:
		return &s.HumidLow
	case FieldHumidHigh:
		return &s.HumidHigh
	case FieldPressLow:
		return &s.PressLow
	case FieldPressHigh:
		return &s.PressHigh
	}
	return nil
}

// Partial is a threshold update in which any field may be absent.
// Values are raw text; they are parsed when applied.
type Partial map[Field]string

// Store owns the live Set. It is the only writer of the thresholds.
type Store struct {
	mu  sync.RWMutex
	set Set
}

// NewStore returns a Store starting at initial.
func NewStore(initial Set) *Store {
	return &Store{set: initial}
}

// Current returns a copy of the live bounds.
func (s *Store) Current() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

// ApplyUpdate overwrites each bound present in p with its parsed value and
// returns the fields it applied. Unknown keys and values that do not
// parse as a finite number are ignored; the bound keeps its previous value.
// No ordering between low and high is enforced.
func (s *Store) ApplyUpdate(p Partial) []Field {
	parsed := make(map[Field]float64, len(p))
	for _, f := range Fields {
		raw, ok := p[f]
		if !ok {
			continue
		}
		v, ok := parseBound(raw)
		if !ok {
			continue
		}
		parsed[f] = v
	}
	if len(parsed) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := make([]Field, 0, len(parsed))
	for _, f := range Fields {
		v, ok := parsed[f]
		if !ok {
			continue
		}
		*s.set.ptr(f) = v
		applied = append(applied, f)
	}
	return applied
}

func parseBound(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
