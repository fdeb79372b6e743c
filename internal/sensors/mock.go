// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/envmon/internal/env"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock source that drifts slowly around the
// default bands, leaving them now and then so both LED states show up.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now}
}

func (m *mockSource) Read() (env.Reading, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	return env.Reading{
		Temperature: 22.5 + 3.5*math.Sin(elapsed/30),
		Humidity:    30 + 12*math.Cos(elapsed/45),
		Pressure:    1000 + 20*math.Sin(elapsed/60),
	}, nil
}
