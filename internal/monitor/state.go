package monitor

import (
	"slices"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/status"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

// State is what the last cycle observed. It is a value; holders may keep it.
type State struct {
	HaveReading bool                `json:"have_reading"`
	Reading     env.Reading         `json:"reading"`
	Timestamp   uint64              `json:"t_s"`
	Status      status.Status       `json:"status,omitempty"`
	Breaches    []thresholds.Metric `json:"breaches,omitempty"`
	Thresholds  thresholds.Set      `json:"thresholds"`
	Inverted    []thresholds.Metric `json:"inverted,omitempty"`

	Cycles              uint64 `json:"cycles"`
	Uptime              uint64 `json:"uptime_s"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastError           string `json:"last_error,omitempty"`
}

// Healthy reports whether the most recent cycle produced a reading.
func (s State) Healthy() bool {
	return s.HaveReading && s.ConsecutiveFailures == 0
}

func (s State) clone() State {
	s.Breaches = slices.Clone(s.Breaches)
	s.Inverted = slices.Clone(s.Inverted)
	return s
}
