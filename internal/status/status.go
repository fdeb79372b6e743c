// Package status derives the OK/ALERT verdict from a reading and the thresholds.
package status

import (
	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

// Status is the binary verdict of one cycle.
type Status string

const (
	OK    Status = "OK"
	Alert Status = "ALERT"
)

// IsAlert reports whether s drives the red output.
func (s Status) IsAlert() bool {
	return s == Alert
}

// Verdict is a Status together with the metrics that caused it.
type Verdict struct {
	Status   Status              `json:"status"`
	Breaches []thresholds.Metric `json:"breaches,omitempty"`
}

// Evaluate returns OK iff every metric lies inside its inclusive band.
func Evaluate(r env.Reading, t thresholds.Set) Status {
	return Explain(r, t).Status
}

// Explain evaluates r against t and lists every metric out of band.
// It keeps no state between calls.
func Explain(r env.Reading, t thresholds.Set) Verdict {
	var breaches []thresholds.Metric
	for _, m := range thresholds.Metrics {
		low, high := t.Band(m)
		v := value(r, m)
		if !(v >= low && v <= high) {
			breaches = append(breaches, m)
		}
	}
	if len(breaches) > 0 {
		return Verdict{Status: Alert, Breaches: breaches}
	}
	return Verdict{Status: OK}
}

func value(r env.Reading, m thresholds.Metric) float64 {
	switch m {
	case thresholds.Temperature:
		return r.Temperature
	case thresholds.Humidity:
		return r.Humidity
	default:
		return r.Pressure
	}
}
