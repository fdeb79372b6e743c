package env

import "fmt"

// Reading is one sample of temperature, humidity and pressure taken together.
type Reading struct {
	Temperature float64 `json:"temp_c"`       // °C
	Humidity    float64 `json:"humidity_rh"`  // %RH
	Pressure    float64 `json:"pressure_hpa"` // hPa
}

func (r Reading) String() string {
	return fmt.Sprintf("T=%.2f°C H=%.2f%% P=%.2fhPa", r.Temperature, r.Humidity, r.Pressure)
}

// LogEntry is a Reading stamped with whole seconds since process start.
type LogEntry struct {
	Reading   Reading `json:"reading"`
	Timestamp uint64  `json:"t_s"`
}
