// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/envmon/internal/env"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// BME280 reads temperature, humidity and pressure from a Bosch BME280 on I2C.
type BME280 struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// OpenBME280 initializes the periph host, opens the I2C bus (empty name
// picks the first one) and probes the sensor at addr.
func OpenBME280(busName string, addr uint16) (*BME280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrHardwareFault, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: BME280 I2C open %q: %w", ErrHardwareFault, busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("%w: BME280 init at 0x%02X: %w", ErrHardwareFault, addr, err)
	}

	return &BME280{bus: bus, dev: dev}, nil
}

// Read polls the sensor once.
func (s *BME280) Read() (env.Reading, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Reading{}, fmt.Errorf("%w: BME280 sense: %w", ErrHardwareFault, err)
	}
	return fromEnv(e), nil
}

// Close halts the sensor and releases the bus.
func (s *BME280) Close() error {
	haltErr := s.dev.Halt()
	if err := s.bus.Close(); err != nil {
		return err
	}
	return haltErr
}

func fromEnv(e physic.Env) env.Reading {
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Reading{
		Temperature: e.Temperature.Celsius(),
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
		Pressure:    pressurePa / 100.0, // 1 hPa = 100 Pa
	}
}
