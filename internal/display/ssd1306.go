// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"io"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/envmon/internal/env"
)

const (
	oledWidth  = 128
	oledHeight = 64
	lineHeight = 20
)

// OLED draws readings on a 128x64 SSD1306.
type OLED struct {
	dev    *ssd1306.Dev
	closer io.Closer
}

// OpenOLEDSPI opens the panel on an SPI port with a data/command pin.
// rstPin may be empty when the reset line is tied high.
func OpenOLEDSPI(spiDev, dcPin, rstPin string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrHardwareFault, err)
	}

	dc := gpioreg.ByName(dcPin)
	if dc == nil {
		return nil, fmt.Errorf("%w: OLED DC pin %q not found", ErrHardwareFault, dcPin)
	}
	if rstPin != "" {
		rst := gpioreg.ByName(rstPin)
		if rst == nil {
			return nil, fmt.Errorf("%w: OLED RST pin %q not found", ErrHardwareFault, rstPin)
		}
		if err := pulseReset(rst); err != nil {
			return nil, fmt.Errorf("%w: OLED reset: %w", ErrHardwareFault, err)
		}
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("%w: OLED SPI open %q: %w", ErrHardwareFault, spiDev, err)
	}

	dev, err := ssd1306.NewSPI(port, dc, &ssd1306.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: OLED init: %w", ErrHardwareFault, err)
	}
	return &OLED{dev: dev, closer: port}, nil
}

// OpenOLEDI2C opens the panel on an I2C bus at the default address.
func OpenOLEDI2C(busName string) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %w", ErrHardwareFault, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: OLED I2C open %q: %w", ErrHardwareFault, busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("%w: OLED init: %w", ErrHardwareFault, err)
	}
	return &OLED{dev: dev, closer: bus}, nil
}

func pulseReset(rst gpio.PinOut) error {
	if err := rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return rst.Out(gpio.High)
}

// Render clears the panel and draws the three reading lines.
func (o *OLED) Render(r env.Reading) error {
	img := frame(Lines(r))
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}

// Close blanks the panel and releases the bus.
func (o *OLED) Close() error {
	haltErr := o.dev.Halt()
	if err := o.closer.Close(); err != nil {
		return err
	}
	return haltErr
}

// frame draws lines top to bottom on a blank 1-bit image.
func frame(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 14+i*lineHeight)
		drawer.DrawString(line)
	}
	return img
}
