// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/relabs-tech/envmon/internal/config"
	"github.com/relabs-tech/envmon/internal/display"
	"github.com/relabs-tech/envmon/internal/history"
	"github.com/relabs-tech/envmon/internal/indicator"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/netadv"
	"github.com/relabs-tech/envmon/internal/sensors"
	"github.com/relabs-tech/envmon/internal/telemetry"
	"github.com/relabs-tech/envmon/internal/thresholds"
	"github.com/relabs-tech/envmon/internal/web"
)

// RunMonitor brings up the hardware, the web endpoint and the optional
// MQTT mirror, then cycles until ctx is cancelled. A sensor, display or
// indicator that fails to initialize is returned as a hardware fault.
func RunMonitor(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("starting envmon monitor",
		slog.String("sensor", cfg.SensorKind),
		slog.String("display", cfg.DisplayKind),
		slog.String("indicator", cfg.IndicatorKind),
		slog.Duration("interval", cfg.SampleInterval),
	)

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", logger.Err(err))
			}
		}
	}()

	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		closers = append(closers, c)
	}

	disp, dispClosers, err := openDisplay(cfg, log)
	closers = append(closers, dispClosers...)
	if err != nil {
		return err
	}

	ind, err := openIndicator(cfg, log)
	if err != nil {
		return err
	}

	store := thresholds.NewStore(initialThresholds(cfg))
	if inv := store.Current().Inverted(); len(inv) > 0 {
		log.Warn("configured threshold band inverted, metric will always alert", slog.Any("metrics", inv))
	}

	loop, err := monitor.New(monitor.Deps{
		Log:        log,
		Source:     src,
		History:    history.New(cfg.HistorySize),
		Thresholds: store,
		Display:    disp,
		Indicator:  ind,
		Interval:   cfg.SampleInterval,
	})
	if err != nil {
		return err
	}

	var adv netadv.Advertiser = netadv.Disabled{Log: log}
	if cfg.APEnabled {
		adv = netadv.NewHotspot(log, cfg.APIface, cfg.APSSID, cfg.APPassword)
	}
	if err := adv.Advertise(ctx); err != nil {
		log.Error("access point advertisement failed", logger.Err(err))
	}

	hub := web.NewHub(log, loop)
	loop.AddPublisher(hub)

	if cfg.MQTTBroker != "" {
		tel, err := telemetry.Connect(log, cfg.MQTTBroker, cfg.MQTTClientID, telemetry.Topics{
			State:         cfg.TopicState,
			Thresholds:    cfg.TopicThresholds,
			SetThresholds: cfg.TopicSetThresholds,
		}, store)
		if err != nil {
			log.Error("MQTT disabled", logger.Err(err))
		} else {
			defer tel.Close()
			loop.AddPublisher(tel)
			log.Info("publishing state over MQTT", slog.String("topic", cfg.TopicState), slog.String("boot_id", tel.BootID()))
		}
	}

	srv := web.NewServer(log, web.Options{
		Addr:           cfg.WebAddr(),
		RefreshSeconds: cfg.PageRefreshSeconds,
		AccessLog:      os.Stdout,
	}, loop, loop.History(), store, hub)
	srv.Start()

	err = loop.Run(ctx)

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
		log.Error("failed to stop web server", logger.Err(stopErr))
	}

	if errors.Is(err, context.Canceled) {
		log.Info("monitor stopped")
		return nil
	}
	return err
}

func initialThresholds(cfg *config.Config) thresholds.Set {
	return thresholds.Set{
		TempLow:   cfg.ThresholdTempLow,
		TempHigh:  cfg.ThresholdTempHigh,
		HumidLow:  cfg.ThresholdHumidLow,
		HumidHigh: cfg.ThresholdHumidHigh,
		PressLow:  cfg.ThresholdPressLow,
		PressHigh: cfg.ThresholdPressHigh,
	}
}

func openSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (sensors.Source, error) {
	if cfg.SensorKind == "mock" {
		log.Info("using mock sensor source")
		return sensors.NewMockSource(), nil
	}

	addr, err := cfg.BME280Addr()
	if err != nil {
		return nil, err
	}
	src, err := sensors.OpenWithRetry(ctx, log, cfg.SensorInitAttempts, cfg.SensorInitDelay, func() (sensors.Source, error) {
		return sensors.OpenBME280(cfg.BME280I2CBus, addr)
	})
	if err != nil {
		return nil, fmt.Errorf("could not find BME280: %w", err)
	}
	log.Info("BME280 initialized", slog.String("addr", fmt.Sprintf("0x%02X", addr)))
	return src, nil
}

func openDisplay(cfg *config.Config, log *slog.Logger) (display.Display, []io.Closer, error) {
	var (
		displays display.Multi
		closers  []io.Closer
	)

	if cfg.DisplayKind == "ssd1306" || cfg.DisplayKind == "both" {
		var (
			oled *display.OLED
			err  error
		)
		if cfg.DisplayBus == "i2c" {
			oled, err = display.OpenOLEDI2C(cfg.DisplayI2CBus)
		} else {
			oled, err = display.OpenOLEDSPI(cfg.DisplaySPIDevice, cfg.DisplayDCPin, cfg.DisplayRSTPin)
		}
		if err != nil {
			return nil, closers, fmt.Errorf("OLED fail: %w", err)
		}
		log.Info("OLED initialized", slog.String("bus", cfg.DisplayBus))
		displays = append(displays, oled)
		closers = append(closers, oled)
	}

	if cfg.DisplayKind == "serial" || cfg.DisplayKind == "both" {
		s, err := display.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, closers, err
		}
		log.Info("serial console opened", slog.String("port", cfg.SerialPort), slog.Uint64("baud", uint64(cfg.SerialBaudRate)))
		displays = append(displays, s)
		closers = append(closers, s)
	}

	if cfg.DisplayKind == "log" {
		displays = append(displays, display.NewLog(log))
	}

	if len(displays) == 1 {
		return displays[0], closers, nil
	}
	return displays, closers, nil
}

func openIndicator(cfg *config.Config, log *slog.Logger) (indicator.Indicator, error) {
	if cfg.IndicatorKind == "log" {
		return indicator.NewLog(log), nil
	}
	leds, err := indicator.OpenGPIO(cfg.LEDGreenPin, cfg.LEDRedPin)
	if err != nil {
		return nil, err
	}
	log.Info("status LEDs ready", slog.String("green", cfg.LEDGreenPin), slog.String("red", cfg.LEDRedPin))
	return leds, nil
}
