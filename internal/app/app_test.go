package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/envmon/internal/config"
	"github.com/relabs-tech/envmon/internal/display"
	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/indicator"
	"github.com/relabs-tech/envmon/internal/logger"
	"github.com/relabs-tech/envmon/internal/monitor"
	"github.com/relabs-tech/envmon/internal/status"
	"github.com/relabs-tech/envmon/internal/telemetry"
	"github.com/relabs-tech/envmon/internal/thresholds"
)

func TestFormatStateOK(t *testing.T) {
	line := formatState(telemetry.StatePayload{
		BootID: "0123456789abcdef",
		State: monitor.State{
			HaveReading: true,
			Reading:     env.Reading{Temperature: 22.5, Humidity: 30, Pressure: 1000},
			Timestamp:   12,
			Status:      status.OK,
		},
	})

	assert.Contains(t, line, "01234567")
	assert.NotContains(t, line, "89abcdef")
	assert.Contains(t, line, "OK")
	assert.Contains(t, line, "22.50")
	assert.Contains(t, line, "1000.00")
	assert.NotContains(t, line, "out of band")
}

func TestFormatStateAlertListsBreaches(t *testing.T) {
	line := formatState(telemetry.StatePayload{
		BootID: "b",
		State: monitor.State{
			HaveReading: true,
			Status:      status.Alert,
			Breaches:    []thresholds.Metric{thresholds.Temperature, thresholds.Pressure},
		},
	})

	assert.Contains(t, line, "ALERT")
	assert.Contains(t, line, "temperature,pressure")
}

func TestFormatStateWithoutReading(t *testing.T) {
	line := formatState(telemetry.StatePayload{
		State: monitor.State{LastError: "i2c timeout", ConsecutiveFailures: 2},
	})
	assert.Contains(t, line, "no reading: i2c timeout")
}

func TestInitialThresholdsFromConfig(t *testing.T) {
	cfg := &config.Config{
		ThresholdTempLow:   1,
		ThresholdTempHigh:  2,
		ThresholdHumidLow:  3,
		ThresholdHumidHigh: 4,
		ThresholdPressLow:  5,
		ThresholdPressHigh: 6,
	}
	assert.Equal(t, thresholds.Set{TempLow: 1, TempHigh: 2, HumidLow: 3, HumidHigh: 4, PressLow: 5, PressHigh: 6}, initialThresholds(cfg))
}

func TestOpenSoftwareCollaborators(t *testing.T) {
	log := logger.Discard()
	cfg := &config.Config{SensorKind: "mock", DisplayKind: "log", IndicatorKind: "log"}

	src, err := openSource(t.Context(), cfg, log)
	require.NoError(t, err)
	_, err = src.Read()
	assert.NoError(t, err)

	disp, closers, err := openDisplay(cfg, log)
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.IsType(t, &display.Log{}, disp)

	ind, err := openIndicator(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &indicator.Log{}, ind)
}
