package sensors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/logger"
)

type fixedSource struct{ r env.Reading }

func (f fixedSource) Read() (env.Reading, error) { return f.r, nil }

func TestFromEnvConvertsUnits(t *testing.T) {
	e := physic.Env{
		Temperature: physic.ZeroCelsius + 22500*physic.MilliKelvin,
		Pressure:    101325 * physic.Pascal,
		Humidity:    35 * physic.PercentRH,
	}

	r := fromEnv(e)
	assert.InDelta(t, 22.5, r.Temperature, 0.001)
	assert.InDelta(t, 1013.25, r.Pressure, 0.001)
	assert.InDelta(t, 35.0, r.Humidity, 0.001)
}

func TestMockSourceStaysNearBands(t *testing.T) {
	start := time.Now()
	m := &mockSource{start: start}

	for _, offset := range []time.Duration{0, time.Minute, 17 * time.Minute, 3 * time.Hour} {
		m.now = func() time.Time { return start.Add(offset) }
		r, err := m.Read()
		require.NoError(t, err)
		assert.InDelta(t, 22.5, r.Temperature, 3.5+1e-9)
		assert.InDelta(t, 30, r.Humidity, 12+1e-9)
		assert.InDelta(t, 1000, r.Pressure, 20+1e-9)
	}
}

func TestOpenWithRetryFailFast(t *testing.T) {
	calls := 0
	_, err := OpenWithRetry(context.Background(), logger.Discard(), 1, time.Hour, func() (Source, error) {
		calls++
		return nil, errors.New("no ack from 0x76")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHardwareFault))
	assert.Contains(t, err.Error(), "no ack from 0x76")
	assert.Equal(t, 1, calls)
}

func TestOpenWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	want := fixedSource{r: env.Reading{Temperature: 21}}

	src, err := OpenWithRetry(context.Background(), logger.Discard(), 3, time.Millisecond, func() (Source, error) {
		calls++
		if calls < 3 {
			return nil, ErrHardwareFault
		}
		return want, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, want, src)
}

func TestOpenWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenWithRetry(ctx, logger.Discard(), 5, time.Hour, func() (Source, error) {
		return nil, ErrHardwareFault
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNextDelayDoublesUpToCap(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextDelay(time.Second))
	assert.Equal(t, maxInitDelay, nextDelay(20*time.Second))
	assert.Equal(t, maxInitDelay, nextDelay(maxInitDelay))

	d := time.Second
	for i := 0; i < 64; i++ {
		d = nextDelay(d)
		require.Positive(t, d)
		require.LessOrEqual(t, d, maxInitDelay)
	}
}
