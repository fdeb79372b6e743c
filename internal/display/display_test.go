package display

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/logger"
)

var sample = env.Reading{Temperature: 22.5, Humidity: 35, Pressure: 1000.25}

type recordingDisplay struct {
	got []env.Reading
	err error
}

func (d *recordingDisplay) Render(r env.Reading) error {
	d.got = append(d.got, r)
	return d.err
}

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"T:22.50 C", "H:35.00 %", "P:1000.25hPa"}, Lines(sample))
}

func TestMultiRendersEveryDisplay(t *testing.T) {
	boom := errors.New("spi write failed")
	a := &recordingDisplay{}
	b := &recordingDisplay{err: boom}
	c := &recordingDisplay{}

	err := Multi{a, b, c}.Render(sample)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []env.Reading{sample}, a.got)
	assert.Equal(t, []env.Reading{sample}, b.got)
	assert.Equal(t, []env.Reading{sample}, c.got)
}

func TestSerialWritesOneLinePerReading(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial(port)

	require.NoError(t, s.Render(sample))
	require.NoError(t, s.Render(env.Reading{Temperature: 1, Humidity: 2, Pressure: 3}))
	require.NoError(t, s.Close())

	assert.Equal(t,
		"T:22.50 C  H:35.00 %  P:1000.25hPa\r\nT:1.00 C  H:2.00 %  P:3.00hPa\r\n",
		port.String())
	assert.True(t, port.closed)
}

func TestFrameDrawsText(t *testing.T) {
	img := frame(Lines(sample))

	lit := 0
	for _, b := range img.Pix {
		if b != 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 0)
	assert.Equal(t, oledWidth, img.Bounds().Dx())
	assert.Equal(t, oledHeight, img.Bounds().Dy())
}

func TestLogDisplayNeverFails(t *testing.T) {
	var buf bytes.Buffer
	d := NewLog(logger.New(&buf, "debug", "text"))

	require.NoError(t, d.Render(sample))
	assert.Contains(t, buf.String(), "temp_c=22.5")
}
