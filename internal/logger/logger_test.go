package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSONIncludesErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Error("sensor read failed", Err(errors.New("i2c timeout")))

	assert.Contains(t, buf.String(), `"error":"i2c timeout"`)
	assert.Contains(t, buf.String(), `"msg":"sensor read failed"`)
}

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "text")

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
