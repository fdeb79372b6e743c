// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/envmon/internal/env"
	"github.com/relabs-tech/envmon/internal/logger"
)

// maxInitDelay caps the pause between init attempts.
const maxInitDelay = 30 * time.Second

// ErrHardwareFault marks a sensor that cannot be initialized or polled.
var ErrHardwareFault = errors.New("sensor hardware fault")

// Source is anything that can provide environmental readings on demand.
type Source interface {
	Read() (env.Reading, error)
}

// OpenFunc initializes a Source.
type OpenFunc func() (Source, error)

// OpenWithRetry calls open up to attempts times, doubling delay between
// tries up to maxInitDelay. attempts=1 is fail-fast. The last error is
// returned wrapped in ErrHardwareFault if it was not already.
func OpenWithRetry(ctx context.Context, log *slog.Logger, attempts int, delay time.Duration, open OpenFunc) (Source, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		src, err := open()
		if err == nil {
			return src, nil
		}
		lastErr = err
		if i == attempts {
			break
		}

		log.Warn("sensor init failed, retrying",
			slog.Int("attempt", i),
			slog.Int("attempts", attempts),
			slog.Duration("delay", delay),
			logger.Err(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sensor init: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay = nextDelay(delay)
	}

	if !errors.Is(lastErr, ErrHardwareFault) {
		lastErr = fmt.Errorf("%w: %w", ErrHardwareFault, lastErr)
	}
	return nil, lastErr
}

func nextDelay(d time.Duration) time.Duration {
	if d >= maxInitDelay/2 {
		return maxInitDelay
	}
	return d * 2
}
