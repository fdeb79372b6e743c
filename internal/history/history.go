// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history keeps the most recent readings in a fixed-size ring.
package history

import (
	"sync"

	"github.com/relabs-tech/envmon/internal/env"
)

// DefaultCapacity is the number of slots shown on the status page.
const DefaultCapacity = 20

// Log is a fixed-capacity circular buffer of timestamped readings.
// Once full, each Append overwrites the oldest slot.
type Log struct {
	mu      sync.RWMutex
	entries []env.LogEntry
	cursor  int
	written uint64
}

// New returns a Log with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]env.LogEntry, capacity)}
}

// Append stores r at the write cursor and advances it, wrapping to 0.
func (l *Log) Append(r env.Reading, timestamp uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.cursor] = env.LogEntry{Reading: r, Timestamp: timestamp}
	l.cursor++
	if l.cursor >= len(l.entries) {
		l.cursor = 0
	}
	l.written++
}

// Snapshot copies every slot in buffer-index order, unwritten slots
// included as zero values. After wrap-around this is not chronological.
func (l *Log) Snapshot() []env.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]env.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Chronological returns only the written entries, oldest first.
func (l *Log) Chronological() []env.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.lenLocked()
	out := make([]env.LogEntry, 0, n)
	if n < len(l.entries) {
		return append(out, l.entries[:n]...)
	}
	out = append(out, l.entries[l.cursor:]...)
	return append(out, l.entries[:l.cursor]...)
}

// Cursor is the slot the next Append will write.
func (l *Log) Cursor() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cursor
}

// Len is the number of slots holding real data: min(appends, capacity).
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lenLocked()
}

// Cap is the fixed capacity.
func (l *Log) Cap() int {
	return len(l.entries)
}

func (l *Log) lenLocked() int {
	if l.written < uint64(len(l.entries)) {
		return int(l.written)
	}
	return len(l.entries)
}
