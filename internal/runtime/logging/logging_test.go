package logging

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEntry struct {
	level  string
	msg    string
	err    error
	fields watermill.LogFields
}

// captureAdapter is a minimal watermill.LoggerAdapter recording every call.
type captureAdapter struct {
	entries *[]capturedEntry
	fields  watermill.LogFields
}

func newCaptureAdapter() *captureAdapter {
	return &captureAdapter{entries: &[]capturedEntry{}}
}

func (c *captureAdapter) record(level, msg string, err error, fields watermill.LogFields) {
	merged := c.fields.Add(fields)
	*c.entries = append(*c.entries, capturedEntry{level: level, msg: msg, err: err, fields: merged})
}

func (c *captureAdapter) Error(msg string, err error, fields watermill.LogFields) {
	c.record("error", msg, err, fields)
}
func (c *captureAdapter) Info(msg string, fields watermill.LogFields) {
	c.record("info", msg, nil, fields)
}

func (c *captureAdapter) Debug(msg string, fields watermill.LogFields) {
	c.record("debug", msg, nil, fields)
}

func (c *captureAdapter) Trace(msg string, fields watermill.LogFields) {
	c.record("trace", msg, nil, fields)
}

func (c *captureAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &captureAdapter{entries: c.entries, fields: c.fields.Add(fields)}
}

func TestWatermillServiceLoggerForwards(t *testing.T) {
	captured := newCaptureAdapter()
	logger := NewWatermillServiceLogger(captured)

	failure := errors.New("failed")
	logger.Info("participant created", LogFields{"domain_id": 0})
	logger.Debug("debug line", nil)
	logger.Trace("trace line", nil)
	logger.Error("boom", failure, LogFields{"topic": "radar"})

	entries := *captured.entries
	require.Len(t, entries, 4)

	assert.Equal(t, "info", entries[0].level)
	assert.Equal(t, "participant created", entries[0].msg)
	assert.Equal(t, watermill.LogFields{"domain_id": 0}, entries[0].fields)

	assert.Equal(t, "debug", entries[1].level)
	assert.Equal(t, "trace", entries[2].level)

	assert.Equal(t, "error", entries[3].level)
	assert.Equal(t, failure, entries[3].err)
	assert.Equal(t, watermill.LogFields{"topic": "radar"}, entries[3].fields)
}

func TestWithAddsFields(t *testing.T) {
	captured := newCaptureAdapter()
	logger := NewWatermillServiceLogger(captured).With(LogFields{"component": "discovery"})

	logger.Info("hello", LogFields{"extra": "yes"})

	entries := *captured.entries
	require.Len(t, entries, 1)
	assert.Equal(t, watermill.LogFields{"component": "discovery", "extra": "yes"}, entries[0].fields)
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	captured := newCaptureAdapter()

	// ServiceLogger -> LoggerAdapter bridge, then back down to the capture.
	adapter := NewWatermillAdapter(NewWatermillServiceLogger(captured))
	adapter.Info("bridged", watermill.LogFields{"k": "v"})
	adapter.With(watermill.LogFields{"w": "1"}).Debug("chained", nil)

	entries := *captured.entries
	require.Len(t, entries, 2)
	assert.Equal(t, "bridged", entries[0].msg)
	assert.Equal(t, watermill.LogFields{"k": "v"}, entries[0].fields)
	assert.Equal(t, watermill.LogFields{"w": "1"}, entries[1].fields)
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger)

	// Must not panic on any level, including nil fields.
	logger.Debug("d", nil)
	logger.Info("i", nil)
	logger.Trace("t", nil)
	logger.Error("e", errors.New("ignored"), nil)
	logger.With(LogFields{"a": "b"}).Info("chained", nil)
}

func TestNilConstructorsPanic(t *testing.T) {
	assert.Panics(t, func() { NewSlogServiceLogger(nil) })
	assert.Panics(t, func() { NewWatermillServiceLogger(nil) })
	assert.Panics(t, func() { NewWatermillAdapter(nil) })
}
