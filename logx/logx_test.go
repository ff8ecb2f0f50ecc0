package logx

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	Info("RUNTIME", "hidden")
	Warn("RUNTIME", "shown ", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN][RUNTIME]")
	assert.Contains(t, buf.String(), "shown 1")

	buf.Reset()
	SetLevel(LevelTrace)
	Trace("RUNTIME", "state dump")
	assert.Contains(t, buf.String(), "[TRACE][RUNTIME]")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("TRACE"))
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestErrorfReturnsError(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	base := errors.New("boom")
	err := Errorf("wrapped: %w", base)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, buf.String(), "wrapped: boom")
}
