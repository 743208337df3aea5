package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestObservedLoggerCarriesFields(t *testing.T) {
	log, logs := NewObserved(zapcore.DebugLevel)

	log.WithFields(map[string]interface{}{"taskType": "parse-bulk-request"}).
		WithError(errors.New("boom")).
		Warn("gateway call failed", map[string]interface{}{"familyId": "fam-1"})

	entries := logs.FilterMessage("gateway call failed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "parse-bulk-request", ctx["taskType"])
	assert.Equal(t, "fam-1", ctx["familyId"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestNewReturnsUsableLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l := New("info", format)
		require.NotNil(t, l)
		l.Info("ok")
	}
	NewNoOpLogger().Error("ignored", nil)
	NewStructured("debug", "json", "chore-workers").Info("hello", map[string]interface{}{"n": 1})
}
