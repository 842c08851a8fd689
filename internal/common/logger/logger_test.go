// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "rank-investors"})

	log.Info("ranked", map[string]interface{}{"eligible": 3})
	log.WithError(errors.New("boom")).Error("failed", nil)
	log.Warn("slow", map[string]interface{}{"error": errors.New("deadline")})

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "rank-investors", entries[0].ContextMap()["taskType"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["eligible"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, "deadline", entries[2].ContextMap()["error"])
}

func TestConstructors(t *testing.T) {
	assert.NotNil(t, NewZapAdapter(New("info", "json")))
	assert.NotNil(t, NewZapAdapter(New("debug", "console")))
	NewNoOpLogger().Info("dropped", nil)
	NewTestLogger(t).Debug("visible in -v", map[string]interface{}{"k": "v"})
}
