package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		keys  []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time and duration", []any{"t", time.Now(), "d", time.Second}, []string{"t", "d"}},
		{"error only", []any{boom}, []string{"error"}},
		{"passthrough field", []any{zap.String("x", "y"), "num", 42}, []string{"x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"nil value", []any{"a", nil}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			var keys []string
			for _, f := range fields {
				keys = append(keys, f.Key)
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestTypedFieldUsesNativeEncoders(t *testing.T) {
	assert.Equal(t, zapcore.Float64Type, typedField("speed", 42.5).Type)
	assert.Equal(t, zapcore.BoolType, typedField("running", true).Type)
	assert.Equal(t, zapcore.DurationType, typedField("timeout", time.Second).Type)
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, SetLevel("loud"))
	assert.NoError(t, SetLevel("debug"))
}
