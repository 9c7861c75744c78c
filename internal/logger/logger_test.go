package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"", "production", "development", "dev"} {
		t.Run(env, func(t *testing.T) {
			l, err := New(env)
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}

func TestNew_Levels(t *testing.T) {
	prod, err := New("production")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New("development")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithLevel(t *testing.T) {
	l, err := NewWithLevel("production", "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = NewWithLevel("production", "loud")
	assert.Error(t, err)
}
