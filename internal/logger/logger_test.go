package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "json")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())

	l, err = New("", "console")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)
	l.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWithWriter(&buf))

	l := FromContext(ctx)
	l.Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}

func TestFromContext_Default(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := WithFields(NewWithWriter(&buf), map[string]any{"txn": 7, "category": "SP"})
	l.Info().Msg("processed")

	out := buf.String()
	assert.Contains(t, out, `"txn":7`)
	assert.Contains(t, out, `"category":"SP"`)
}
