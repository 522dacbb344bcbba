package slotted

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("nil handler falls back to text", func(t *testing.T) {
		l := NewLogger(nil)
		require.NotNil(t, l)
		require.NotNil(t, l.Logger)
	})

	t.Run("custom handler", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(slog.NewJSONHandler(&buf, nil))

		l.Info("mapped", "bytes", 4096)

		out := buf.String()
		assert.Contains(t, out, `"msg":"mapped"`)
		assert.Contains(t, out, `"bytes":4096`)
	})
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, nil))

	l.WithLane(3).WithCapacity(128).WithLength(7).WithBytes(1024).Info("resize")

	out := buf.String()
	assert.Contains(t, out, `"lane":3`)
	assert.Contains(t, out, `"capacity":128`)
	assert.Contains(t, out, `"length":7`)
	assert.Contains(t, out, `"bytes":1024`)
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.NotPanics(t, func() {
		l.Error("dropped")
		l.Info("dropped")
	})
}
