package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.txt")
	require.NoError(t, Init("nucleo", "0.0.1", fname))

	_, span := StartSpan(context.Background(), "proceso shell", "INTERNAL")
	span.WithAttributes(map[string]string{"nombre": "shell"}).WithInt("pid", 1)
	EndSpan(span, errors.New("killed"))
	require.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), "proceso shell")
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.WithAttributes(map[string]string{"a": "b"}).WithInt("x", 1)
		span.SetStatusFromHTTPCode(500)
		EndSpan(span, nil)
	})
}
