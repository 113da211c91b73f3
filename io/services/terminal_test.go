package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
)

func TestRunTerminal_SendsEditedLines(t *testing.T) {
	var sent []string
	send := func(_ context.Context, line string) error {
		sent = append(sent, line)
		return nil
	}
	out := &bytes.Buffer{}
	src := NewReaderSource(strings.NewReader("hola\nchaw\b\bu\n\x04ignorada\n"))

	require.NoError(t, RunTerminal(context.Background(), src, out, true, send, log.Discard()))
	assert.Equal(t, []string{"hola\n", "chu\n"}, sent)
	assert.Contains(t, out.String(), "hola\n")
}

func TestRunTerminal_SendErrorDoesNotStop(t *testing.T) {
	calls := 0
	send := func(_ context.Context, _ string) error {
		calls++
		return errors.New("kernel caído")
	}
	src := NewReaderSource(strings.NewReader("a\nb\n"))

	require.NoError(t, RunTerminal(context.Background(), src, &bytes.Buffer{}, false, send, log.Discard()))
	assert.Equal(t, 2, calls)
}

func TestRunTerminal_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunTerminal(ctx, NewReaderSource(strings.NewReader("x\n")), &bytes.Buffer{}, false,
		func(context.Context, string) error { return nil }, log.Discard())
	assert.ErrorIs(t, err, context.Canceled)
}
