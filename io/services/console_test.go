package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
)

func TestConsole_TryReadBlocksUntilLine(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, false, log.Discard())
	raised := 0
	c.Attach(func() { raised++ })

	woken := 0
	buf := make([]byte, 16)
	n, blocked := c.TryRead(buf, func() { woken++ })
	assert.True(t, blocked)
	assert.Zero(t, n)

	c.Feed("hol")
	assert.Zero(t, raised, "sin Enter no hay línea")
	c.Feed("a\n")
	assert.Equal(t, 1, raised)
	assert.Zero(t, woken, "el callback corre recién al atender la interrupción")

	c.HandleInterrupt()
	c.HandleInterrupt()
	assert.Equal(t, 1, woken, "el callback se invoca una sola vez")

	n, blocked = c.TryRead(buf, nil)
	assert.False(t, blocked)
	assert.Equal(t, "hola", string(buf[:n]))
	assert.Zero(t, c.Buffered(), "el salto de línea se consume")
}

func TestConsole_ReadStopsAtBufferSize(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, false, log.Discard())
	c.Feed("abcdef\nxy\n")

	buf := make([]byte, 4)
	n, _ := c.TryRead(buf, nil)
	assert.Equal(t, "abcd", string(buf[:n]))
	n, _ = c.TryRead(buf, nil)
	assert.Equal(t, "ef", string(buf[:n]))
	n, _ = c.TryRead(buf, nil)
	assert.Equal(t, "xy", string(buf[:n]))
}

func TestConsole_NoRaiseWithoutWaiter(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, false, log.Discard())
	raised := 0
	c.Attach(func() { raised++ })
	c.Feed("ls\n")
	assert.Zero(t, raised)
}

func TestConsole_EditingAndEcho(t *testing.T) {
	out := &bytes.Buffer{}
	c := NewConsole(out, true, log.Discard())

	c.Feed("pd")
	c.Input(models.KeyBackspace)
	c.Feed("s\n")
	assert.Equal(t, "pd\b \bs\n", out.String())

	buf := make([]byte, 8)
	n, _ := c.TryRead(buf, nil)
	assert.Equal(t, "ps", string(buf[:n]))

	c.SetEcho(false)
	c.Feed("x")
	_, _ = c.Write([]byte("listo"))
	assert.True(t, strings.HasSuffix(out.String(), "\nlisto"))
}

func TestConsole_OverflowIsTruncated(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, false, log.Discard())
	line := strings.Repeat("a", models.LineBufferSize-1)
	c.Feed(line + "\n")
	c.Feed(line + "\n")
	c.Feed(line + "\n")
	assert.Equal(t, models.ConsoleBufferSize, c.Buffered())
}
