package services

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
)

// Console es el driver de consola: acumula lo que se tipea en una línea editable y, al presionar Enter,
// la pasa al buffer de lectura. Los lectores bloqueados dejan un callback que se invoca una sola vez,
// desde la interrupción de teclado, cuando llega una línea nueva.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	echo   bool
	line   []byte
	buffer []byte

	wake        func()
	wakePending bool
	raise       func()

	log *slog.Logger
}

func NewConsole(out io.Writer, echo bool, logger *slog.Logger) *Console {
	return &Console{
		out:    out,
		echo:   echo,
		line:   make([]byte, 0, models.LineBufferSize),
		buffer: make([]byte, 0, models.ConsoleBufferSize),
		log:    logger,
	}
}

// Attach conecta la consola con la línea de interrupción de teclado.
func (c *Console) Attach(raise func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raise = raise
}

// Feed tipea s entera.
func (c *Console) Feed(s string) {
	for _, r := range s {
		c.Input(r)
	}
}

// Input procesa una tecla.
func (c *Console) Input(r rune) {
	c.mu.Lock()
	var raise func()

	switch r {
	case '\r', '\n':
		raise = c.flushLocked()
	case models.KeyBackspace, models.KeyDelete:
		if len(c.line) > 0 {
			_, size := utf8.DecodeLastRune(c.line)
			c.line = c.line[:len(c.line)-size]
			c.echoLocked("\b \b")
		}
	default:
		if len(c.line)+utf8.RuneLen(r) <= models.LineBufferSize {
			c.line = utf8.AppendRune(c.line, r)
			c.echoLocked(string(r))
		}
	}
	c.mu.Unlock()

	if raise != nil {
		raise()
	}
}

func (c *Console) flushLocked() func() {
	c.line = append(c.line, '\n')
	room := models.ConsoleBufferSize - len(c.buffer)
	if len(c.line) > room {
		c.log.Warn(fmt.Sprintf("Buffer de consola lleno, se descartan %d bytes", len(c.line)-room))
		c.line = c.line[:room]
	}
	c.buffer = append(c.buffer, c.line...)
	c.line = c.line[:0]
	c.echoLocked("\n")

	if c.wake == nil {
		return nil
	}
	c.wakePending = true
	return c.raise
}

func (c *Console) echoLocked(s string) {
	if c.echo {
		_, _ = io.WriteString(c.out, s)
	}
}

// TryRead copia a buf la próxima línea (sin el '\n', que sí se consume) o hasta llenar buf. Si no hay nada
// para leer registra wake y devuelve blocked.
func (c *Console) TryRead(buf []byte, wake func()) (n int, blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buffer) == 0 {
		c.wake = wake
		return 0, true
	}

	consumed := 0
	for consumed < len(c.buffer) && n < len(buf) {
		ch := c.buffer[consumed]
		consumed++
		if ch == '\n' {
			break
		}
		buf[n] = ch
		n++
	}
	c.buffer = append(c.buffer[:0], c.buffer[consumed:]...)
	return n, false
}

// HandleInterrupt invoca, fuera del lock, el callback pendiente si llegó una línea.
func (c *Console) HandleInterrupt() {
	c.mu.Lock()
	var wake func()
	if c.wakePending {
		wake = c.wake
		c.wake = nil
		c.wakePending = false
	}
	c.mu.Unlock()

	if wake != nil {
		wake()
	}
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

func (c *Console) SetEcho(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.echo = on
}

// Buffered devuelve los bytes listos para leer.
func (c *Console) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}
