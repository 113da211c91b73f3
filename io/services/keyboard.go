package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mattn/go-tty"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
)

// RuneReader es cualquier fuente de teclas.
type RuneReader interface {
	ReadRune() (rune, error)
}

type readerSource struct {
	r *bufio.Reader
}

func (s readerSource) ReadRune() (rune, error) {
	r, _, err := s.r.ReadRune()
	return r, err
}

type noClose struct{}

func (noClose) Close() error { return nil }

// NewReaderSource adapta un io.Reader (stdin, un archivo, un pipe) como teclado.
func NewReaderSource(r io.Reader) RuneReader {
	return readerSource{r: bufio.NewReader(r)}
}

// OpenKeyboard abre la fuente configurada. Con KeyboardNone devuelve nil.
func OpenKeyboard(cfg models.Config, stdin io.Reader) (RuneReader, io.Closer, error) {
	switch cfg.Keyboard {
	case models.KeyboardTTY:
		var (
			t   *tty.TTY
			err error
		)
		if cfg.TTYDevice != "" {
			t, err = tty.OpenDevice(cfg.TTYDevice)
		} else {
			t, err = tty.Open()
		}
		if err != nil {
			return nil, nil, fmt.Errorf("no se pudo abrir la terminal: %w", err)
		}
		return t, t, nil
	case models.KeyboardStdin, "":
		return NewReaderSource(stdin), noClose{}, nil
	case models.KeyboardNone:
		return nil, noClose{}, nil
	default:
		return nil, nil, fmt.Errorf("teclado desconocido: %q", cfg.Keyboard)
	}
}

// RunKeyboard lee teclas hasta fin de archivo, Ctrl-D o la cancelación de ctx, y las entrega a la consola.
func RunKeyboard(ctx context.Context, src RuneReader, console *Console, logger *slog.Logger) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r, err := src.ReadRune()
		if errors.Is(err, io.EOF) {
			logger.Debug("Fin de la entrada de teclado")
			return nil
		}
		if err != nil {
			return err
		}
		if r == models.KeyEOT {
			return nil
		}
		console.Input(r)
	}
}
