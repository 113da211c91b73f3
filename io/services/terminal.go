package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
)

// SendLine entrega una línea completa (con su salto) a quien la consuma.
type SendLine func(ctx context.Context, line string) error

// RunTerminal edita líneas localmente, igual que la consola del núcleo, y manda cada una con send al
// presionar Enter. Termina con fin de archivo, Ctrl-D o la cancelación de ctx.
func RunTerminal(ctx context.Context, src RuneReader, out io.Writer, echo bool, send SendLine, logger *slog.Logger) error {
	line := make([]rune, 0, models.LineBufferSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r, err := src.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch r {
		case models.KeyEOT:
			return nil
		case '\r', '\n':
			if echo {
				fmt.Fprint(out, "\n")
			}
			if err := send(ctx, string(line)+"\n"); err != nil {
				logger.Warn(fmt.Sprintf("No se pudo enviar la línea: %v", err))
			}
			line = line[:0]
		case models.KeyBackspace, models.KeyDelete:
			if len(line) > 0 {
				line = line[:len(line)-1]
				if echo {
					fmt.Fprint(out, "\b \b")
				}
			}
		default:
			if len(line) >= models.LineBufferSize-1 {
				continue
			}
			line = append(line, r)
			if echo {
				fmt.Fprint(out, string(r))
			}
		}
	}
}
