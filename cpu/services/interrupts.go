package services

import (
	"context"
	"sync/atomic"
)

// InterruptLine es el registro de pedidos del PIC: los dispositivos levantan líneas desde cualquier
// goroutine y el núcleo las atiende todas juntas. Pedidos repetidos de la misma línea se funden.
type InterruptLine struct {
	pending atomic.Uint32
	notify  chan struct{}
}

func NewInterruptLine() *InterruptLine {
	return &InterruptLine{notify: make(chan struct{}, 1)}
}

func (l *InterruptLine) Raise(irq int) {
	l.pending.Or(1 << irq)
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Pending devuelve y limpia las líneas pendientes.
func (l *InterruptLine) Pending() uint32 {
	return l.pending.Swap(0)
}

// Wait bloquea hasta que haya alguna línea pendiente (hlt).
func (l *InterruptLine) Wait(ctx context.Context) error {
	for l.pending.Load() == 0 {
		select {
		case <-l.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
