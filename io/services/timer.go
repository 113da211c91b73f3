package services

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
)

// PIT es el temporizador real: levanta la interrupción de reloj tickHz veces por segundo.
type PIT struct {
	hz    int
	ticks atomic.Uint32
	stop  chan struct{}
	once  sync.Once
}

func NewPIT(hz int) *PIT {
	if hz <= 0 {
		hz = models.DefaultTickHz
	}
	return &PIT{hz: hz, stop: make(chan struct{})}
}

func (p *PIT) Start(raise func()) {
	ticker := time.NewTicker(time.Second / time.Duration(p.hz))
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.ticks.Add(1)
				raise()
			case <-p.stop:
				return
			}
		}
	}()
}

func (p *PIT) Stop() {
	p.once.Do(func() { close(p.stop) })
}

func (p *PIT) Now() uint32 { return p.ticks.Load() }

// Settings devuelve la frecuencia del cristal y los pulsos por interrupción.
func (p *PIT) Settings() (quartz, ticks uint32) {
	return models.Quartz, uint32(models.Quartz / p.hz)
}

// Idle no hace nada: el próximo tick llega solo.
func (p *PIT) Idle() {}

// ManualTimer es un reloj virtual: el tiempo sólo avanza cuando alguien lo pide. Cuando el núcleo queda
// ocioso avanza un tick, lo que da tiempo determinístico para los tests.
type ManualTimer struct {
	ticks atomic.Uint32
	raise atomic.Pointer[func()]
}

func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

func (m *ManualTimer) Start(raise func()) { m.raise.Store(&raise) }

func (m *ManualTimer) Stop() { m.raise.Store(nil) }

func (m *ManualTimer) Now() uint32 { return m.ticks.Load() }

func (m *ManualTimer) Settings() (quartz, ticks uint32) {
	return models.Quartz, uint32(models.Quartz / models.DefaultTickHz)
}

func (m *ManualTimer) Idle() { m.Advance(1) }

// Advance mueve el reloj n ticks levantando una interrupción por cada uno.
func (m *ManualTimer) Advance(n int) {
	for i := 0; i < n; i++ {
		m.ticks.Add(1)
		if raise := m.raise.Load(); raise != nil {
			(*raise)()
		}
	}
}
