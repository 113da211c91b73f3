package services

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/dustin/go-humanize"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

type liveBlock struct {
	addr models.Addr
	size uint64
	fill byte
}

// RunWorkload reserva y libera bloques de tamaño aleatorio sobre h. Cada bloque se llena con un patrón
// que se verifica al liberarlo. Al final libera todo y controla que el heap vuelva a su ocupación inicial.
func RunWorkload(h *Heap, w models.Workload) (models.WorkloadStats, error) {
	if w.Operations <= 0 || w.MaxSize == 0 || w.Live <= 0 {
		return models.WorkloadStats{}, fmt.Errorf("carga inválida %+v: %w", w, models.ErrInvalidSize)
	}

	rng := rand.New(rand.NewPCG(w.Seed, w.Seed^0x9e3779b97f4a7c15))
	stats := models.WorkloadStats{PerKind: map[string]int{}}
	initial := h.Outstanding()
	var live []liveBlock

	release := func(i int) error {
		b := live[i]
		for _, c := range h.Arena().Bytes(b.addr, b.size) {
			if c != b.fill {
				return fmt.Errorf("la reserva %v de %d bytes fue pisada", b.addr, b.size)
			}
		}
		if err := h.Free(b.addr); err != nil {
			return err
		}
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		stats.Frees++
		return nil
	}

	for op := 0; op < w.Operations; op++ {
		if len(live) > 0 && (len(live) >= w.Live || rng.IntN(2) == 0) {
			if err := release(rng.IntN(len(live))); err != nil {
				return stats, err
			}
			continue
		}

		size := 1 + rng.Uint64N(w.MaxSize)
		addr, err := h.Alloc(size)
		if errors.Is(err, models.ErrOutOfMemory) {
			stats.Failures++
			continue
		}
		if err != nil {
			return stats, err
		}
		usable, err := h.SizeOf(addr)
		if err != nil {
			return stats, err
		}
		if usable < size {
			return stats, fmt.Errorf("se pidieron %d bytes y la reserva %v tiene %d", size, addr, usable)
		}

		fill := byte(op)
		buf := h.Arena().Bytes(addr, size)
		for i := range buf {
			buf[i] = fill
		}
		live = append(live, liveBlock{addr: addr, size: size, fill: fill})
		stats.Allocs++
		stats.PerKind[h.Classify(size).String()]++
		stats.PeakPages = max(stats.PeakPages, h.Pages().Used())
	}

	for len(live) > 0 {
		if err := release(len(live) - 1); err != nil {
			return stats, err
		}
	}
	if h.Outstanding() != initial {
		return stats, fmt.Errorf("quedaron %d reservas vivas", h.Outstanding()-initial)
	}

	stats.PeakUsed = humanize.IBytes(stats.PeakPages * h.Pages().PageSize())
	stats.Final = BuildMemoryInfo(h.Pages())
	return stats, nil
}
