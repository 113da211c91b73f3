package services

import (
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// Heap es el asignador del núcleo. Clasifica cada pedido en tres clases:
//   - chico (hasta SmallMax): slab de chunks de tamaño fijo con lista libre LIFO;
//   - mediano: buddy binario sobre potencias de dos;
//   - grande (desde LargeMin): páginas enteras del PageAllocator.
//
// Cada reserva lleva una cabecera y un trailer con su tamaño y una marca que codifica la clase; Free
// valida ambas antes de tocar cualquier estructura.
type Heap struct {
	cfg   models.Config
	arena *Arena
	pages *PageAllocator
	log   *slog.Logger

	chunkSize   uint64
	firstSmall  uint64
	chunkPool   models.Addr
	smallGrowth uint

	freeLists    [models.FreeListLevels]models.Addr
	mediumGrowth uint

	outstanding int
}

// NewHeap arma la arena, el PageAllocator y el heap a partir de la configuración.
func NewHeap(base models.Addr, cfg models.Config, logger *slog.Logger) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	arena := NewArena(base, cfg.HeapSize)
	pages, err := NewPageAllocator(arena, cfg.PageSize, logger)
	if err != nil {
		return nil, err
	}
	chunk := cfg.SmallMax + models.MarkSize
	return &Heap{
		cfg:        cfg,
		arena:      arena,
		pages:      pages,
		log:        logger,
		chunkSize:  chunk,
		firstSmall: chunk << 7,
	}, nil
}

func (h *Heap) Arena() *Arena { return h.arena }
func (h *Heap) Pages() *PageAllocator { return h.pages }
func (h *Heap) Config() models.Config { return h.cfg }

// Outstanding cuenta las reservas vivas.
func (h *Heap) Outstanding() int { return h.outstanding }

// Classify indica la clase a la que iría un pedido de size bytes.
func (h *Heap) Classify(size uint64) models.Kind {
	switch {
	case size <= h.cfg.SmallMax:
		return models.KindSmall
	case size >= h.cfg.LargeMin:
		return models.KindLarge
	default:
		return models.KindMedium
	}
}

// Alloc reserva size bytes y devuelve la dirección utilizable. Quedarse sin memoria es recuperable.
func (h *Heap) Alloc(size uint64) (models.Addr, error) {
	if size == 0 {
		return 0, models.ErrInvalidSize
	}
	if size > h.arena.Size() {
		return 0, fmt.Errorf("%w: %d bytes superan el heap", models.ErrOutOfMemory, size)
	}

	var (
		ptr models.Addr
		err error
	)
	switch h.Classify(size) {
	case models.KindSmall:
		ptr, err = h.allocSmall()
	case models.KindMedium:
		ptr, err = h.allocMedium(size)
	default:
		ptr, err = h.allocLarge(size)
	}
	if err != nil {
		return 0, err
	}
	h.outstanding++
	return ptr, nil
}

// Free devuelve una reserva. Si las marcas no coinciden el heap no se modifica y se informa
// ErrCorruptFree; esto incluye las dobles liberaciones.
func (h *Heap) Free(ptr models.Addr) error {
	block, size, kind, err := h.inspect(ptr)
	if err != nil {
		h.log.Warn(fmt.Sprintf("Liberación rechazada de %v: %v", ptr, err))
		return err
	}
	switch kind {
	case models.KindSmall:
		h.unmark(block, size)
		h.freeSmall(block)
	case models.KindMedium:
		h.unmark(block, size)
		h.freeMedium(block, size)
	default:
		// Si las páginas no se pueden liberar la reserva sigue marcada.
		if err := h.pages.Free(block, size); err != nil {
			return err
		}
		h.unmark(block, size)
	}
	h.outstanding--
	return nil
}

// SizeOf devuelve la cantidad de bytes utilizables de una reserva válida.
func (h *Heap) SizeOf(ptr models.Addr) (uint64, error) {
	_, size, kind, err := h.inspect(ptr)
	if err != nil {
		return 0, err
	}
	if kind == models.KindSmall {
		return h.cfg.SmallMax, nil
	}
	return size - models.MarkSize, nil
}

// Info resume la ocupación de páginas.
func (h *Heap) Info() (capacity, used uint64) {
	return h.pages.Capacity() * h.pages.PageSize(), h.pages.Used() * h.pages.PageSize()
}

func ceilLog2(n uint64) uint {
	if n <= 1 {
		return 0
	}
	return uint(bits.Len64(n - 1))
}
