package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

func (h *Heap) allocSmall() (models.Addr, error) {
	if h.chunkPool == 0 {
		if err := h.refillSmall(); err != nil {
			return 0, err
		}
	}
	chunk := h.chunkPool
	h.chunkPool = models.Addr(h.arena.ReadWord(chunk))
	return h.mark(chunk, h.chunkSize, models.KindSmall), nil
}

func (h *Heap) freeSmall(chunk models.Addr) {
	h.arena.WriteWord(chunk, uint64(h.chunkPool))
	h.chunkPool = chunk
}

// refillSmall pide un bloque nuevo, el doble que el anterior, y lo corta en chunks. Si el bloque grande
// no entra se reintenta con el tamaño inicial.
func (h *Heap) refillSmall() error {
	size := h.firstSmall << h.smallGrowth
	block, err := h.pages.Alloc(size)
	if err != nil && h.smallGrowth > 0 {
		size = h.firstSmall
		block, err = h.pages.Alloc(size)
	} else if err == nil {
		h.smallGrowth++
	}
	if err != nil {
		return fmt.Errorf("slab: %w", err)
	}

	count := size / h.chunkSize
	for i := uint64(0); i < count; i++ {
		chunk := block + models.Addr(i*h.chunkSize)
		next := uint64(0)
		if i+1 < count {
			next = uint64(chunk) + h.chunkSize
		}
		h.arena.WriteWord(chunk, next)
	}
	h.chunkPool = block
	h.log.Debug(fmt.Sprintf("Slab: nuevo bloque de %d bytes en %v con %d chunks", size, block, count))
	return nil
}

// FreeChunks cuenta los chunks chicos disponibles.
func (h *Heap) FreeChunks() int {
	n := 0
	for c := h.chunkPool; c != 0; c = models.Addr(h.arena.ReadWord(c)) {
		n++
	}
	return n
}
