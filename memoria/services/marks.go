package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

func magicFor(block models.Addr, kind models.Kind) uint64 {
	return (uint64(block)*models.MagicFactor)&^3 | uint64(kind)
}

// markedSize agrega las marcas a size, redondeado a palabra.
func markedSize(size uint64) uint64 {
	return (size+models.WordSize-1)&^(models.WordSize-1) + models.MarkSize
}

// mark escribe cabecera y trailer sobre un bloque de size bytes y devuelve el puntero de usuario.
func (h *Heap) mark(block models.Addr, size uint64, kind models.Kind) models.Addr {
	magic := magicFor(block, kind)
	h.arena.WriteWord(block, size)
	h.arena.WriteWord(block+models.WordSize, magic)
	trailer := block + models.Addr(size) - models.UserOffset
	h.arena.WriteWord(trailer, magic)
	h.arena.WriteWord(trailer+models.WordSize, size)
	return block + models.UserOffset
}

func (h *Heap) unmark(block models.Addr, size uint64) {
	h.arena.Zero(block, models.UserOffset)
	h.arena.Zero(block+models.Addr(size)-models.UserOffset, models.UserOffset)
}

// inspect valida las marcas de ptr sin modificar nada.
func (h *Heap) inspect(ptr models.Addr) (block models.Addr, size uint64, kind models.Kind, err error) {
	if ptr%models.WordSize != 0 || ptr < h.arena.Base()+models.UserOffset {
		return 0, 0, 0, fmt.Errorf("%w: %v no es un puntero del heap", models.ErrCorruptFree, ptr)
	}
	block = ptr - models.UserOffset
	if !h.arena.Contains(block, models.MarkSize) {
		return 0, 0, 0, fmt.Errorf("%w: %v no es un puntero del heap", models.ErrCorruptFree, ptr)
	}

	size = h.arena.ReadWord(block)
	magic := h.arena.ReadWord(block + models.WordSize)
	kind = models.Kind(magic & 3)
	if kind > models.KindLarge || magic != magicFor(block, kind) {
		return 0, 0, 0, fmt.Errorf("%w: cabecera inválida en %v", models.ErrCorruptFree, ptr)
	}
	if size < models.MarkSize || size%models.WordSize != 0 || !h.arena.Contains(block, size) {
		return 0, 0, 0, fmt.Errorf("%w: tamaño %d inválido en %v", models.ErrCorruptFree, size, ptr)
	}
	trailer := block + models.Addr(size) - models.UserOffset
	if h.arena.ReadWord(trailer) != magic || h.arena.ReadWord(trailer+models.WordSize) != size {
		return 0, 0, 0, fmt.Errorf("%w: trailer inválido en %v", models.ErrCorruptFree, ptr)
	}
	return block, size, kind, nil
}
