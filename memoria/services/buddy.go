package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

func (h *Heap) levelFor(marked uint64) uint {
	return max(ceilLog2(marked), h.cfg.MediumMinExponent)
}

func (h *Heap) allocMedium(size uint64) (models.Addr, error) {
	marked := markedSize(size)
	level := h.levelFor(marked)
	if level >= models.FreeListLevels {
		return 0, fmt.Errorf("%w: %d bytes", models.ErrOutOfMemory, size)
	}
	block, err := h.takeBlock(level)
	if err != nil {
		return 0, err
	}
	return h.mark(block, marked, models.KindMedium), nil
}

// takeBlock busca el nivel libre más cercano por encima de level, parte hasta llegar a level y lo saca
// de la lista. Si hay que ir a buscar páginas se pide al nivel de crecimiento actual.
func (h *Heap) takeBlock(level uint) (models.Addr, error) {
	j := level
	for h.freeLists[j] == 0 {
		if j >= h.cfg.MediumFirstExponent+h.mediumGrowth {
			refilled, err := h.refillMedium(j, level)
			if err != nil {
				return 0, err
			}
			j = refilled
			break
		}
		j++
		if j >= models.FreeListLevels {
			return 0, fmt.Errorf("buddy: %w", models.ErrOutOfMemory)
		}
	}

	for ; j > level; j-- {
		h.split(j)
	}
	return h.pop(level), nil
}

// refillMedium pide 2^(level+1) bytes de páginas y guarda el bloque alineado a 2^level. Si no entra,
// reintenta con el nivel mínimo pedido. Devuelve el nivel donde quedó el bloque nuevo.
func (h *Heap) refillMedium(level, minimum uint) (uint, error) {
	if err := h.addRegion(level); err == nil {
		h.mediumGrowth = level - h.cfg.MediumFirstExponent + 1
		return level, nil
	} else if level == minimum {
		return 0, fmt.Errorf("buddy: %w", err)
	}
	if err := h.addRegion(minimum); err != nil {
		return 0, fmt.Errorf("buddy: %w", err)
	}
	return minimum, nil
}

func (h *Heap) addRegion(level uint) error {
	size := uint64(1) << level
	raw, err := h.pages.Alloc(2 * size)
	if err != nil {
		return err
	}
	aligned := (uint64(raw) + size - 1) &^ (size - 1)
	h.push(level, models.Addr(aligned))
	h.log.Debug(fmt.Sprintf("Buddy: nueva región de 2^%d en %#x", level, aligned))
	return nil
}

func (h *Heap) split(level uint) {
	block := h.pop(level)
	half := models.Addr(1) << (level - 1)
	h.push(level-1, block+half)
	h.push(level-1, block)
}

func (h *Heap) freeMedium(block models.Addr, marked uint64) {
	level := h.levelFor(marked)
	for level < models.FreeListLevels-1 {
		buddy := block ^ (models.Addr(1) << level)
		if !h.remove(level, buddy) {
			break
		}
		block = min(block, buddy)
		level++
	}
	h.push(level, block)
}

func (h *Heap) push(level uint, block models.Addr) {
	h.arena.WriteWord(block, uint64(h.freeLists[level]))
	h.freeLists[level] = block
}

func (h *Heap) pop(level uint) models.Addr {
	block := h.freeLists[level]
	h.freeLists[level] = models.Addr(h.arena.ReadWord(block))
	return block
}

func (h *Heap) remove(level uint, target models.Addr) bool {
	prev := models.Addr(0)
	for cur := h.freeLists[level]; cur != 0; cur = models.Addr(h.arena.ReadWord(cur)) {
		if cur == target {
			next := h.arena.ReadWord(cur)
			if prev == 0 {
				h.freeLists[level] = models.Addr(next)
			} else {
				h.arena.WriteWord(prev, next)
			}
			return true
		}
		prev = cur
	}
	return false
}

// FreeBlocks cuenta los bloques libres de 2^level bytes.
func (h *Heap) FreeBlocks(level uint) int {
	if level >= models.FreeListLevels {
		return 0
	}
	n := 0
	for b := h.freeLists[level]; b != 0; b = models.Addr(h.arena.ReadWord(b)) {
		n++
	}
	return n
}
