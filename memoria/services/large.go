package services

import "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"

func (h *Heap) allocLarge(size uint64) (models.Addr, error) {
	marked := markedSize(size)
	block, err := h.pages.Alloc(marked)
	if err != nil {
		return 0, err
	}
	return h.mark(block, marked, models.KindLarge), nil
}
