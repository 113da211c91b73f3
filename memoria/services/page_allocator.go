package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// PageAllocator reparte páginas de la arena usando un bitmap de un bit por página. El bitmap vive en las
// primeras páginas de la propia arena (páginas meta), que quedan reservadas para siempre.
type PageAllocator struct {
	arena     *Arena
	pageSize  uint64
	pages     uint64
	metaPages uint64
	used      uint64
	log       *slog.Logger
}

// NewPageAllocator inicializa el bitmap sobre la arena. La base de la arena debe estar alineada a página.
func NewPageAllocator(arena *Arena, pageSize uint64, logger *slog.Logger) (*PageAllocator, error) {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		return nil, fmt.Errorf("%w: tamaño de página %d", models.ErrInvalidSize, pageSize)
	}
	if uint64(arena.Base())%pageSize != 0 {
		return nil, fmt.Errorf("%w: base %v no alineada a página", models.ErrInvalidAddress, arena.Base())
	}

	pages := arena.Size() / pageSize
	bitsPerPage := 8 * pageSize
	meta := (pages + bitsPerPage - 1) / bitsPerPage
	if meta >= pages {
		return nil, fmt.Errorf("%w: la arena no alcanza para el bitmap", models.ErrOutOfMemory)
	}

	p := &PageAllocator{arena: arena, pageSize: pageSize, pages: pages, metaPages: meta, log: logger}
	arena.Zero(arena.Base(), meta*pageSize)
	for n := uint64(0); n < meta; n++ {
		p.set(n)
	}

	logger.Debug(fmt.Sprintf("Heap de páginas inicializado: %d páginas de %d bytes, %d para el bitmap", pages, pageSize, meta))
	return p, nil
}

func (p *PageAllocator) byteFor(n uint64) *byte {
	return &p.arena.Bytes(p.arena.Base()+models.Addr(n/8), 1)[0]
}

func (p *PageAllocator) isSet(n uint64) bool { return *p.byteFor(n)&(1<<(n%8)) != 0 }
func (p *PageAllocator) set(n uint64) { *p.byteFor(n) |= 1 << (n % 8) }
func (p *PageAllocator) unset(n uint64) { *p.byteFor(n) &^= 1 << (n % 8) }

func (p *PageAllocator) address(n uint64) models.Addr {
	return p.arena.Base() + models.Addr(n*p.pageSize)
}

// Alloc busca, primero-que-entra, la primera corrida de páginas libres que cubra size bytes.
func (p *PageAllocator) Alloc(size uint64) (models.Addr, error) {
	if size == 0 {
		return 0, models.ErrInvalidSize
	}
	count := (size-1)/p.pageSize + 1
	if count > p.pages-p.metaPages {
		return 0, fmt.Errorf("%w: se pidieron %d páginas", models.ErrOutOfMemory, count)
	}

	run := uint64(0)
	for n := p.metaPages; n < p.pages; n++ {
		if p.isSet(n) {
			run = 0
			continue
		}
		run++
		if run == count {
			first := n + 1 - count
			for i := first; i <= n; i++ {
				p.set(i)
			}
			p.used += count
			return p.address(first), nil
		}
	}
	return 0, fmt.Errorf("%w: no hay %d páginas contiguas libres", models.ErrOutOfMemory, count)
}

// Free libera las páginas de [addr, addr+size). El tamaño debe ser el mismo que se pidió al reservar.
func (p *PageAllocator) Free(addr models.Addr, size uint64) error {
	if size == 0 {
		return models.ErrInvalidSize
	}
	if !p.arena.Contains(addr, size) || uint64(addr-p.arena.Base())%p.pageSize != 0 {
		return fmt.Errorf("%w: %v", models.ErrInvalidAddress, addr)
	}
	first := uint64(addr-p.arena.Base()) / p.pageSize
	count := (size-1)/p.pageSize + 1
	if first < p.metaPages {
		return fmt.Errorf("%w: %v pertenece al bitmap", models.ErrInvalidAddress, addr)
	}
	for n := first; n < first+count; n++ {
		if !p.isSet(n) {
			return fmt.Errorf("%w: la página %d ya estaba libre", models.ErrInvalidAddress, n)
		}
	}
	for n := first; n < first+count; n++ {
		p.unset(n)
	}
	p.used -= count
	return nil
}

// Used devuelve las páginas reservadas, sin contar las del bitmap.
func (p *PageAllocator) Used() uint64 { return p.used }

// Capacity devuelve las páginas que se pueden reservar.
func (p *PageAllocator) Capacity() uint64 { return p.pages - p.metaPages }

func (p *PageAllocator) PageSize() uint64 { return p.pageSize }

func (p *PageAllocator) Arena() *Arena { return p.arena }
