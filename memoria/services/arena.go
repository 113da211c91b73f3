package services

import (
	"encoding/binary"
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// Arena es la memoria física simulada del heap: un bloque contiguo de bytes que empieza en una dirección
// base distinta de cero, de modo que la dirección 0 nunca es válida.
type Arena struct {
	base models.Addr
	mem  []byte
}

func NewArena(base models.Addr, size uint64) *Arena {
	return &Arena{base: base, mem: make([]byte, size)}
}

func (a *Arena) Base() models.Addr { return a.base }
func (a *Arena) End() models.Addr { return a.base + models.Addr(len(a.mem)) }
func (a *Arena) Size() uint64 { return uint64(len(a.mem)) }

// Contains indica si [addr, addr+n) cae completamente dentro de la arena.
func (a *Arena) Contains(addr models.Addr, n uint64) bool {
	if addr < a.base || addr > a.End() {
		return false
	}
	return uint64(a.End()-addr) >= n
}

func (a *Arena) offset(addr models.Addr, n uint64) uint64 {
	if !a.Contains(addr, n) {
		panic(fmt.Errorf("%w: acceso a %v (+%d) fuera de [%v, %v)", models.ErrInvalidAddress, addr, n, a.base, a.End()))
	}
	return uint64(addr - a.base)
}

func (a *Arena) ReadWord(addr models.Addr) uint64 {
	off := a.offset(addr, models.WordSize)
	return binary.LittleEndian.Uint64(a.mem[off:])
}

func (a *Arena) WriteWord(addr models.Addr, value uint64) {
	off := a.offset(addr, models.WordSize)
	binary.LittleEndian.PutUint64(a.mem[off:], value)
}

// Bytes devuelve una vista (no una copia) de n bytes a partir de addr.
func (a *Arena) Bytes(addr models.Addr, n uint64) []byte {
	off := a.offset(addr, n)
	return a.mem[off : off+n : off+n]
}

func (a *Arena) Zero(addr models.Addr, n uint64) {
	clear(a.Bytes(addr, n))
}
