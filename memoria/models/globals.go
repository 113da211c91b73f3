package models

import "fmt"

// Addr es una dirección física simulada dentro del heap del núcleo.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("%#08x", uint64(a))
}

// Kind identifica la clase de una reserva; viaja en los dos bits bajos de la marca.
type Kind uint64

const (
	KindSmall Kind = iota
	KindMedium
	KindLarge
)

func (k Kind) String() string {
	switch k {
	case KindSmall:
		return "SMALL"
	case KindMedium:
		return "MEDIUM"
	case KindLarge:
		return "LARGE"
	default:
		return fmt.Sprintf("KIND(%d)", uint64(k))
	}
}

const (
	WordSize = 8

	// Dirección física donde arranca el heap del núcleo.
	HeapBase Addr = 0x00400000

	// Cabecera [tamaño, magia] + trailer [magia, tamaño].
	MarkSize   = 4 * WordSize
	UserOffset = 2 * WordSize

	// Cantidad de listas libres del buddy: una por exponente.
	FreeListLevels = 48

	// Multiplicador del hash de la dirección usado en las marcas.
	MagicFactor = 4294967279
)
