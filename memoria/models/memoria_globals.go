package models

import "errors"

// Config describe el heap del núcleo. Los exponentes y umbrales pueden ajustarse pero deben respetar
// SmallMax < LargeMin.
type Config struct {
	HeapSize            uint64 `json:"heap_size" yaml:"heap_size"`
	PageSize            uint64 `json:"page_size" yaml:"page_size"`
	SmallMax            uint64 `json:"small_max" yaml:"small_max"`
	LargeMin            uint64 `json:"large_min" yaml:"large_min"`
	MediumMinExponent   uint   `json:"medium_min_exponent" yaml:"medium_min_exponent"`
	MediumFirstExponent uint   `json:"medium_first_exponent" yaml:"medium_first_exponent"`
	LogLevel            string `json:"log_level" yaml:"log_level"`
}

// DefaultConfig replica los valores con los que se compila el núcleo original.
func DefaultConfig() Config {
	return Config{
		HeapSize:            16 << 20,
		PageSize:            4096,
		SmallMax:            64,
		LargeMin:            1 << 17,
		MediumMinExponent:   7,
		MediumFirstExponent: 17,
		LogLevel:            "INFO",
	}
}

func (c Config) Validate() error {
	switch {
	case c.PageSize == 0 || c.PageSize&(c.PageSize-1) != 0:
		return errors.New("page_size debe ser potencia de dos")
	case c.HeapSize < 4*c.PageSize:
		return errors.New("heap_size demasiado chico")
	case c.SmallMax == 0 || c.SmallMax >= c.LargeMin:
		return errors.New("small_max debe ser menor que large_min")
	case c.SmallMax%WordSize != 0:
		return errors.New("small_max debe ser múltiplo de la palabra")
	case c.MediumFirstExponent >= FreeListLevels || c.MediumMinExponent > c.MediumFirstExponent:
		return errors.New("exponentes del buddy fuera de rango")
	}
	return nil
}

// MemoryInfo es el resumen de ocupación que expone el syscall de información de memoria.
type MemoryInfo struct {
	PageSize      uint64 `json:"page_size"`
	CapacityPages uint64 `json:"capacity_pages"`
	UsedPages     uint64 `json:"used_pages"`
	Capacity      string `json:"capacity"`
	Used          string `json:"used"`
	Percent       string `json:"percent"`
}

var (
	ErrOutOfMemory    = errors.New("memoria insuficiente")
	ErrInvalidSize    = errors.New("tamaño inválido")
	ErrInvalidAddress = errors.New("dirección inválida")
	ErrCorruptFree    = errors.New("marcas de la reserva corruptas")
)
