package services

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// BuildMemoryInfo arma el resumen legible de la ocupación de páginas.
func BuildMemoryInfo(pages *PageAllocator) models.MemoryInfo {
	capacity := pages.Capacity() * pages.PageSize()
	used := pages.Used() * pages.PageSize()
	percent := 0.0
	if capacity > 0 {
		percent = 100 * float64(used) / float64(capacity)
	}
	return models.MemoryInfo{
		PageSize:      pages.PageSize(),
		CapacityPages: pages.Capacity(),
		UsedPages:     pages.Used(),
		Capacity:      humanize.IBytes(capacity),
		Used:          humanize.IBytes(used),
		Percent:       fmt.Sprintf("%.1f%%", percent),
	}
}
