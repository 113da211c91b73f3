// Package pool reparte identificadores enteros acotados: primero en orden creciente y, una vez
// alcanzada la capacidad, reutilizando el último liberado.
package pool

import "fmt"

// IDPool no es seguro para uso concurrente; su dueño serializa el acceso.
type IDPool struct {
	capacity int
	next     int
	free     []int
}

func NewIDPool(capacity int) *IDPool {
	return &IDPool{capacity: capacity}
}

// Get devuelve un identificador libre, o false si se agotaron.
func (p *IDPool) Get() (int, bool) {
	if p.next < p.capacity {
		id := p.next
		p.next++
		return id, true
	}
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id, true
	}
	return -1, false
}

// Release devuelve id al pool. Liberar un id que nunca se entregó es un error del llamador.
func (p *IDPool) Release(id int) error {
	if id < 0 || id >= p.next {
		return fmt.Errorf("id %d fuera del rango entregado [0, %d)", id, p.next)
	}
	p.free = append(p.free, id)
	return nil
}

// Available reporta si todavía se puede entregar un id.
func (p *IDPool) Available() bool {
	return p.next < p.capacity || len(p.free) > 0
}

// InUse cuenta los identificadores entregados y no liberados.
func (p *IDPool) InUse() int {
	return p.next - len(p.free)
}

func (p *IDPool) Capacity() int {
	return p.capacity
}
