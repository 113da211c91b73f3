package services

import (
	"sync"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// Text es la tabla de código de la CPU: asocia direcciones simuladas a rutinas Go.
type Text struct {
	mu       sync.Mutex
	next     memModels.Addr
	routines map[memModels.Addr]routine
}

type routine struct {
	name string
	fn   func()
}

func NewText() *Text {
	return &Text{next: models.TextBase, routines: make(map[memModels.Addr]routine)}
}

func (t *Text) Install(name string, fn func()) memModels.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	addr := t.next
	t.next += models.TextStride
	t.routines[addr] = routine{name: name, fn: fn}
	return addr
}

func (t *Text) Uninstall(addr memModels.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.routines, addr)
}

func (t *Text) Lookup(addr memModels.Addr) (string, func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.routines[addr]
	return r.name, r.fn, ok
}

func (t *Text) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.routines)
}
