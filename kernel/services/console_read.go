package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

// consoleRead lee de la consola. Si no hay datos el activo se bloquea hasta que el driver avise y lo vuelve
// a intentar.
func (k *Kernel) consoleRead(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		n, blocked := k.console.TryRead(buf, k.consoleWake)
		if !blocked {
			return n, nil
		}

		self := k.active
		if self == k.idle {
			return 0, models.ErrIdleCannotBlock
		}
		next := k.ringRemove(self)
		k.setState(self, models.StateWaitConsoleRead)
		self.WaitConsole().Next = k.consoleHead
		k.consoleHead = self
		k.log.Debug(fmt.Sprintf("## (%d) Espera entrada de consola", self.Pid))
		k.advance(next)
	}
}

// consoleWake es el callback que el driver invoca desde la interrupción de teclado: despierta a todos.
func (k *Kernel) consoleWake() {
	var highest *models.Process
	for p := k.consoleHead; p != nil; {
		following := p.WaitConsole().Next
		if highest == nil || highest.Priority < p.Priority {
			highest = p
		}
		k.setState(p, models.StateSchedAvailable)
		k.ringInsert(p)
		p = following
	}
	k.consoleHead = nil

	if highest != nil && highest.Priority > k.active.Priority {
		k.advance(highest)
	}
}

func (k *Kernel) consoleRemove(p *models.Process) {
	for link := &k.consoleHead; *link != nil; link = &(*link).WaitConsole().Next {
		if *link == p {
			*link = p.WaitConsole().Next
			return
		}
	}
	models.Invariant("consoleRemove", "el proceso %d no espera la consola", p.Pid)
}
