package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

// timeAdd encola p en la lista de espera por reloj, ordenada por tick objetivo. Ante objetivos iguales el
// nuevo queda primero.
func (k *Kernel) timeAdd(p *models.Process) {
	target := p.WaitTime().Target
	link := &k.timeHead
	for *link != nil && (*link).WaitTime().Target < target {
		link = &(*link).WaitTime().Next
	}
	p.WaitTime().Next = *link
	*link = p
}

func (k *Kernel) timeRemove(p *models.Process) {
	for link := &k.timeHead; *link != nil; link = &(*link).WaitTime().Next {
		if *link == p {
			*link = p.WaitTime().Next
			p.WaitTime().Next = nil
			return
		}
	}
	models.Invariant("timeRemove", "el proceso %d no está en la lista de reloj", p.Pid)
}

// timeWake despierta a todos los que llegaron a su tick objetivo y devuelve el de mayor prioridad (el
// primero de la lista ante empates).
func (k *Kernel) timeWake(now uint32) *models.Process {
	var highest *models.Process
	for k.timeHead != nil && k.timeHead.WaitTime().Target <= now {
		p := k.timeHead
		k.timeHead = p.WaitTime().Next

		if highest == nil || highest.Priority < p.Priority {
			highest = p
		}
		k.setState(p, models.StateSchedAvailable)
		k.ringInsert(p)
	}
	return highest
}

// waitClock bloquea al activo hasta el tick target. Un objetivo ya vencido es un yield.
func (k *Kernel) waitClock(target uint32) error {
	if target <= k.timer.Now() {
		k.advance(nil)
		return nil
	}
	self := k.active
	if self == k.idle {
		return models.ErrIdleCannotBlock
	}

	next := k.ringRemove(self)
	k.setState(self, models.StateWaitTime)
	self.WaitTime().Target = target
	k.timeAdd(self)
	k.log.Debug(fmt.Sprintf("## (%d) Espera hasta el tick %d", self.Pid, target))
	k.advance(next)
	return nil
}
