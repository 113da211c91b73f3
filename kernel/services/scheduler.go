package services

import (
	"fmt"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

/* ---------- Anillos de prioridad ----------> */

// ringInsert pone p antes de la cabeza del anillo de su prioridad y lo deja como cabeza.
func (k *Kernel) ringInsert(p *models.Process) {
	if !p.State().Schedulable() {
		models.Invariant("ringInsert", "el proceso %d está en %s", p.Pid, p.State())
	}
	link := p.Sched()
	head := k.rings[p.Priority]
	if head == nil {
		link.Prev, link.Next = p, p
	} else {
		headLink := head.Sched()
		link.Next = head
		link.Prev = headLink.Prev
		headLink.Prev.Sched().Next = p
		headLink.Prev = p
	}
	k.rings[p.Priority] = p
}

// ringRemove saca p de su anillo y devuelve el que queda como siguiente, nil si el anillo quedó vacío.
func (k *Kernel) ringRemove(p *models.Process) *models.Process {
	if !p.State().Schedulable() {
		models.Invariant("ringRemove", "el proceso %d está en %s", p.Pid, p.State())
	}
	link := p.Sched()
	if link.Next == nil {
		models.Invariant("ringRemove", "el proceso %d no está en ningún anillo", p.Pid)
	}

	var next *models.Process
	if link.Next == p {
		k.rings[p.Priority] = nil
	} else {
		next = link.Next
		link.Prev.Sched().Next = link.Next
		link.Next.Sched().Prev = link.Prev
		if k.rings[p.Priority] == p {
			k.rings[p.Priority] = next
		}
	}
	link.Prev, link.Next = nil, nil
	return next
}

// ringFind devuelve la cabeza del primer anillo no vacío por debajo de maxPriority. idle siempre está en
// el anillo 0, así que no encontrar nada es una falla.
func (k *Kernel) ringFind(maxPriority int) *models.Process {
	for priority := maxPriority - 1; priority >= 0; priority-- {
		if head := k.rings[priority]; head != nil {
			return head
		}
	}
	models.Invariant("ringFind", "no hay procesos planificables por debajo de %d", maxPriority)
	return nil
}

/* ---------- Despacho ----------> */

// advance elige el próximo proceso y le cede la CPU. Sin sugerencia rota dentro de la prioridad del
// activo; si el activo ya no es planificable busca el anillo más alto por debajo de su prioridad. Vuelve
// cuando alguien despacha de nuevo al proceso que llamó.
func (k *Kernel) advance(next *models.Process) {
	prev := k.active
	if next == nil && prev.State().Schedulable() {
		next = prev.Sched().Next
	}
	if next == nil {
		next = k.ringFind(prev.Priority)
	}
	if !next.State().Schedulable() {
		models.Invariant("advance", "el proceso %d está en %s", next.Pid, next.State())
	}

	if next == prev {
		k.setState(next, models.StateSchedActive)
		return
	}
	if prev.State() == models.StateSchedActive {
		k.setState(prev, models.StateSchedAvailable)
	}
	k.setState(next, models.StateSchedActive)
	k.active = next

	if prev.State() == models.StateZombie {
		k.cpu.SwitchAndExit(prev.Context, next.Context)
		return
	}
	k.cpu.Switch(prev.Context, next.Context)
}

// schedSetPriority cambia la prioridad de un proceso planificable y decide si hay que replanificar.
func (k *Kernel) schedSetPriority(p *models.Process, priority int) {
	previous := p.Priority
	next := k.ringRemove(p)
	p.Priority = priority
	k.ringInsert(p)

	if priority < previous {
		if p != k.active {
			return
		}
		if next == nil {
			next = k.ringFind(previous)
			if next == p {
				return
			}
		}
	} else {
		if p == k.active || priority <= k.active.Priority {
			return
		}
		next = p
	}

	k.log.Debug(fmt.Sprintf("## (%d) Cambio de prioridad %d -> %d, replanifica hacia (%d)", p.Pid, previous, priority, next.Pid))
	k.advance(next)
}

// onTick es el manejador del reloj: despierta a los que vencieron y después desaloja o rota.
func (k *Kernel) onTick() {
	woken := k.timeWake(k.timer.Now())
	if woken != nil && woken.Priority > k.active.Priority {
		k.advance(woken)
		return
	}
	k.advance(nil)
}
