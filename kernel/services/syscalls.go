package services

import (
	"fmt"
	"runtime"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	memServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/services"
)

// Proc es la puerta de llamadas al sistema de un proceso. Cada método entra al núcleo: si el proceso fue
// terminado o el sistema se apagó no vuelve, y antes de la operación se atienden las interrupciones
// pendientes (lo que puede desalojar al proceso).
type Proc struct {
	k    *Kernel
	self *models.Process
}

func (p *Proc) enter() {
	k := p.k
	if k.halted.Load() || p.self.Context.Dead {
		runtime.Goexit()
	}
	if k.active != p.self {
		models.Invariant("syscall", "el proceso %d entró al núcleo sin tener la CPU (activo %d)", p.self.Pid, k.active.Pid)
	}
	k.serviceInterrupts()
}

func validPriority(priority int) error {
	if priority < 0 || priority >= models.MaxPriority {
		return fmt.Errorf("prioridad %d: %w", priority, models.ErrInvalidPriority)
	}
	return nil
}

/* ---------- Procesos ----------> */

func (p *Proc) Pid() int {
	p.enter()
	return p.self.Pid
}

// Start crea un proceso hijo. Si tiene más prioridad que el que llama, corre de inmediato.
func (p *Proc) Start(entry Entry, arg any, stackSize uint64, priority int, name string) (int, error) {
	p.enter()
	child, err := p.k.create(p.self, entry, arg, stackSize, priority, name)
	if err != nil {
		return -1, err
	}
	return child.Pid, nil
}

// Exit termina al proceso que llama. No vuelve.
func (p *Proc) Exit(code int) {
	p.enter()
	p.k.exitSelf(code)
}

// Kill termina a otro proceso y a todos sus descendientes. Matarse a sí mismo es Exit.
func (p *Proc) Kill(pid int, code int) error {
	p.enter()
	k := p.k
	if pid == models.IdlePid {
		return fmt.Errorf("pid %d: %w", pid, models.ErrProtectedProcess)
	}
	if pid == p.self.Pid {
		k.exitSelf(code)
	}
	target, err := k.lookup(pid)
	if err != nil {
		return err
	}
	k.kill(target, code, true)
	return nil
}

// Wait espera a un hijo (pid negativo: cualquiera) y devuelve su pid y código de salida.
func (p *Proc) Wait(pid int) (int, int, error) {
	p.enter()
	return p.k.wait(pid)
}

func (p *Proc) Priority(pid int) (int, error) {
	p.enter()
	target, err := p.k.lookupAny(pid)
	if err != nil {
		return -1, err
	}
	return target.Priority, nil
}

// SetPriority cambia la prioridad de un proceso y devuelve la anterior.
func (p *Proc) SetPriority(pid int, priority int) (int, error) {
	p.enter()
	k := p.k
	if err := validPriority(priority); err != nil {
		return -1, err
	}
	if pid == models.IdlePid {
		return -1, fmt.Errorf("pid %d: %w", pid, models.ErrProtectedProcess)
	}
	target, err := k.lookup(pid)
	if err != nil {
		return -1, err
	}

	previous := target.Priority
	if priority == previous {
		return previous, nil
	}
	switch target.State() {
	case models.StateSchedActive, models.StateSchedAvailable:
		k.schedSetPriority(target, priority)
	case models.StateWaitQueue:
		k.queueSetPriority(target, priority)
	default:
		target.Priority = priority
	}
	return previous, nil
}

func (p *Proc) Name(pid int) (string, error) {
	p.enter()
	target, err := p.k.lookupAny(pid)
	if err != nil {
		return "", err
	}
	return target.Name, nil
}

// Children devuelve los pids de los hijos, del más nuevo al más viejo.
func (p *Proc) Children(pid int) ([]int, error) {
	p.enter()
	target, err := p.k.lookupAny(pid)
	if err != nil {
		return nil, err
	}
	pids := []int{}
	for c := range target.Children {
		pids = append(pids, c.Pid)
	}
	return pids, nil
}

// State informa el estado de un proceso; el que llama siempre se ve a sí mismo activo.
func (p *Proc) State(pid int) (models.State, error) {
	p.enter()
	target, err := p.k.lookupAny(pid)
	if err != nil {
		return 0, err
	}
	return target.State(), nil
}

func (p *Proc) Info(pid int) (models.ProcessInfo, error) {
	p.enter()
	target, err := p.k.lookupAny(pid)
	if err != nil {
		return models.ProcessInfo{}, err
	}
	return p.k.processInfo(target), nil
}

func (p *Proc) Snapshot() models.Snapshot {
	p.enter()
	return p.k.snapshot()
}

/* ---------- Reloj ----------> */

// WaitClock bloquea hasta el tick target; con un tick ya vencido cede la CPU.
func (p *Proc) WaitClock(target uint32) error {
	p.enter()
	return p.k.waitClock(target)
}

// Sleep espera ticks a partir de ahora.
func (p *Proc) Sleep(ticks uint32) error {
	p.enter()
	return p.k.waitClock(p.k.timer.Now() + ticks)
}

// Yield cede la CPU a otro de la misma prioridad, si lo hay.
func (p *Proc) Yield() {
	p.enter()
	p.k.advance(nil)
}

func (p *Proc) Clock() uint32 {
	p.enter()
	return p.k.timer.Now()
}

func (p *Proc) ClockSettings() (quartz, ticks uint32) {
	p.enter()
	return p.k.timer.Settings()
}

/* ---------- Colas ----------> */

func (p *Proc) QueueCreate(capacity int) (int, error) {
	p.enter()
	return p.k.queueCreate(capacity)
}

func (p *Proc) QueueDelete(qid int) error {
	p.enter()
	return p.k.queueDelete(qid)
}

// QueueSend bloquea si la cola está llena.
func (p *Proc) QueueSend(qid int, message int) error {
	p.enter()
	return p.k.queueSend(qid, message)
}

// QueueReceive bloquea si la cola está vacía.
func (p *Proc) QueueReceive(qid int) (int, error) {
	p.enter()
	return p.k.queueReceive(qid)
}

func (p *Proc) QueueCount(qid int) (int, error) {
	p.enter()
	return p.k.queueCount(qid)
}

func (p *Proc) QueueReset(qid int) error {
	p.enter()
	return p.k.queueReset(qid)
}

func (p *Proc) QueueInfo(qid int) (models.QueueInfo, error) {
	p.enter()
	q, err := p.k.queueLookup(qid)
	if err != nil {
		return models.QueueInfo{}, err
	}
	return p.k.queueInfo(q), nil
}

/* ---------- Consola ----------> */

// ConsoleRead lee una línea (o hasta llenar buf) bloqueando si no hay nada tipeado.
func (p *Proc) ConsoleRead(buf []byte) (int, error) {
	p.enter()
	return p.k.consoleRead(buf)
}

func (p *Proc) ConsoleWrite(b []byte) (int, error) {
	p.enter()
	return p.k.console.Write(b)
}

func (p *Proc) ConsoleEcho(on bool) {
	p.enter()
	p.k.console.SetEcho(on)
}

/* ---------- Sistema ----------> */

func (p *Proc) MemoryInfo() memModels.MemoryInfo {
	p.enter()
	return memServices.BuildMemoryInfo(p.k.heap.Pages())
}

// Halt detiene la CPU hasta la próxima interrupción. Sólo idle puede hacerlo.
func (p *Proc) Halt() error {
	p.enter()
	k := p.k
	if p.self != k.idle {
		return models.ErrNotIdle
	}
	k.reapIdle()
	k.timer.Idle()
	if err := k.cpu.Line().Wait(k.ctx); err != nil {
		k.powerOff(nil)
	}
	k.serviceInterrupts()
	return nil
}

// PowerOff apaga el sistema. No vuelve.
func (p *Proc) PowerOff() {
	p.enter()
	p.k.log.Info(fmt.Sprintf("## (%d) Solicita apagar el sistema", p.self.Pid))
	p.k.powerOff(nil)
}

// Catalog devuelve los programas que se pueden lanzar por nombre.
func (p *Proc) Catalog() Catalog {
	return p.k.catalog
}

// reapIdle libera los hijos zombie de idle, que nunca puede bloquearse esperándolos.
func (k *Kernel) reapIdle() {
	for c := k.idle.Child; c != nil; {
		following := c.Sibling
		if c.State() == models.StateZombie {
			k.free(c)
		}
		c = following
	}
}
