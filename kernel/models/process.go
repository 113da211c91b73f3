package models

import (
	"fmt"

	cpuModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/tracing"
)

/* ---------- Estados del proceso ----------> */

type State int

const (
	StateSchedActive State = iota
	StateSchedAvailable
	StateWaitChild
	StateWaitTime
	StateWaitQueue
	StateWaitConsoleRead
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateSchedActive:
		return "EXEC"
	case StateSchedAvailable:
		return "READY"
	case StateWaitChild:
		return "WAIT_CHILD"
	case StateWaitTime:
		return "WAIT_TIME"
	case StateWaitQueue:
		return "WAIT_QUEUE"
	case StateWaitConsoleRead:
		return "WAIT_CONSOLE"
	case StateZombie:
		return "ZOMBIE"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// Schedulable indica si el proceso pertenece a un anillo del planificador.
func (s State) Schedulable() bool {
	return s == StateSchedActive || s == StateSchedAvailable
}

/* ---------- Enlaces por estado ----------> */

// Cada estado tiene su propio enlace. El proceso guarda uno solo a la vez, así que un enlace viejo no puede
// quedar colgado de una lista cuando el proceso cambia de estado.

// SchedLink es el enlace del anillo de prioridad. Resume trae lo que dejó quien despertó al proceso.
type SchedLink struct {
	Prev   *Process
	Next   *Process
	Resume Resume
}

type Resume struct {
	Zombie     *Process
	QueueReset bool
	Message    int
}

type WaitChildLink struct {
	Filter int
}

type WaitTimeLink struct {
	Target uint32
	Next   *Process
}

type WaitQueueLink struct {
	Queue   *Queue
	Prev    *Process
	Next    *Process
	Message int
}

type WaitConsoleLink struct {
	Next *Process
}

type ZombieLink struct {
	Code int
}

/* ---------- Proceso ----------> */

// Process es el registro de un proceso. Las relaciones de árbol (padre, primer hijo, hermano) viven fuera
// del enlace de estado porque persisten mientras el proceso está bloqueado o es zombie.
type Process struct {
	Pid      int
	Name     string
	Priority int

	state State
	link  any

	Parent  *Process
	Child   *Process
	Sibling *Process

	Context         *cpuModels.Context
	Record          memModels.Addr
	KernelStack     memModels.Addr
	KernelStackSize uint64
	UserStack       memModels.Addr
	UserStackSize   uint64
	Entry           memModels.Addr

	Span *tracing.Span
}

// NewProcess arma un proceso listo, sin enlazar.
func NewProcess(pid int, name string, priority int) *Process {
	return &Process{Pid: pid, Name: name, Priority: priority, state: StateSchedAvailable, link: &SchedLink{}}
}

func (p *Process) State() State { return p.state }

// Transition cambia el estado y reemplaza el enlace. Entre los dos estados planificables se conserva el
// enlace del anillo.
func (p *Process) Transition(to State) State {
	from := p.state
	p.state = to
	if from.Schedulable() && to.Schedulable() {
		return from
	}
	switch to {
	case StateSchedActive, StateSchedAvailable:
		p.link = &SchedLink{}
	case StateWaitChild:
		p.link = &WaitChildLink{}
	case StateWaitTime:
		p.link = &WaitTimeLink{}
	case StateWaitQueue:
		p.link = &WaitQueueLink{}
	case StateWaitConsoleRead:
		p.link = &WaitConsoleLink{}
	case StateZombie:
		p.link = &ZombieLink{}
	default:
		Invariant("Transition", "estado desconocido %v para el proceso %d", to, p.Pid)
	}
	return from
}

func linkAs[T any](p *Process, want string) T {
	l, ok := p.link.(T)
	if !ok {
		Invariant("link", "el proceso %d (%s) no tiene enlace %s", p.Pid, p.state, want)
	}
	return l
}

func (p *Process) Sched() *SchedLink { return linkAs[*SchedLink](p, "sched") }

func (p *Process) WaitChild() *WaitChildLink { return linkAs[*WaitChildLink](p, "wait_child") }

func (p *Process) WaitTime() *WaitTimeLink { return linkAs[*WaitTimeLink](p, "wait_time") }

func (p *Process) WaitQueue() *WaitQueueLink { return linkAs[*WaitQueueLink](p, "wait_queue") }

func (p *Process) WaitConsole() *WaitConsoleLink { return linkAs[*WaitConsoleLink](p, "wait_console") }

func (p *Process) Zombie() *ZombieLink { return linkAs[*ZombieLink](p, "zombie") }

// Children recorre la lista de hijos, del más nuevo al más viejo.
func (p *Process) Children(yield func(*Process) bool) {
	for c := p.Child; c != nil; c = c.Sibling {
		if !yield(c) {
			return
		}
	}
}

/* ---------- Invariantes ----------> */

// InvariantError es un error de lógica del núcleo. No se devuelve: se lanza con panic y detiene el sistema.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariante violada en %s: %s", e.Op, e.Msg)
}

func Invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
