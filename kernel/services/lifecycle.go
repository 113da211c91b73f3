package services

import (
	"fmt"
	"runtime"
	"unicode/utf8"

	cpuModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	cpuServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/list"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/tracing"
)

// Entry es el cuerpo de un proceso. Su valor de retorno es el código de salida.
type Entry func(p *Proc, arg any) int

// create arma un proceso nuevo como primer hijo de parent y lo deja listo en su anillo. Si algo falla no
// queda nada registrado.
func (k *Kernel) create(parent *models.Process, entry Entry, arg any, stackSize uint64, priority int, name string) (*models.Process, error) {
	if priority < 0 || priority >= models.MaxPriority {
		return nil, fmt.Errorf("crear %q con prioridad %d: %w", name, priority, models.ErrInvalidPriority)
	}
	if entry == nil {
		return nil, fmt.Errorf("crear %q sin punto de entrada: %w", name, models.ErrInvalidArgument)
	}
	if stackSize == 0 {
		stackSize = models.DefaultStackSize
	}
	stackSize = (stackSize + memModels.WordSize - 1) &^ (memModels.WordSize - 1)
	name = boundName(name)

	pid, ok := k.pids.Get()
	if !ok {
		return nil, models.ErrNoFreePid
	}

	p := models.NewProcess(pid, name, priority)
	var allocated []memModels.Addr
	alloc := func(size uint64) (memModels.Addr, error) {
		addr, err := k.heap.Alloc(size)
		if err == nil {
			allocated = append(allocated, addr)
		}
		return addr, err
	}
	var err error
	if p.Record, err = alloc(models.RecordSize); err == nil {
		p.KernelStackSize = models.KernelStackSize + models.StackSlack
		if p.KernelStack, err = alloc(p.KernelStackSize); err == nil {
			p.UserStackSize = stackSize + models.StackSlack
			p.UserStack, err = alloc(p.UserStackSize)
		}
	}
	if err != nil {
		for _, addr := range allocated {
			k.release(addr)
		}
		if err := k.pids.Release(pid); err != nil {
			models.Invariant("create", "%v", err)
		}
		return nil, fmt.Errorf("crear %q: %w", name, err)
	}
	k.writeRecord(p)

	p.Entry = k.cpu.Install(name, func() { k.run(p, entry, arg) })
	sp := cpuServices.BuildInitialFrame(k.heap.Arena(),
		p.KernelStack+memModels.Addr(p.KernelStackSize),
		p.UserStack+memModels.Addr(p.UserStackSize),
		k.cpu.StartupAddress(), p.Entry, k.cpu.ExitAddress(), uint64(pid))
	p.Context = cpuModels.NewContext(name, sp)

	k.procs[pid] = p
	if parent != nil {
		p.Parent = parent
		p.Sibling = parent.Child
		parent.Child = p
	}
	k.ringInsert(p)

	_, p.Span = tracing.StartSpan(k.ctx, "proceso "+name, "INTERNAL")
	p.Span.WithInt("pid", pid).WithInt("priority", priority)

	parentPid := -1
	if parent != nil {
		parentPid = parent.Pid
	}
	k.log.Info(fmt.Sprintf("## (%d) Se crea el proceso %s - Estado : %s", pid, name, p.State()),
		"prioridad", priority, "padre", parentPid)

	if k.active != nil && priority > k.active.Priority {
		k.advance(p)
	}
	return p, nil
}

func boundName(name string) string {
	if len(name) < models.NameCapacity {
		return name
	}
	name = name[:models.NameCapacity-1]
	for !utf8.ValidString(name) {
		name = name[:len(name)-1]
	}
	return name
}

// writeRecord deja el pid y el nombre en el registro del proceso dentro del heap.
func (k *Kernel) writeRecord(p *models.Process) {
	arena := k.heap.Arena()
	arena.WriteWord(p.Record, uint64(p.Pid))
	buf := arena.Bytes(p.Record+memModels.WordSize, models.NameCapacity)
	n := copy(buf, p.Name)
	clear(buf[n:])
}

// run es el trampolín de cada proceso: lo que la CPU ejecuta al despacharlo por primera vez.
func (k *Kernel) run(p *models.Process, entry Entry, arg any) {
	defer func() {
		if r := recover(); r != nil {
			k.fail(r)
		}
	}()
	code := k.runEntry(p, entry, arg)
	(&Proc{k: k, self: p}).Exit(code)
}

// runEntry ejecuta el cuerpo del proceso. Un panic del cuerpo es una falla del proceso (código -1); un
// panic de invariante sigue de largo y detiene el sistema.
func (k *Kernel) runEntry(p *models.Process, entry Entry, arg any) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if inv, ok := r.(*models.InvariantError); ok {
				panic(inv)
			}
			k.log.Error(fmt.Sprintf("## (%d) Falla del proceso %s: %v", p.Pid, p.Name, r))
			code = -1
		}
	}()
	return entry(&Proc{k: k, self: p}, arg)
}

/* ---------- Finalización ----------> */

// kill termina target y todo su subárbol. Con wakeParent despierta al padre si lo estaba esperando.
// Los descendientes se recorren con una pila explícita y se liberan en orden inverso, de las hojas hacia
// arriba; target queda zombie hasta que su padre lo espere.
func (k *Kernel) kill(target *models.Process, code int, wakeParent bool) {
	var candidate *models.Process
	if parent := target.Parent; wakeParent && parent != nil && parent.State() == models.StateWaitChild {
		if filter := parent.WaitChild().Filter; filter < 0 || filter == target.Pid {
			k.setState(parent, models.StateSchedAvailable)
			parent.Sched().Resume.Zombie = target
			k.ringInsert(parent)
			candidate = parent
		}
	}

	activeDied := false
	var next *models.Process
	doomed := &list.ArrayList[*models.Process]{}

	stack := &list.ArrayList[*models.Process]{}
	stack.Add(target)
	for stack.Size() > 0 {
		p, _ := stack.Pop()

		following := k.detach(p)
		if p == k.active {
			activeDied = true
			next = following
		}
		for c := p.Child; c != nil; c = c.Sibling {
			if c.State() == models.StateZombie {
				doomed.Add(c)
			} else {
				stack.Add(c)
			}
		}
		exit := 0
		if p == target {
			exit = code
		} else {
			doomed.Add(p)
		}
		k.zombify(p, exit)
	}

	for doomed.Size() > 0 {
		p, _ := doomed.Pop()
		k.free(p)
	}

	if activeDied {
		if candidate != nil && candidate.Priority > target.Priority {
			next = candidate
		}
		if next != nil && !next.State().Schedulable() {
			next = nil
		}
		if next == nil {
			next = k.ringFind(models.MaxPriority)
		}
		k.advance(next)
		return
	}
	if candidate != nil && candidate.Priority > k.active.Priority {
		k.advance(candidate)
	}
}

// detach saca a p de la estructura que corresponde a su estado. Si estaba en un anillo devuelve el
// siguiente de ese anillo.
func (k *Kernel) detach(p *models.Process) *models.Process {
	switch p.State() {
	case models.StateSchedActive, models.StateSchedAvailable:
		return k.ringRemove(p)
	case models.StateWaitTime:
		k.timeRemove(p)
	case models.StateWaitQueue:
		k.queueRemoveWaiter(p.WaitQueue().Queue, p)
	case models.StateWaitConsoleRead:
		k.consoleRemove(p)
	case models.StateWaitChild:
	default:
		models.Invariant("kill", "el proceso %d está en %s", p.Pid, p.State())
	}
	return nil
}

func (k *Kernel) zombify(p *models.Process, code int) {
	k.setState(p, models.StateZombie)
	p.Zombie().Code = code
	if p != k.active {
		k.cpu.Terminate(p.Context)
	}
	p.Span.WithInt("exit_code", code)
	tracing.EndSpan(p.Span, nil)
	k.log.Info(fmt.Sprintf("## (%d) Finaliza el proceso %s con código %d", p.Pid, p.Name, code))
}

// wait busca un hijo zombie que cumpla el filtro (negativo: cualquiera) y lo libera. Si no hay ninguno
// todavía, bloquea al activo hasta que kill lo despierte.
func (k *Kernel) wait(filter int) (int, int, error) {
	self := k.active
	if self.Child == nil {
		return -1, 0, models.ErrNoChildren
	}

	var child *models.Process
	for c := self.Child; c != nil; c = c.Sibling {
		if filter < 0 {
			if c.State() == models.StateZombie {
				child = c
				break
			}
		} else if c.Pid == filter {
			child = c
			break
		}
	}
	if filter >= 0 && child == nil {
		return -1, 0, fmt.Errorf("el pid %d no es hijo de %d: %w", filter, self.Pid, models.ErrNoSuchProcess)
	}

	if child == nil || child.State() != models.StateZombie {
		if self == k.idle {
			return -1, 0, models.ErrIdleCannotBlock
		}
		next := k.ringRemove(self)
		k.setState(self, models.StateWaitChild)
		self.WaitChild().Filter = filter
		k.advance(next)
		child = self.Sched().Resume.Zombie
	}

	pid, code := child.Pid, child.Zombie().Code
	k.free(child)
	return pid, code, nil
}

// free devuelve al heap y al pool todo lo que tenía un zombie.
func (k *Kernel) free(p *models.Process) {
	if p.State() != models.StateZombie {
		models.Invariant("free", "el proceso %d está en %s", p.Pid, p.State())
	}

	if parent := p.Parent; parent != nil {
		for link := &parent.Child; *link != nil; link = &(*link).Sibling {
			if *link == p {
				*link = p.Sibling
				break
			}
		}
	}
	for c := p.Child; c != nil; {
		following := c.Sibling
		c.Parent, c.Sibling = nil, nil
		c = following
	}
	p.Parent, p.Child, p.Sibling = nil, nil, nil

	if p != k.active {
		k.cpu.Terminate(p.Context)
	}
	k.cpu.Uninstall(p.Entry)
	k.release(p.UserStack)
	k.release(p.KernelStack)
	k.release(p.Record)

	delete(k.procs, p.Pid)
	if err := k.pids.Release(p.Pid); err != nil {
		models.Invariant("free", "%v", err)
	}
	k.log.Debug(fmt.Sprintf("## (%d) Se liberan los recursos del proceso", p.Pid))
}

// release libera memoria propia del núcleo; cualquier error es una corrupción.
func (k *Kernel) release(addr memModels.Addr) {
	if err := k.heap.Free(addr); err != nil {
		models.Invariant("kfree", "%v en %v", err, addr)
	}
}

// exitSelf termina al activo. No vuelve.
func (k *Kernel) exitSelf(code int) {
	if k.active == k.idle {
		models.Invariant("exit", "idle no puede terminar")
	}
	k.kill(k.active, code, true)
	runtime.Goexit()
}
