package services

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

// Catalog asocia nombres de programa con sus puntos de entrada.
type Catalog map[string]Entry

func (c Catalog) Lookup(name string) (Entry, error) {
	entry, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, models.ErrUnknownProgram)
	}
	return entry, nil
}

// Names devuelve los programas ordenados.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// lookup devuelve el proceso vivo (no zombie) con ese pid.
func (k *Kernel) lookup(pid int) (*models.Process, error) {
	p, ok := k.procs[pid]
	if !ok || p.State() == models.StateZombie {
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrNoSuchProcess)
	}
	return p, nil
}

// lookupAny incluye zombies.
func (k *Kernel) lookupAny(pid int) (*models.Process, error) {
	p, ok := k.procs[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrNoSuchProcess)
	}
	return p, nil
}

func (k *Kernel) processInfo(p *models.Process) models.ProcessInfo {
	info := models.ProcessInfo{
		Pid:       p.Pid,
		Name:      p.Name,
		Priority:  p.Priority,
		State:     p.State().String(),
		ParentPid: -1,
		Children:  []int{},
		Stack:     humanize.IBytes(p.KernelStackSize + p.UserStackSize),
	}
	if p.Parent != nil {
		info.ParentPid = p.Parent.Pid
	}
	for c := range p.Children {
		info.Children = append(info.Children, c.Pid)
	}
	switch p.State() {
	case models.StateZombie:
		code := p.Zombie().Code
		info.ExitCode = &code
	case models.StateWaitChild:
		info.WaitingOn = fmt.Sprintf("hijo %d", p.WaitChild().Filter)
	case models.StateWaitTime:
		info.WaitingOn = fmt.Sprintf("tick %d", p.WaitTime().Target)
	case models.StateWaitQueue:
		info.WaitingOn = fmt.Sprintf("cola %d", p.WaitQueue().Queue.Id)
	case models.StateWaitConsoleRead:
		info.WaitingOn = "consola"
	}
	return info
}

func (k *Kernel) snapshot() models.Snapshot {
	snap := models.Snapshot{
		Clock:     k.timer.Now(),
		ActivePid: k.active.Pid,
		Pids:      models.PoolUsage{InUse: k.pids.InUse(), Capacity: k.pids.Capacity()},
		QueueIds:  models.PoolUsage{InUse: k.qids.InUse(), Capacity: k.qids.Capacity()},
	}

	pids := make([]int, 0, len(k.procs))
	for pid := range k.procs {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	for _, pid := range pids {
		snap.Processes = append(snap.Processes, k.processInfo(k.procs[pid]))
	}

	qids := make([]int, 0, len(k.queues))
	for qid := range k.queues {
		qids = append(qids, qid)
	}
	slices.Sort(qids)
	for _, qid := range qids {
		snap.Queues = append(snap.Queues, k.queueInfo(k.queues[qid]))
	}
	return snap
}
