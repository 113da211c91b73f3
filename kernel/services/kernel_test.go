package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cpuModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	cpuServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/services"
	ioServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	memServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
)

/* ---------- CPU que sólo registra ----------> */

// recordingCPU no corre nada: anota cada cambio de contexto. Sirve para probar el planificador sin
// goroutines, siempre que ningún proceso tenga que volver de un bloqueo.
type recordingCPU struct {
	text       memModels.Addr
	line       *cpuServices.InterruptLine
	halted     chan struct{}
	once       sync.Once
	switches   []string
	terminated []string
}

func newRecordingCPU() *recordingCPU {
	return &recordingCPU{text: 0x100000, line: cpuServices.NewInterruptLine(), halted: make(chan struct{})}
}

func (c *recordingCPU) Install(string, func()) memModels.Addr {
	c.text += cpuModels.TextStride
	return c.text
}

func (c *recordingCPU) Uninstall(memModels.Addr)         {}
func (c *recordingCPU) StartupAddress() memModels.Addr   { return 0x1000 }
func (c *recordingCPU) ExitAddress() memModels.Addr      { return 0x1010 }
func (c *recordingCPU) Halted() <-chan struct{}          { return c.halted }
func (c *recordingCPU) Err() error                       { return nil }
func (c *recordingCPU) Line() *cpuServices.InterruptLine { return c.line }

func (c *recordingCPU) Switch(prev, next *cpuModels.Context) {
	c.switches = append(c.switches, prev.Name+"->"+next.Name)
}

func (c *recordingCPU) SwitchAndExit(prev, next *cpuModels.Context) {
	c.switches = append(c.switches, prev.Name+"=>"+next.Name)
}

func (c *recordingCPU) Terminate(ctx *cpuModels.Context) {
	c.terminated = append(c.terminated, ctx.Name)
}

func (c *recordingCPU) Halt(error) {
	c.once.Do(func() { close(c.halted) })
}

func nop(*Proc, any) int { return 0 }

// newSchedKernel arma un núcleo con idle activo y la CPU que registra.
func newSchedKernel(t *testing.T) (*Kernel, *recordingCPU, *ioServices.ManualTimer) {
	t.Helper()
	heap, err := memServices.NewHeap(memModels.HeapBase, memModels.DefaultConfig(), log.Discard())
	require.NoError(t, err)

	cpu := newRecordingCPU()
	timer := ioServices.NewManualTimer()
	console := ioServices.NewConsole(io.Discard, false, log.Discard())
	k := NewKernel(models.DefaultConfig(), heap, Devices{CPU: cpu, Timer: timer, Console: console}, nil, log.Discard())

	idle, err := k.create(nil, nop, nil, 0, models.IdlePriority, models.IdleName)
	require.NoError(t, err)
	k.idle = idle
	k.setState(idle, models.StateSchedActive)
	k.active = idle
	return k, cpu, timer
}

func spawn(t *testing.T, k *Kernel, name string, priority int) *models.Process {
	t.Helper()
	p, err := k.create(k.active, nop, nil, 0, priority, name)
	require.NoError(t, err)
	return p
}

// ringOrder recorre el anillo de una prioridad desde su cabeza.
func ringOrder(k *Kernel, priority int) []string {
	var names []string
	head := k.rings[priority]
	if head == nil {
		return names
	}
	p := head
	for {
		names = append(names, p.Name)
		p = p.Sched().Next
		if p == head {
			return names
		}
	}
}

/* ---------- Máquina completa ----------> */

// machine es un núcleo con la CPU real y reloj manual: el tiempo sólo avanza cuando todos los procesos
// están bloqueados e idle detiene la CPU.
type machine struct {
	k       *Kernel
	heap    *memServices.Heap
	timer   *ioServices.ManualTimer
	console *ioServices.Console
	out     *bytes.Buffer
}

func newMachine(t *testing.T, catalog Catalog) *machine {
	t.Helper()
	heap, err := memServices.NewHeap(memModels.HeapBase, memModels.DefaultConfig(), log.Discard())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	m := &machine{
		heap:    heap,
		timer:   ioServices.NewManualTimer(),
		console: ioServices.NewConsole(out, false, log.Discard()),
		out:     out,
	}
	cpu := cpuServices.NewCPU(heap.Arena(), log.Discard())
	m.k = NewKernel(models.DefaultConfig(), heap, Devices{CPU: cpu, Timer: m.timer, Console: m.console}, catalog, log.Discard())
	return m
}

// run arranca el núcleo con main como hijo de idle y apaga cuando main termina. Dentro de los procesos
// sólo se usa assert: require cortaría la goroutine del proceso, no la del test.
func (m *machine) run(t *testing.T, priority int, main Entry) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return m.k.Boot(ctx, func(p *Proc) {
		_, err := p.Start(func(p *Proc, arg any) int {
			code := main(p, arg)
			p.PowerOff()
			return code
		}, nil, 0, priority, "main")
		assert.NoError(t, err)
	})
}

// recorder junta eventos de varios procesos. Sólo corre uno a la vez, pero el lock deja tranquilo al
// detector de carreras cuando el test lee al final.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

/* ---------- Boot ----------> */

func TestBoot_IdleIsPidZeroAndPowerOffReturnsNil(t *testing.T) {
	m := newMachine(t, nil)
	var idlePid, mainPid int
	var idleState models.State

	err := m.k.Boot(context.Background(), func(p *Proc) {
		idlePid = p.Pid()
		idleState, _ = p.State(idlePid)
		// Con la misma prioridad que idle no hay desalojo: Start vuelve y main corre en el próximo tick.
		mainPid, _ = p.Start(func(p *Proc, _ any) int {
			p.PowerOff()
			return 0
		}, nil, 0, models.IdlePriority, "main")
	})

	require.NoError(t, err)
	assert.Equal(t, models.IdlePid, idlePid)
	assert.Equal(t, models.StateSchedActive, idleState)
	assert.Equal(t, 1, mainPid)
}

func TestBoot_ContextCancelPowersOff(t *testing.T) {
	m := newMachine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.k.Boot(ctx, func(p *Proc) {
		_, _ = p.Start(func(p *Proc, _ any) int {
			cancel()
			// El próximo ingreso al núcleo atiende el apagado.
			_ = p.Sleep(1)
			return 0
		}, nil, 0, 1, "main")
	})
	assert.NoError(t, err)
}

func TestBoot_InvariantViolationHaltsWithError(t *testing.T) {
	m := newMachine(t, nil)

	err := m.run(t, 5, func(p *Proc, _ any) int {
		models.Invariant("test", "estado imposible")
		return 0
	})

	var inv *models.InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "test", inv.Op)
}

func TestProcessPanicExitsWithMinusOne(t *testing.T) {
	m := newMachine(t, nil)
	var code int
	var waitErr error

	err := m.run(t, 5, func(p *Proc, _ any) int {
		_, _ = p.Start(func(*Proc, any) int { panic("boom") }, nil, 0, 1, "faulty")
		_, code, waitErr = p.Wait(-1)
		return 0
	})

	require.NoError(t, err)
	require.NoError(t, waitErr)
	assert.Equal(t, -1, code)
}
