package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	cpuModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	cpuServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	memServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/pool"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/tracing"
)

// Processor es la CPU tal como la ve el núcleo.
type Processor interface {
	Install(name string, fn func()) memModels.Addr
	Uninstall(addr memModels.Addr)
	StartupAddress() memModels.Addr
	ExitAddress() memModels.Addr
	Switch(prev, next *cpuModels.Context)
	SwitchAndExit(prev, next *cpuModels.Context)
	Terminate(ctx *cpuModels.Context)
	Halt(err error)
	Halted() <-chan struct{}
	Err() error
	Line() *cpuServices.InterruptLine
}

// Timer es el reloj que genera la interrupción periódica.
type Timer interface {
	Start(raise func())
	Stop()
	Now() uint32
	Settings() (quartz, ticks uint32)
	Idle()
}

// Console es el driver de consola.
type Console interface {
	Attach(raise func())
	TryRead(buf []byte, wake func()) (n int, blocked bool)
	HandleInterrupt()
	Write(p []byte) (int, error)
	SetEcho(on bool)
}

type Devices struct {
	CPU     Processor
	Timer   Timer
	Console Console
}

// Kernel es el dueño de todo el estado del núcleo. Sólo lo toca la goroutine del proceso activo (la que
// tiene la CPU), así que no hay locks: el testigo de la CPU cumple el papel de enmascarar interrupciones.
type Kernel struct {
	cfg     models.Config
	log     *slog.Logger
	heap    *memServices.Heap
	cpu     Processor
	timer   Timer
	console Console
	catalog Catalog

	rings  [models.MaxPriority]*models.Process
	active *models.Process
	idle   *models.Process

	procs map[int]*models.Process
	pids  *pool.IDPool

	timeHead    *models.Process
	consoleHead *models.Process

	queues map[int]*models.Queue
	qids   *pool.IDPool

	ctx      context.Context
	stopping atomic.Bool
	halted   atomic.Bool
}

func NewKernel(cfg models.Config, heap *memServices.Heap, devices Devices, catalog Catalog, logger *slog.Logger) *Kernel {
	return &Kernel{
		cfg:     cfg,
		log:     logger.With("component", "kernel"),
		heap:    heap,
		cpu:     devices.CPU,
		timer:   devices.Timer,
		console: devices.Console,
		catalog: catalog,
		procs:   make(map[int]*models.Process),
		pids:    pool.NewIDPool(models.ProcessPoolCapacity),
		queues:  make(map[int]*models.Queue),
		qids:    pool.NewIDPool(models.QueuePoolCapacity),
		ctx:     context.Background(),
	}
}

// Boot crea idle (pid 0), conecta los dispositivos y le da la CPU. idle ejecuta boot y después se queda
// deteniendo la CPU hasta la próxima interrupción. Boot vuelve cuando el sistema se apaga: nil si fue un
// apagado pedido (PowerOff o ctx cancelado), el error de invariante si el núcleo se detuvo por una falla.
func (k *Kernel) Boot(ctx context.Context, boot func(p *Proc)) error {
	k.ctx = ctx

	idle, err := k.create(nil, func(p *Proc, _ any) int {
		if boot != nil {
			boot(p)
		}
		for {
			_ = p.Halt()
		}
	}, nil, models.DefaultStackSize, models.IdlePriority, models.IdleName)
	if err != nil {
		return fmt.Errorf("no se pudo crear idle: %w", err)
	}
	if idle.Pid != models.IdlePid {
		return fmt.Errorf("idle recibió el pid %d", idle.Pid)
	}
	k.idle = idle
	k.setState(idle, models.StateSchedActive)
	k.active = idle

	line := k.cpu.Line()
	k.timer.Start(func() { line.Raise(cpuModels.IRQTimer) })
	k.console.Attach(func() { line.Raise(cpuModels.IRQKeyboard) })

	stop := context.AfterFunc(ctx, func() {
		k.stopping.Store(true)
		line.Raise(cpuModels.IRQTimer)
	})
	defer stop()

	k.log.Info("## Núcleo iniciado", "heap", k.cfg.Memory.HeapSize, "prioridades", models.MaxPriority)
	k.cpu.Switch(nil, idle.Context)

	<-k.cpu.Halted()
	k.timer.Stop()
	for _, p := range k.procs {
		if p.State() != models.StateZombie {
			tracing.EndSpan(p.Span, nil)
		}
		k.cpu.Terminate(p.Context)
	}

	if err := k.cpu.Err(); err != nil {
		k.log.Error(fmt.Sprintf("## Núcleo detenido por una falla: %v", err))
		return err
	}
	k.log.Info("## Núcleo apagado")
	return nil
}

// powerOff detiene la CPU y termina la goroutine que la tenía. err nil es un apagado normal.
func (k *Kernel) powerOff(err error) {
	k.halted.Store(true)
	k.cpu.Halt(err)
	runtime.Goexit()
}

// fail convierte un panic del núcleo en la detención del sistema.
func (k *Kernel) fail(r any) {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	var inv *models.InvariantError
	if !errors.As(err, &inv) {
		err = &models.InvariantError{Op: "kernel", Msg: err.Error()}
	}
	k.log.Error(fmt.Sprintf("## Falla del núcleo: %v", err))
	k.powerOff(err)
}

// serviceInterrupts atiende las líneas pendientes en el contexto del proceso activo.
func (k *Kernel) serviceInterrupts() {
	if k.stopping.Load() {
		k.powerOff(nil)
	}
	pending := k.cpu.Line().Pending()
	if pending&(1<<cpuModels.IRQKeyboard) != 0 {
		k.console.HandleInterrupt()
	}
	if pending&(1<<cpuModels.IRQTimer) != 0 {
		k.onTick()
	}
}

func (k *Kernel) setState(p *models.Process, to models.State) {
	from := p.Transition(to)
	if from != to {
		k.log.Debug(fmt.Sprintf("## (%d) Pasa del estado %s al estado %s", p.Pid, from, to))
	}
}
