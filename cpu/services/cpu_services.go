package services

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

// CPU simula el único procesador. Cada contexto corre en su propia goroutine pero sólo una tiene la CPU:
// Switch le pasa el testigo al siguiente y estaciona al anterior hasta que alguien lo vuelva a despachar.
type CPU struct {
	mem  Memory
	text *Text
	line *InterruptLine
	log  *slog.Logger

	startup memModels.Addr
	exit    memModels.Addr

	haltOnce sync.Once
	halted   chan struct{}
	err      error
}

func NewCPU(mem Memory, logger *slog.Logger) *CPU {
	c := &CPU{
		mem:    mem,
		text:   NewText(),
		line:   NewInterruptLine(),
		log:    logger,
		halted: make(chan struct{}),
	}
	c.startup = c.text.Install("process_context_startup", nil)
	c.exit = c.text.Install("process_implicit_exit", nil)
	return c
}

func (c *CPU) Line() *InterruptLine { return c.line }

// StartupAddress es la dirección a la que "vuelve" el primer switch de un contexto nuevo.
func (c *CPU) StartupAddress() memModels.Addr { return c.startup }

// ExitAddress es la dirección de retorno del punto de entrada de usuario.
func (c *CPU) ExitAddress() memModels.Addr { return c.exit }

func (c *CPU) Install(name string, fn func()) memModels.Addr { return c.text.Install(name, fn) }

func (c *CPU) Uninstall(addr memModels.Addr) { c.text.Uninstall(addr) }

// Switch guarda prev y restaura next. Con prev nil (arranque) no hay a quién estacionar.
func (c *CPU) Switch(prev, next *models.Context) {
	c.dispatch(next)
	if prev == nil {
		return
	}
	if run := <-prev.Resume; !run {
		runtime.Goexit()
	}
}

// SwitchAndExit despacha next y termina la goroutine actual; se usa cuando prev ya es zombie.
func (c *CPU) SwitchAndExit(prev, next *models.Context) {
	if prev != nil {
		prev.Dead = true
	}
	c.dispatch(next)
	runtime.Goexit()
}

// Terminate desarma la goroutine estacionada de un contexto que nunca va a volver a correr.
func (c *CPU) Terminate(ctx *models.Context) {
	if ctx.Dead {
		return
	}
	ctx.Dead = true
	if ctx.Started {
		ctx.Resume <- false
	}
}

func (c *CPU) dispatch(next *models.Context) {
	if next.Started {
		next.Resume <- true
		return
	}

	frame := ReadFrame(c.mem, next.SP)
	if frame.Return != c.startup || frame.Exit != c.exit {
		panic(fmt.Errorf("marco inicial inválido para %s: retorno %v, salida %v", next.Name, frame.Return, frame.Exit))
	}
	name, fn, ok := c.text.Lookup(frame.Entry)
	if !ok || fn == nil {
		panic(fmt.Errorf("marco inicial inválido para %s: no hay código en %v", next.Name, frame.Entry))
	}

	next.Started = true
	c.log.Debug(fmt.Sprintf("Primer despacho de %s en %v (%s)", next.Name, frame.Entry, name))
	go fn()
}

// Halt detiene la CPU. El primer error registrado es el que se reporta.
func (c *CPU) Halt(err error) {
	c.haltOnce.Do(func() {
		c.err = err
		close(c.halted)
	})
}

func (c *CPU) Halted() <-chan struct{} { return c.halted }

// Err devuelve el motivo de la detención, nil si fue un apagado normal.
func (c *CPU) Err() error {
	select {
	case <-c.halted:
		return c.err
	default:
		return nil
	}
}
