package models

import (
	"errors"
	"fmt"

	ioModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

const (
	MaxPriority  = 256
	NameCapacity = 128

	ProcessPoolCapacity = 1024
	QueuePoolCapacity   = 256

	// Pila de núcleo de cada proceso. Las pilas llevan un margen extra para lo que se ejecute en contexto
	// de interrupción.
	KernelStackSize = 512
	StackSlack      = 256

	// Tamaño reservado en el heap para el registro de cada proceso y de cada cola.
	RecordSize = 256

	IdlePid      = 0
	IdleName     = "idle"
	IdlePriority = 0

	DefaultStackSize = 4096
)

type Config struct {
	PortKernel      int    `json:"port_kernel" yaml:"port_kernel"`
	IpKernel        string `json:"ip_kernel" yaml:"ip_kernel"`
	LogLevel        string `json:"log_level" yaml:"log_level"`
	LogFormat       string `json:"log_format" yaml:"log_format"`
	LogPath         string `json:"log_path" yaml:"log_path"`
	TraceFile       string `json:"trace_file" yaml:"trace_file"`
	GatewayPriority int    `json:"gateway_priority" yaml:"gateway_priority"`

	Memory  memModels.Config `json:"memory" yaml:"memory"`
	Devices ioModels.Config  `json:"devices" yaml:"devices"`

	Programs []BootProgram `json:"programs" yaml:"programs"`
}

// BootProgram es un programa que el núcleo lanza apenas arranca, como hijo de idle.
type BootProgram struct {
	Program   string `json:"program" yaml:"program"`
	Name      string `json:"name" yaml:"name"`
	Priority  int    `json:"priority" yaml:"priority"`
	StackSize uint64 `json:"stack_size" yaml:"stack_size"`
	Arg       string `json:"arg" yaml:"arg"`
}

func DefaultConfig() Config {
	return Config{
		PortKernel:      8001,
		IpKernel:        "127.0.0.1",
		LogLevel:        "INFO",
		LogFormat:       "text",
		LogPath:         "./logs/kernel.log",
		GatewayPriority: 200,
		Memory:          memModels.DefaultConfig(),
		Devices: ioModels.Config{
			TickHz:      ioModels.DefaultTickHz,
			Keyboard:    ioModels.KeyboardNone,
			ConsoleEcho: true,
		},
	}
}

func (c Config) Validate() error {
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	if c.GatewayPriority <= IdlePriority || c.GatewayPriority >= MaxPriority {
		return fmt.Errorf("gateway_priority %d: %w", c.GatewayPriority, ErrInvalidPriority)
	}
	for _, p := range c.Programs {
		if p.Priority < 0 || p.Priority >= MaxPriority {
			return fmt.Errorf("programa %s con prioridad %d: %w", p.Program, p.Priority, ErrInvalidPriority)
		}
	}
	return nil
}

var (
	ErrInvalidPriority  = errors.New("prioridad fuera de rango")
	ErrInvalidArgument  = errors.New("argumento inválido")
	ErrNoSuchProcess    = errors.New("no existe el proceso")
	ErrNoChildren       = errors.New("el proceso no tiene hijos")
	ErrNoFreePid        = errors.New("no quedan pids libres")
	ErrNoSuchQueue      = errors.New("no existe la cola")
	ErrNoFreeQueue      = errors.New("no quedan colas libres")
	ErrQueueReset       = errors.New("la cola fue reiniciada o eliminada")
	ErrIdleCannotBlock  = errors.New("idle no puede bloquearse")
	ErrNotIdle          = errors.New("sólo idle puede detener la CPU")
	ErrProtectedProcess = errors.New("proceso protegido")
	ErrUnknownProgram   = errors.New("programa desconocido")
	ErrKernelStopped    = errors.New("el núcleo está detenido")
	ErrRequestAborted   = errors.New("el pedido terminó sin respuesta")
)
