package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/services"
	ioModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
	ioServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/services"
	kernelHandlers "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/handlers"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/programs"
	kernelServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/services"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	memServices "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/config"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/tracing"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/server"
)

const (
	ConfigPath = "kernel/configs/kernel.yaml"
	Version    = "1.0.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig parte de los valores por defecto y pisa lo que traiga el archivo.
func loadConfig(path string) (models.Config, error) {
	cfg := models.DefaultConfig()
	if path != "" {
		if err := config.LoadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("error al configurar el archivo %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// bootKernel arma la máquina (heap, CPU, reloj, consola y teclado), levanta el API y le da la CPU a idle.
// Vuelve cuando el núcleo se apaga.
func bootKernel(ctx context.Context, cfg models.Config) error {
	logger := log.InitLogger(cfg.LogPath, cfg.LogLevel, cfg.LogFormat)

	if cfg.TraceFile != "" {
		if err := tracing.Init("kernel", Version, cfg.TraceFile); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo iniciar el tracing: %v", err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracing.Shutdown(shutdownCtx)
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	heap, err := memServices.NewHeap(memModels.HeapBase, cfg.Memory, logger)
	if err != nil {
		return fmt.Errorf("no se pudo crear el heap: %w", err)
	}
	cpu := services.NewCPU(heap.Arena(), logger)
	timer := ioServices.NewPIT(cfg.Devices.TickHz)
	console := ioServices.NewConsole(os.Stdout, cfg.Devices.ConsoleEcho, logger)

	keyboard, closer, err := ioServices.OpenKeyboard(cfg.Devices, os.Stdin)
	if err != nil {
		return err
	}
	defer closer.Close()
	if keyboard != nil {
		go func() {
			if err := ioServices.RunKeyboard(ctx, keyboard, console, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn(fmt.Sprintf("El teclado dejó de responder: %v", err))
			}
			// En modo terminal Ctrl-C no llega como señal: Ctrl-D apaga.
			if cfg.Devices.Keyboard == ioModels.KeyboardTTY {
				stop()
			}
		}()
	}

	k := kernelServices.NewKernel(cfg, heap, kernelServices.Devices{CPU: cpu, Timer: timer, Console: console},
		programs.Catalog(), logger)
	gateway := kernelServices.NewGateway(k, logger)

	router := server.NewRouter(logger)
	kernelHandlers.Routes(router, gateway, console)

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	go func() {
		if err := server.InitServer(serverCtx, cfg.PortKernel, router); err != nil {
			logger.Error(fmt.Sprintf("error initializing server: %v", err))
			stop()
		}
	}()

	logger.Info(fmt.Sprintf("## Kernel escuchando en %s:%d", cfg.IpKernel, cfg.PortKernel))
	err = k.Boot(ctx, func(p *kernelServices.Proc) {
		startBootPrograms(p, gateway, cfg, logger)
	})
	if err != nil {
		logger.Error(fmt.Sprintf("## El núcleo se detuvo por una falla: %v", err))
		return err
	}
	logger.Info("## Sistema apagado")
	return nil
}

// startBootPrograms corre dentro de idle: lanza el gateway y los programas de la configuración.
func startBootPrograms(p *kernelServices.Proc, gateway *kernelServices.Gateway, cfg models.Config, logger *slog.Logger) {
	if _, err := gateway.Start(p, cfg.GatewayPriority); err != nil {
		logger.Error(fmt.Sprintf("No se pudo lanzar el gateway: %v", err))
		p.PowerOff()
	}

	for _, program := range cfg.Programs {
		entry, err := p.Catalog().Lookup(program.Program)
		if err != nil {
			logger.Warn(fmt.Sprintf("Programa de arranque ignorado: %v", err))
			continue
		}
		name := program.Name
		if name == "" {
			name = program.Program
		}
		pid, err := p.Start(entry, program.Arg, program.StackSize, program.Priority, name)
		if err != nil {
			logger.Warn(fmt.Sprintf("No se pudo lanzar %s: %v", name, err))
			continue
		}
		logger.Debug(fmt.Sprintf("## (%d) Programa de arranque %s", pid, name))
	}
}
