package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kernelModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/io/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/config"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/client"
)

const ConfigPath = "io/configs/io.yaml"

// Terminal remota: lo que se tipea acá llega a la consola del núcleo.
func main() {
	configPath := ConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	var cfg models.TerminalConfig
	config.InitConfig(configPath, &cfg)
	logger := log.InitLogger(cfg.LogPath, cfg.LogLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keyboard, closer, err := services.OpenKeyboard(cfg.Devices, os.Stdin)
	if err != nil {
		slog.Error(fmt.Sprintf("No se pudo abrir el teclado: %v", err))
		os.Exit(1)
	}
	defer closer.Close()
	if keyboard == nil {
		slog.Error("La terminal necesita un teclado (tty o stdin)")
		os.Exit(1)
	}

	send := func(ctx context.Context, line string) error {
		return client.DoJson(ctx, cfg.IpKernel, cfg.PortKernel, http.MethodPost, "kernel/consola",
			kernelModels.ConsoleRequest{Input: line}, nil)
	}

	logger.Debug(fmt.Sprintf("Terminal conectada a %s:%d", cfg.IpKernel, cfg.PortKernel))
	if err := services.RunTerminal(ctx, keyboard, os.Stdout, cfg.Devices.ConsoleEcho, send, logger); err != nil && ctx.Err() == nil {
		slog.Error(fmt.Sprintf("La terminal se cerró con error: %v", err))
		os.Exit(1)
	}
}
