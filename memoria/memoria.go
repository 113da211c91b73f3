package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	memoryHandler "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/handlers"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/services"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/config"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/handlers"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/server"
)

const ConfigPath = "memoria/configs/memoria.yaml"

// El módulo de memoria corre solo como banco de pruebas del heap: arma un heap con la configuración,
// le aplica la carga sintética y publica el resultado.
func main() {
	path := ConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg := models.ToolConfig{Memory: models.DefaultConfig(), Workload: models.DefaultWorkload()}
	config.InitConfig(path, &cfg)
	logger := log.InitLogger(cfg.LogPath, cfg.LogLevel, "text")

	heap, err := services.NewHeap(models.HeapBase, cfg.Memory, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("Configuración de memoria inválida: %v", err))
		os.Exit(1)
	}

	stats, err := services.RunWorkload(heap, cfg.Workload)
	if err != nil {
		logger.Error(fmt.Sprintf("La carga sobre el heap falló: %v", err))
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("## Carga terminada: %d reservas, %d fallidas, pico %s (%d páginas)",
		stats.Allocs, stats.Failures, stats.PeakUsed, stats.PeakPages), "por_clase", stats.PerKind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := server.NewRouter(logger)
	router.Get("/", handlers.HandshakeHandler("Bienvenido al módulo de Memoria"))
	router.Get("/memoria", memoryHandler.MemoryInfoHandler(func(context.Context) (models.MemoryInfo, error) {
		return services.BuildMemoryInfo(heap.Pages()), nil
	}))
	router.Get("/memoria/carga", func(w http.ResponseWriter, r *http.Request) {
		server.SendJsonResponse(w, stats)
	})

	slog.Info(fmt.Sprintf("Memoria lista en el puerto %d", cfg.PortMemory))
	if err := server.InitServer(ctx, cfg.PortMemory, router); err != nil {
		slog.Error(fmt.Sprintf("error initializing server: %v", err))
		os.Exit(1)
	}
}
