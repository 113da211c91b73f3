package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/services"
	memHandlers "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/handlers"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/handlers"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/server"
)

// Gateway es la puerta por la que los handlers ejecutan operaciones dentro del núcleo.
type Gateway interface {
	Do(ctx context.Context, op services.Op) (any, error)
	DoBlocking(ctx context.Context, op services.Op) (any, error)
	Protected(pid int) bool
}

// Keyboard recibe lo que se tipea desde el API.
type Keyboard interface {
	Feed(s string)
}

// Routes registra los endpoints del núcleo.
//
// Parámetros:
//   - router: el router base de server.NewRouter
//   - gateway: el gateway del núcleo
//   - keyboard: la consola a la que se le inyecta texto
//
// Ejemplo:
//
//	func main() {
//		router := server.NewRouter(logger)
//		handlers.Routes(router, gateway, console)
//		server.InitServer(ctx, 8001, router)
//	}
func Routes(router chi.Router, gateway Gateway, keyboard Keyboard) {
	router.Get("/", handlers.HandshakeHandler("Bienvenido al módulo de Kernel"))
	router.Get("/kernel", StatusHandler(gateway))

	router.Route("/kernel/procesos", func(r chi.Router) {
		r.Get("/", ListProcessesHandler(gateway))
		r.Post("/", StartProcessHandler(gateway))
		r.Get("/{pid}", GetProcessHandler(gateway))
		r.Delete("/{pid}", KillProcessHandler(gateway))
		r.Put("/{pid}/prioridad", SetPriorityHandler(gateway))
	})

	router.Route("/kernel/colas", func(r chi.Router) {
		r.Get("/", ListQueuesHandler(gateway))
		r.Post("/", CreateQueueHandler(gateway))
		r.Get("/{qid}", GetQueueHandler(gateway))
		r.Delete("/{qid}", DeleteQueueHandler(gateway))
		r.Post("/{qid}/mensajes", SendMessageHandler(gateway))
		r.Get("/{qid}/mensajes", ReceiveMessageHandler(gateway))
		r.Post("/{qid}/reset", ResetQueueHandler(gateway))
	})

	router.Post("/kernel/consola", ConsoleInputHandler(keyboard))
	router.Get("/memoria", memHandlers.MemoryInfoHandler(memoryInfoSource(gateway)))
	router.Post("/kernel/apagar", PowerOffHandler(gateway))
}

// errorStatus traduce los errores del núcleo a códigos HTTP.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNoSuchProcess), errors.Is(err, models.ErrNoSuchQueue),
		errors.Is(err, models.ErrUnknownProgram):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidPriority), errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProtectedProcess):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNoChildren), errors.Is(err, models.ErrQueueReset),
		errors.Is(err, models.ErrRequestAborted):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoFreePid), errors.Is(err, models.ErrNoFreeQueue),
		errors.Is(err, memModels.ErrOutOfMemory):
		return http.StatusInsufficientStorage
	case errors.Is(err, models.ErrKernelStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sendKernelError(writer http.ResponseWriter, request *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(fmt.Sprintf("%s %s: %v", request.Method, request.URL.Path, err))
	} else {
		slog.Debug(fmt.Sprintf("%s %s: %v", request.Method, request.URL.Path, err))
	}
	server.SendError(writer, request, status, err)
}

func pathInt(request *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(request, name))
	if err != nil {
		return 0, fmt.Errorf("parámetro %s inválido: %w", name, models.ErrInvalidArgument)
	}
	return value, nil
}

func decode(request *http.Request, out any) error {
	if err := json.NewDecoder(request.Body).Decode(out); err != nil {
		return fmt.Errorf("cuerpo inválido: %v: %w", err, models.ErrInvalidArgument)
	}
	return nil
}

// run ejecuta op en el gateway y responde su resultado con status.
func run(writer http.ResponseWriter, request *http.Request, status int, do func(context.Context, services.Op) (any, error), op services.Op) {
	value, err := do(request.Context(), op)
	if err != nil {
		sendKernelError(writer, request, err)
		return
	}
	server.SendJsonStatus(writer, status, value)
}

func StatusHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			snap := p.Snapshot()
			return map[string]any{
				"message":    "Kernel en funcionamiento 🚀",
				"clock":      snap.Clock,
				"active_pid": snap.ActivePid,
				"processes":  len(snap.Processes),
				"queues":     len(snap.Queues),
				"pids":       snap.Pids,
				"queue_ids":  snap.QueueIds,
			}, nil
		})
	}
}

func memoryInfoSource(gateway Gateway) memHandlers.MemoryInfoSource {
	return func(ctx context.Context) (memModels.MemoryInfo, error) {
		value, err := gateway.Do(ctx, func(p *services.Proc) (any, error) {
			return p.MemoryInfo(), nil
		})
		if err != nil {
			return memModels.MemoryInfo{}, err
		}
		return value.(memModels.MemoryInfo), nil
	}
}

func ConsoleInputHandler(keyboard Keyboard) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body models.ConsoleRequest
		if err := decode(request, &body); err != nil {
			sendKernelError(writer, request, err)
			return
		}
		keyboard.Feed(body.Input)
		writer.WriteHeader(http.StatusNoContent)
	}
}

func PowerOffHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		slog.Info("## Se solicita apagar el sistema desde el API")
		// PowerOff no vuelve: el gateway muere con la CPU y la respuesta es ErrKernelStopped.
		_, err := gateway.Do(request.Context(), func(p *services.Proc) (any, error) {
			p.PowerOff()
			return nil, nil
		})
		if err != nil && !errors.Is(err, models.ErrKernelStopped) {
			sendKernelError(writer, request, err)
			return
		}
		writer.WriteHeader(http.StatusAccepted)
	}
}
