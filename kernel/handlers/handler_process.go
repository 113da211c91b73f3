package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/services"
)

func ListProcessesHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			return p.Snapshot(), nil
		})
	}
}

func GetProcessHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		pid, err := pathInt(request, "pid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			return p.Info(pid)
		})
	}
}

// StartProcessHandler lanza un programa del catálogo como hijo del gateway.
func StartProcessHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		var body models.StartRequest
		if err := decode(request, &body); err != nil {
			sendKernelError(writer, request, err)
			return
		}
		if body.Name == "" {
			body.Name = body.Program
		}
		slog.Debug(fmt.Sprintf("Se pide iniciar %s (%s) con prioridad %d", body.Name, body.Program, body.Priority))

		run(writer, request, http.StatusCreated, gateway.Do, func(p *services.Proc) (any, error) {
			entry, err := p.Catalog().Lookup(body.Program)
			if err != nil {
				return nil, err
			}
			pid, err := p.Start(entry, body.Arg, body.StackSize, body.Priority, body.Name)
			if err != nil {
				return nil, err
			}
			return models.StartResponse{Pid: pid}, nil
		})
	}
}

func KillProcessHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		pid, err := pathInt(request, "pid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		var body models.KillRequest
		if request.ContentLength > 0 {
			if err := decode(request, &body); err != nil {
				sendKernelError(writer, request, err)
				return
			}
		}

		_, err = gateway.Do(request.Context(), func(p *services.Proc) (any, error) {
			if gateway.Protected(pid) {
				return nil, fmt.Errorf("pid %d es el gateway: %w", pid, models.ErrProtectedProcess)
			}
			return nil, p.Kill(pid, body.Code)
		})
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		slog.Info(fmt.Sprintf("## (%d) Finalizado desde el API", pid))
		writer.WriteHeader(http.StatusNoContent)
	}
}

func SetPriorityHandler(gateway Gateway) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		pid, err := pathInt(request, "pid")
		if err != nil {
			sendKernelError(writer, request, err)
			return
		}
		var body models.PriorityRequest
		if err := decode(request, &body); err != nil {
			sendKernelError(writer, request, err)
			return
		}

		run(writer, request, http.StatusOK, gateway.Do, func(p *services.Proc) (any, error) {
			previous, err := p.SetPriority(pid, body.Priority)
			if err != nil {
				return nil, err
			}
			return models.PriorityResponse{Previous: previous}, nil
		})
	}
}
