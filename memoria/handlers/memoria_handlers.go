package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/server"
)

// MemoryInfoSource obtiene el estado del heap desde quien sea su dueño.
type MemoryInfoSource func(ctx context.Context) (models.MemoryInfo, error)

// MemoryInfoHandler expone la ocupación del heap del núcleo.
func MemoryInfoHandler(source MemoryInfoSource) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := source(r.Context())
		if err != nil {
			slog.Error(fmt.Sprintf("No se pudo obtener la información de memoria: %v", err))
			server.SendError(w, r, http.StatusServiceUnavailable, err)
			return
		}
		server.SendJsonResponse(w, info)
	}
}
