package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/tracing"
)

// RequestIdHeader es el header donde viaja el id de cada request.
const RequestIdHeader = "X-Request-Id"

type requestIdKey struct{}

// NewRouter arma el router base de cada módulo: id de request, recuperación de panics, log y un span
// por request.
func NewRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestId)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	return r
}

// RequestId devuelve el id asignado a la request en curso.
func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

func requestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		id := request.Header.Get(RequestIdHeader)
		if id == "" {
			id = "req_" + uuid.New().String()[:8]
		}
		writer.Header().Set(RequestIdHeader, id)
		ctx := context.WithValue(request.Context(), requestIdKey{}, id)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)

			ctx, span := tracing.StartSpan(request.Context(), request.Method+" "+request.URL.Path, "SERVER")
			span.WithAttributes(map[string]string{"request_id": RequestId(ctx)})

			next.ServeHTTP(ww, request.WithContext(ctx))

			span.SetStatusFromHTTPCode(ww.Status())
			tracing.EndSpan(span, nil)
			logger.Debug("request atendida",
				"metodo", request.Method,
				"ruta", request.URL.Path,
				"status", ww.Status(),
				"duracion", time.Since(start),
				"request_id", RequestId(ctx),
			)
		})
	}
}

// InitServer inicializa el servidor, en caso de no poder levantarlo retorna un error. Se detiene
// ordenadamente cuando ctx se cancela.
//
// Parámetros:
//   - ctx: contexto que controla la vida del servidor
//   - port: puerto donde se iniciará el servidor
//   - handler: router con los endpoints del módulo
//
// Ejemplo:
//
//	func main() {
//		router := server.NewRouter(slog.Default())
//		err := server.InitServer(ctx, 8001, router)
//		if err != nil {
//			slog.Error(fmt.Sprintf("error initializing server: %v", err))
//		}
//	}
func InitServer(ctx context.Context, port int, handler http.Handler) error {
	addr := ":" + strconv.Itoa(port)
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error al escuchar en el puerto %s: %w", addr, err)
	}
	return nil
}

// SendJsonResponse retorna la respues del servidor en formato JSON con status 200.
//
// Parámetros:
//   - writer: el http.ResponseWriter con el que se escribe la respuesta HTTP
//   - data: cualquier estructura de datos que querés enviar al cliente, se convierte automáticamente a JSON.
func SendJsonResponse(writer http.ResponseWriter, data interface{}) {
	SendJsonStatus(writer, http.StatusOK, data)
}

// SendJsonStatus es SendJsonResponse con un status a elección.
func SendJsonStatus(writer http.ResponseWriter, status int, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(writer, "Error al convertir datos a JSON", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(response)
}

// ErrorResponse es el cuerpo de toda respuesta de error.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestId string `json:"request_id,omitempty"`
}

// SendError responde un error en JSON.
func SendError(writer http.ResponseWriter, request *http.Request, status int, err error) {
	SendJsonStatus(writer, status, ErrorResponse{Error: err.Error(), RequestId: RequestId(request.Context())})
}
