package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/web/server"
)

// HandshakeHandler se usa para chequear la conexión al servidor
//
// Parámetros:
//   - message: el mensaje que querés devolver en la respuesta
//
// Ejemplo:
//
//	func main() {
//		router := server.NewRouter(slog.Default())
//		router.Get("/", handlers.HandshakeHandler("Mensaje de ejemplo"))
//	}
func HandshakeHandler(message string) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		server.SendJsonResponse(writer, message)
	}
}
