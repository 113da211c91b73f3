package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

var cliente = &http.Client{Timeout: 30 * time.Second}

// DoRequest es una función genérica para realizar peticiones HTTP (GET, POST, PUT, DELETE, etc.) desde un cliente.
// Retorna la respuesta del servidor. Si el status no es 2xx se devuelve la respuesta junto con un error.
//
// Parámetros:
//   - ctx: contexto de la petición
//   - ip: la IP o dominio del servidor
//   - port: el puerto al que se hará la petición
//   - metodo: metodo HTTP
//   - query: parte final de la URL
//   - bodies ...[]byte: (opcional) body del request (usado por ejemplo en un POST/PUT), puede pasarse vacío.
//
// Ejemplo:
//
//	func main() {
//		response, err := client.DoRequest(ctx, "127.0.0.1", 8001, "GET", "kernel/procesos")
//		if err != nil {
//			slog.Error(fmt.Sprintf("Ocurrió un error: %v", err))
//			return
//		}
//		defer response.Body.Close()
//	}
func DoRequest(ctx context.Context, ip string, port int, metodo string, query string, bodies ...[]byte) (*http.Response, error) {
	url := fmt.Sprintf("http://%s:%d/%s", ip, port, query)

	req, err := http.NewRequestWithContext(ctx, metodo, url, ifBody(bodies...))
	if err != nil {
		slog.Error(fmt.Sprintf("error creando request a ip: %s puerto: %d", ip, port))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	respuesta, err := cliente.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error enviando request a ip: %s puerto: %d - %w", ip, port, err)
	}

	if respuesta.StatusCode < 200 || respuesta.StatusCode > 299 {
		return respuesta, fmt.Errorf("Status Error: %d %s", respuesta.StatusCode, http.StatusText(respuesta.StatusCode))
	}
	return respuesta, nil
}

// DoJson envía body (si no es nil) serializado en JSON y decodifica la respuesta en out (si no es nil).
// Ante un status de error intenta extraer el campo "error" del cuerpo.
func DoJson(ctx context.Context, ip string, port int, metodo string, query string, body any, out any) error {
	var payload [][]byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = append(payload, raw)
	}

	respuesta, err := DoRequest(ctx, ip, port, metodo, query, payload...)
	if respuesta != nil {
		defer respuesta.Body.Close()
	}
	if err != nil {
		if respuesta != nil {
			var failure struct {
				Error string `json:"error"`
			}
			if json.NewDecoder(respuesta.Body).Decode(&failure) == nil && failure.Error != "" {
				return fmt.Errorf("%w: %s", err, failure.Error)
			}
		}
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(respuesta.Body).Decode(out)
}

func ifBody(bodies ...[]byte) io.Reader {
	if len(bodies) == 0 {
		return nil
	}
	return bytes.NewBuffer(bodies[0])
}
