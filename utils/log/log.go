package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InitLogger permite loguear tanto en consola como en archivo según el nivel que se le pase, y lo deja
// configurado como logger por defecto de slog.
//
// Parámetros:
//   - logPath: la ubicación donde se va encontrar el archivo. Si está vacío solo se loguea por consola.
//   - logLevel: nivel de logueo, este dato viene definido en el archivo de config.
//   - format: "text" o "json".
//
// Ejemplo:
//
//	func main() {
//		logger := log.InitLogger("./logs/kernel.log", "INFO", "text")
//		logger.Info("arrancó")
//	}
func InitLogger(logPath string, logLevel string, format string) *slog.Logger {
	var writer io.Writer = os.Stdout

	if logPath != "" {
		//Creamos el archivo "modulo".log en modo escritura, si ocurre algún error finalizamos con panic.
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			panic(err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
		if err != nil {
			panic(err)
		}
		writer = io.MultiWriter(os.Stdout, logFile)
	}

	level, err := convertStringToLogLevel(logLevel)
	logger := NewLogger(writer, level, format)
	slog.SetDefault(logger)

	// Escribimos en el log el warning que obtenemos por no setear el logLevel
	if err != nil {
		logger.Warn(err.Error())
	}

	logger.Debug("Se ha configurado correctamente el logger y el archivo de configuración. ")
	return logger
}

// NewLogger arma un logger sobre cualquier writer.
func NewLogger(writer io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler)
}

// Discard devuelve un logger que no escribe nada. Útil en los tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// convertStringToLogLevel modifica dinámicamente el nivel de log que deseamos tener en el sistema.
func convertStringToLogLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("No existe %s, se coloca INFO por defecto. ", levelStr)
	}
}
