package models

// Config de los dispositivos que rodean al núcleo.
type Config struct {
	TickHz      int    `json:"tick_hz" yaml:"tick_hz"`
	Keyboard    string `json:"keyboard" yaml:"keyboard"`
	TTYDevice   string `json:"tty_device" yaml:"tty_device"`
	ConsoleEcho bool   `json:"console_echo" yaml:"console_echo"`
}

// Fuentes de teclado aceptadas.
const (
	KeyboardTTY   = "tty"
	KeyboardStdin = "stdin"
	KeyboardNone  = "none"
)

const (
	// Frecuencia del cristal del PIT.
	Quartz = 0x1234DD

	DefaultTickHz     = 50
	LineBufferSize    = 1024
	ConsoleBufferSize = 2048

	KeyBackspace = '\b'
	KeyDelete    = 0x7f
	KeyEOT       = 0x04
)

// TerminalConfig es la configuración de la terminal remota: un teclado que manda cada línea al núcleo.
type TerminalConfig struct {
	IpKernel   string `json:"ip_kernel" yaml:"ip_kernel"`
	PortKernel int    `json:"port_kernel" yaml:"port_kernel"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	LogPath    string `json:"log_path" yaml:"log_path"`
	Devices    Config `json:"devices" yaml:"devices"`
}
