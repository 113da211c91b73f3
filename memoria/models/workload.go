package models

// Workload es una carga sintética de reservas y liberaciones para medir el heap con una configuración.
type Workload struct {
	Operations int    `json:"operations" yaml:"operations"`
	MaxSize    uint64 `json:"max_size" yaml:"max_size"`
	// Máximo de reservas vivas; al alcanzarlo sólo se libera.
	Live int    `json:"live" yaml:"live"`
	Seed uint64 `json:"seed" yaml:"seed"`
}

func DefaultWorkload() Workload {
	return Workload{Operations: 10000, MaxSize: 256 << 10, Live: 512, Seed: 1}
}

// WorkloadStats resume una corrida.
type WorkloadStats struct {
	Allocs    int            `json:"allocs"`
	Frees     int            `json:"frees"`
	Failures  int            `json:"failures"`
	PerKind   map[string]int `json:"per_kind"`
	PeakPages uint64         `json:"peak_pages"`
	PeakUsed  string         `json:"peak_used"`
	Final     MemoryInfo     `json:"final"`
}

// ToolConfig es la configuración del módulo de memoria cuando corre solo, como banco de pruebas del heap.
type ToolConfig struct {
	PortMemory int      `json:"port_memory" yaml:"port_memory"`
	LogLevel   string   `json:"log_level" yaml:"log_level"`
	LogPath    string   `json:"log_path" yaml:"log_path"`
	Memory     Config   `json:"memory" yaml:"memory"`
	Workload   Workload `json:"workload" yaml:"workload"`
}
