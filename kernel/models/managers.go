package models

// ProcessInfo es la foto de un proceso que devuelven ps y el API HTTP.
type ProcessInfo struct {
	Pid       int    `json:"pid"`
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	State     string `json:"state"`
	ParentPid int    `json:"parent_pid"`
	Children  []int  `json:"children"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	WaitingOn string `json:"waiting_on,omitempty"`
	Stack     string `json:"stack"`
}

// Snapshot es el estado completo del núcleo en un instante.
type Snapshot struct {
	Clock     uint32        `json:"clock"`
	ActivePid int           `json:"active_pid"`
	Processes []ProcessInfo `json:"processes"`
	Queues    []QueueInfo   `json:"queues"`
	Pids      PoolUsage     `json:"pids"`
	QueueIds  PoolUsage     `json:"queue_ids"`
}

// PoolUsage cuenta los identificadores entregados de un pool.
type PoolUsage struct {
	InUse    int `json:"in_use"`
	Capacity int `json:"capacity"`
}

/* ---------- Pedidos al gateway ----------> */

// StartRequest pide lanzar un programa registrado.
type StartRequest struct {
	Program   string `json:"program"`
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	StackSize uint64 `json:"stack_size"`
	Arg       string `json:"arg"`
}

type StartResponse struct {
	Pid int `json:"pid"`
}

type KillRequest struct {
	Code int `json:"code"`
}

type PriorityRequest struct {
	Priority int `json:"priority"`
}

type PriorityResponse struct {
	Previous int `json:"previous"`
}

type QueueCreateRequest struct {
	Capacity int `json:"capacity"`
}

type QueueCreateResponse struct {
	Id int `json:"id"`
}

type MessageRequest struct {
	Message int `json:"message"`
}

type MessageResponse struct {
	Message int `json:"message"`
}

type ConsoleRequest struct {
	Input string `json:"input"`
}
