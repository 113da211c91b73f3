package models

import memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"

/* ---------- Colas de mensajes ----------> */

// Queue es una cola de mensajes enteros. El buffer circular vive en el heap del núcleo (una palabra por
// mensaje). Los procesos en espera son todos emisores (cola llena) o todos receptores (cola vacía).
type Queue struct {
	Id       int
	Capacity int
	Buffer   memModels.Addr
	Record   memModels.Addr

	Length int
	Read   int
	Write  int

	Head    *Process
	Tail    *Process
	Waiting int
}

// Slot devuelve la dirección del mensaje i del buffer.
func (q *Queue) Slot(i int) memModels.Addr {
	return q.Buffer + memModels.Addr(i*memModels.WordSize)
}

func (q *Queue) Full() bool  { return q.Length == q.Capacity }
func (q *Queue) Empty() bool { return q.Length == 0 }

// QueueInfo es la vista de una cola que se expone por HTTP.
type QueueInfo struct {
	Id       int   `json:"id"`
	Capacity int   `json:"capacity"`
	Length   int   `json:"length"`
	Count    int   `json:"count"`
	Waiting  []int `json:"waiting"`
}
