package services

import (
	"fmt"
	"math"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
	memModels "github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
)

/* ---------- Lista de espera de una cola ----------> */

func (k *Kernel) queueAppendWaiter(q *models.Queue, p *models.Process) {
	link := p.WaitQueue()
	link.Queue = q
	link.Prev = q.Tail
	link.Next = nil
	if q.Tail != nil {
		q.Tail.WaitQueue().Next = p
	} else {
		q.Head = p
	}
	q.Tail = p
	q.Waiting++
}

func (k *Kernel) queueRemoveWaiter(q *models.Queue, p *models.Process) {
	link := p.WaitQueue()
	if link.Queue != q {
		models.Invariant("queueRemoveWaiter", "el proceso %d no espera en la cola %d", p.Pid, q.Id)
	}
	if link.Prev != nil {
		link.Prev.WaitQueue().Next = link.Next
	} else {
		q.Head = link.Next
	}
	if link.Next != nil {
		link.Next.WaitQueue().Prev = link.Prev
	} else {
		q.Tail = link.Prev
	}
	link.Prev, link.Next = nil, nil
	q.Waiting--
}

// queuePopNext saca al que espera con mayor prioridad. Se recorre desde el más viejo y los empates se
// reemplazan, así que entre iguales gana el que llegó último.
func (k *Kernel) queuePopNext(q *models.Queue) *models.Process {
	var candidate *models.Process
	for p := q.Head; p != nil; p = p.WaitQueue().Next {
		if candidate == nil || candidate.Priority <= p.Priority {
			candidate = p
		}
	}
	if candidate != nil {
		k.queueRemoveWaiter(q, candidate)
	}
	return candidate
}

// queueWake devuelve un proceso de la lista de espera a su anillo con lo que tiene que leer al volver.
func (k *Kernel) queueWake(p *models.Process, resume models.Resume) {
	k.setState(p, models.StateSchedAvailable)
	p.Sched().Resume = resume
	k.ringInsert(p)
}

// queueWait bloquea al activo en la cola. Vuelve con lo que dejó quien lo despertó.
func (k *Kernel) queueWait(q *models.Queue, message int) models.Resume {
	self := k.active
	next := k.ringRemove(self)
	k.setState(self, models.StateWaitQueue)
	self.WaitQueue().Message = message
	k.queueAppendWaiter(q, self)
	k.advance(next)
	return self.Sched().Resume
}

// queueResumeReset libera a todos los que esperan con la marca de reinicio.
func (k *Kernel) queueResumeReset(q *models.Queue) {
	var highest *models.Process
	for p := q.Head; p != nil; {
		following := p.WaitQueue().Next
		if highest == nil || highest.Priority <= p.Priority {
			highest = p
		}
		k.queueWake(p, models.Resume{QueueReset: true})
		p = following
	}
	q.Head, q.Tail, q.Waiting = nil, nil, 0

	if highest != nil && highest.Priority > k.active.Priority {
		k.advance(highest)
	}
}

// queueSetPriority reencola al proceso para que la nueva prioridad cuente desde ahora.
func (k *Kernel) queueSetPriority(p *models.Process, priority int) {
	q := p.WaitQueue().Queue
	p.Priority = priority
	k.queueRemoveWaiter(q, p)
	k.queueAppendWaiter(q, p)
}

/* ---------- Buffer circular ----------> */

func (k *Kernel) queueRawWrite(q *models.Queue, message int) {
	k.heap.Arena().WriteWord(q.Slot(q.Write), uint64(int64(message)))
	q.Write++
	if q.Write == q.Capacity {
		q.Write = 0
	}
	q.Length++
}

func (k *Kernel) queueRawRead(q *models.Queue) int {
	message := int(int64(k.heap.Arena().ReadWord(q.Slot(q.Read))))
	q.Read++
	if q.Read == q.Capacity {
		q.Read = 0
	}
	q.Length--
	return message
}

/* ---------- Operaciones ----------> */

func (k *Kernel) queueLookup(qid int) (*models.Queue, error) {
	q, ok := k.queues[qid]
	if !ok {
		return nil, fmt.Errorf("cola %d: %w", qid, models.ErrNoSuchQueue)
	}
	return q, nil
}

func (k *Kernel) queueCreate(capacity int) (int, error) {
	if capacity <= 0 || capacity > math.MaxInt/memModels.WordSize {
		return -1, fmt.Errorf("capacidad %d: %w", capacity, models.ErrInvalidArgument)
	}
	if !k.qids.Available() {
		return -1, models.ErrNoFreeQueue
	}

	buffer, err := k.heap.Alloc(uint64(capacity) * memModels.WordSize)
	if err != nil {
		return -1, fmt.Errorf("buffer de la cola: %w", err)
	}
	record, err := k.heap.Alloc(models.RecordSize)
	if err != nil {
		k.release(buffer)
		return -1, fmt.Errorf("registro de la cola: %w", err)
	}

	qid, _ := k.qids.Get()
	k.queues[qid] = &models.Queue{Id: qid, Capacity: capacity, Buffer: buffer, Record: record}
	k.heap.Arena().WriteWord(record, uint64(qid))
	k.log.Debug(fmt.Sprintf("## (%d) Crea la cola %d de capacidad %d", k.active.Pid, qid, capacity))
	return qid, nil
}

func (k *Kernel) queueDelete(qid int) error {
	q, err := k.queueLookup(qid)
	if err != nil {
		return err
	}
	delete(k.queues, qid)
	if err := k.qids.Release(qid); err != nil {
		models.Invariant("queueDelete", "%v", err)
	}
	k.release(q.Buffer)
	k.release(q.Record)
	k.log.Debug(fmt.Sprintf("## (%d) Elimina la cola %d con %d procesos esperando", k.active.Pid, qid, q.Waiting))
	k.queueResumeReset(q)
	return nil
}

func (k *Kernel) queueSend(qid int, message int) error {
	q, err := k.queueLookup(qid)
	if err != nil {
		return err
	}

	if q.Full() {
		if k.active == k.idle {
			return models.ErrIdleCannotBlock
		}
		if resume := k.queueWait(q, message); resume.QueueReset {
			return fmt.Errorf("enviar a la cola %d: %w", qid, models.ErrQueueReset)
		}
		return nil
	}

	if q.Empty() {
		if receiver := k.queuePopNext(q); receiver != nil {
			k.queueWake(receiver, models.Resume{Message: message})
			if receiver.Priority > k.active.Priority {
				k.advance(receiver)
			}
			return nil
		}
	}
	k.queueRawWrite(q, message)
	return nil
}

func (k *Kernel) queueReceive(qid int) (int, error) {
	q, err := k.queueLookup(qid)
	if err != nil {
		return 0, err
	}

	if q.Empty() {
		if k.active == k.idle {
			return 0, models.ErrIdleCannotBlock
		}
		resume := k.queueWait(q, 0)
		if resume.QueueReset {
			return 0, fmt.Errorf("recibir de la cola %d: %w", qid, models.ErrQueueReset)
		}
		return resume.Message, nil
	}

	wasFull := q.Full()
	message := k.queueRawRead(q)
	if wasFull {
		if sender := k.queuePopNext(q); sender != nil {
			k.queueRawWrite(q, sender.WaitQueue().Message)
			k.queueWake(sender, models.Resume{Message: -1})
			if sender.Priority > k.active.Priority {
				k.advance(sender)
			}
		}
	}
	return message, nil
}

// queueCount: vacía, menos la cantidad de receptores esperando; si no, mensajes más emisores esperando.
func (k *Kernel) queueCount(qid int) (int, error) {
	q, err := k.queueLookup(qid)
	if err != nil {
		return 0, err
	}
	if q.Empty() {
		return -q.Waiting, nil
	}
	return q.Length + q.Waiting, nil
}

func (k *Kernel) queueReset(qid int) error {
	q, err := k.queueLookup(qid)
	if err != nil {
		return err
	}
	q.Length, q.Read, q.Write = 0, 0, 0
	k.queueResumeReset(q)
	return nil
}

func (k *Kernel) queueInfo(q *models.Queue) models.QueueInfo {
	count, _ := k.queueCount(q.Id)
	info := models.QueueInfo{Id: q.Id, Capacity: q.Capacity, Length: q.Length, Count: count, Waiting: []int{}}
	for p := q.Head; p != nil; p = p.WaitQueue().Next {
		info.Waiting = append(info.Waiting, p.Pid)
	}
	return info
}
