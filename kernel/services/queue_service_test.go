package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

func TestQueue_SenderBlocksOnFullAndItsMessageKeepsOrder(t *testing.T) {
	m := newMachine(t, nil)
	var (
		count      int
		received   []int
		lengthMid  int
		sendErr    error
		senderCode int
	)

	err := m.run(t, 5, func(p *Proc, _ any) int {
		qid, err := p.QueueCreate(2)
		assert.NoError(t, err)
		assert.NoError(t, p.QueueSend(qid, 10))
		assert.NoError(t, p.QueueSend(qid, 20))

		sender, _ := p.Start(func(c *Proc, _ any) int {
			sendErr = c.QueueSend(qid, 30)
			return 0
		}, nil, 0, 5, "emisor")
		p.Yield()

		state, _ := p.State(sender)
		assert.Equal(t, models.StateWaitQueue, state)
		count, _ = p.QueueCount(qid)

		first, _ := p.QueueReceive(qid)
		received = append(received, first)
		info, _ := p.QueueInfo(qid)
		lengthMid = info.Length
		for i := 0; i < 2; i++ {
			message, _ := p.QueueReceive(qid)
			received = append(received, message)
		}
		_, senderCode, _ = p.Wait(sender)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "dos mensajes más un emisor esperando")
	assert.Equal(t, []int{10, 20, 30}, received)
	assert.Equal(t, 2, lengthMid, "el mensaje del emisor entra al liberar lugar")
	assert.NoError(t, sendErr)
	assert.Equal(t, 0, senderCode)
}

func TestQueue_CircularBufferWraps(t *testing.T) {
	m := newMachine(t, nil)
	var received []int

	err := m.run(t, 5, func(p *Proc, _ any) int {
		qid, _ := p.QueueCreate(3)
		next := 0
		for round := 0; round < 4; round++ {
			for i := 0; i < 2; i++ {
				assert.NoError(t, p.QueueSend(qid, next))
				next++
			}
			for i := 0; i < 2; i++ {
				message, err := p.QueueReceive(qid)
				assert.NoError(t, err)
				received = append(received, message)
			}
		}
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, received)
}

func TestQueue_NegativeMessagesSurviveTheHeap(t *testing.T) {
	m := newMachine(t, nil)
	var received int

	err := m.run(t, 5, func(p *Proc, _ any) int {
		qid, _ := p.QueueCreate(1)
		_ = p.QueueSend(qid, -12345)
		received, _ = p.QueueReceive(qid)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, -12345, received)
}

func TestQueue_WakingAHigherReceiverPreempts(t *testing.T) {
	m := newMachine(t, nil)
	rec := &recorder{}

	err := m.run(t, 5, func(p *Proc, _ any) int {
		qid, _ := p.QueueCreate(1)
		_, _ = p.Start(func(c *Proc, _ any) int {
			message, err := c.QueueReceive(qid)
			assert.NoError(t, err)
			rec.add(fmt.Sprintf("receptor:%d", message))
			return 0
		}, nil, 0, 8, "receptor")
		rec.add("envía")
		_ = p.QueueSend(qid, 7)
		rec.add("sigue")

		count, _ := p.QueueCount(qid)
		assert.Equal(t, 0, count, "el mensaje va directo al receptor sin pasar por el buffer")
		_, _, _ = p.Wait(-1)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"envía", "receptor:7", "sigue"}, rec.all())
}

// receivers lanza receptores de la cola qid que anotan lo que reciben. Devuelve los pids por nombre.
func receivers(p *Proc, rec *recorder, qid int, priorities map[string]int) map[string]int {
	pids := map[string]int{}
	for name, priority := range priorities {
		pid, _ := p.Start(func(c *Proc, _ any) int {
			message, err := c.QueueReceive(qid)
			if err != nil {
				rec.add(fmt.Sprintf("%s:%v", name, err))
				return -1
			}
			rec.add(fmt.Sprintf("%s:%d", name, message))
			return 0
		}, nil, 0, priority, name)
		pids[name] = pid
	}
	return pids
}

func TestQueue_WaiterSelection(t *testing.T) {
	t.Run("gana la mayor prioridad", func(t *testing.T) {
		m := newMachine(t, nil)
		rec := &recorder{}

		err := m.run(t, 10, func(p *Proc, _ any) int {
			qid, _ := p.QueueCreate(1)
			receivers(p, rec, qid, map[string]int{"bajo": 2, "alto": 4})
			_ = p.Sleep(1)
			_ = p.QueueSend(qid, 1)
			_ = p.QueueSend(qid, 2)
			_, _, _ = p.Wait(-1)
			_, _, _ = p.Wait(-1)
			return 0
		})

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alto:1", "bajo:2"}, rec.all())
	})

	t.Run("entre iguales gana el último en llegar", func(t *testing.T) {
		m := newMachine(t, nil)
		rec := &recorder{}
		var waiting []int
		var pids map[string]int

		err := m.run(t, 10, func(p *Proc, _ any) int {
			qid, _ := p.QueueCreate(1)
			pids = receivers(p, rec, qid, map[string]int{"r1": 3, "r2": 3})
			_ = p.Sleep(1)
			info, _ := p.QueueInfo(qid)
			waiting = info.Waiting
			_ = p.QueueSend(qid, 100)
			_ = p.QueueSend(qid, 200)
			_, _, _ = p.Wait(-1)
			_, _, _ = p.Wait(-1)
			return 0
		})

		require.NoError(t, err)
		require.Len(t, waiting, 2)
		last := "r1"
		if waiting[1] == pids["r2"] {
			last = "r2"
		}
		first := map[string]string{"r1": "r2", "r2": "r1"}[last]
		assert.ElementsMatch(t, []string{last + ":100", first + ":200"}, rec.all())
	})

	t.Run("cambiar la prioridad de un receptor lo reencola", func(t *testing.T) {
		m := newMachine(t, nil)
		rec := &recorder{}
		var before, after []int
		var oldestName string

		err := m.run(t, 10, func(p *Proc, _ any) int {
			qid, _ := p.QueueCreate(1)
			receivers(p, rec, qid, map[string]int{"r1": 3, "r2": 3})
			_ = p.Sleep(1)
			info, _ := p.QueueInfo(qid)
			before = info.Waiting

			oldest := before[0]
			oldestName, _ = p.Name(oldest)
			_, _ = p.SetPriority(oldest, 4)
			_, _ = p.SetPriority(oldest, 3)
			info, _ = p.QueueInfo(qid)
			after = info.Waiting

			_ = p.QueueSend(qid, 100)
			_ = p.QueueSend(qid, 200)
			_, _, _ = p.Wait(-1)
			_, _, _ = p.Wait(-1)
			return 0
		})

		require.NoError(t, err)
		require.Len(t, before, 2)
		assert.Equal(t, []int{before[1], before[0]}, after)
		assert.Contains(t, rec.all(), oldestName+":100")
	})
}

func TestQueue_CountWithWaitingReceivers(t *testing.T) {
	m := newMachine(t, nil)
	var count int

	err := m.run(t, 10, func(p *Proc, _ any) int {
		qid, _ := p.QueueCreate(2)
		receivers(p, &recorder{}, qid, map[string]int{"r1": 3, "r2": 3})
		_ = p.Sleep(1)
		count, _ = p.QueueCount(qid)
		_ = p.QueueReset(qid)
		_, _, _ = p.Wait(-1)
		_, _, _ = p.Wait(-1)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, -2, count)
}

func TestQueue_ResetReleasesWaitersWithError(t *testing.T) {
	m := newMachine(t, nil)
	rec := &recorder{}
	var countAfter int
	var codes []int

	err := m.run(t, 10, func(p *Proc, _ any) int {
		qid, _ := p.QueueCreate(1)
		receivers(p, rec, qid, map[string]int{"r1": 3, "r2": 4})
		_ = p.Sleep(1)

		assert.NoError(t, p.QueueReset(qid))
		for i := 0; i < 2; i++ {
			_, code, _ := p.Wait(-1)
			codes = append(codes, code)
		}

		// La cola sigue viva después del reinicio.
		assert.NoError(t, p.QueueSend(qid, 5))
		countAfter, _ = p.QueueCount(qid)
		return 0
	})

	require.NoError(t, err)
	reset := models.ErrQueueReset.Error()
	assert.ElementsMatch(t, []string{
		"r1:recibir de la cola 0: " + reset,
		"r2:recibir de la cola 0: " + reset,
	}, rec.all())
	assert.Equal(t, []int{-1, -1}, codes)
	assert.Equal(t, 1, countAfter)
}

func TestQueue_DeleteReleasesSendersAndFreesMemory(t *testing.T) {
	m := newMachine(t, nil)
	var (
		before, after int
		sendErr       error
		deletedErrs   []error
	)

	err := m.run(t, 10, func(p *Proc, _ any) int {
		before = m.heap.Outstanding()
		qid, _ := p.QueueCreate(1)
		_ = p.QueueSend(qid, 1)
		_, _ = p.Start(func(c *Proc, _ any) int {
			sendErr = c.QueueSend(qid, 2)
			return 0
		}, nil, 0, 3, "emisor")
		_ = p.Sleep(1)

		assert.NoError(t, p.QueueDelete(qid))
		_, _, _ = p.Wait(-1)

		deletedErrs = append(deletedErrs, p.QueueSend(qid, 1), p.QueueReset(qid), p.QueueDelete(qid))
		_, err := p.QueueReceive(qid)
		deletedErrs = append(deletedErrs, err)
		_, err = p.QueueCount(qid)
		deletedErrs = append(deletedErrs, err)
		after = m.heap.Outstanding()
		return 0
	})

	require.NoError(t, err)
	assert.ErrorIs(t, sendErr, models.ErrQueueReset)
	for _, e := range deletedErrs {
		assert.ErrorIs(t, e, models.ErrNoSuchQueue)
	}
	assert.Equal(t, before, after)
}

func TestQueue_CreateValidation(t *testing.T) {
	m := newMachine(t, nil)
	var zero, negative error
	var first, second, reused int

	err := m.run(t, 10, func(p *Proc, _ any) int {
		_, zero = p.QueueCreate(0)
		_, negative = p.QueueCreate(-3)

		first, _ = p.QueueCreate(1)
		second, _ = p.QueueCreate(1)
		_ = p.QueueDelete(first)
		reused, _ = p.QueueCreate(1)
		return 0
	})

	require.NoError(t, err)
	assert.ErrorIs(t, zero, models.ErrInvalidArgument)
	assert.ErrorIs(t, negative, models.ErrInvalidArgument)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.NotEqual(t, second, reused)
}
