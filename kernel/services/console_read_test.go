package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/kernel/models"
)

func reader(rec *recorder, name string) Entry {
	return func(p *Proc, _ any) int {
		buf := make([]byte, 32)
		n, err := p.ConsoleRead(buf)
		if err != nil {
			rec.add(fmt.Sprintf("%s:%v", name, err))
			return -1
		}
		rec.add(fmt.Sprintf("%s:%s", name, buf[:n]))
		return 0
	}
}

func TestConsoleRead_BlocksUntilALineArrives(t *testing.T) {
	m := newMachine(t, nil)
	rec := &recorder{}

	err := m.run(t, 5, func(p *Proc, _ any) int {
		pid, _ := p.Start(reader(rec, "lector"), nil, 0, 8, "lector")
		state, _ := p.State(pid)
		assert.Equal(t, models.StateWaitConsoleRead, state)

		m.console.Feed("hola\n")
		rec.add("tipeado")
		// La interrupción de teclado se atiende en la próxima entrada al núcleo.
		p.Yield()
		rec.add("sigue")
		_, _, _ = p.Wait(pid)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tipeado", "lector:hola", "sigue"}, rec.all())
}

func TestConsoleRead_WakesEveryoneAndTheRestBlockAgain(t *testing.T) {
	m := newMachine(t, nil)
	rec := &recorder{}

	err := m.run(t, 5, func(p *Proc, _ any) int {
		_, _ = p.Start(reader(rec, "alto"), nil, 0, 8, "alto")
		low, _ := p.Start(reader(rec, "bajo"), nil, 0, 7, "bajo")

		m.console.Feed("uno\n")
		p.Yield()
		state, _ := p.State(low)
		assert.Equal(t, models.StateWaitConsoleRead, state, "el que no llegó a leer vuelve a esperar")

		m.console.Feed("dos\n")
		p.Yield()
		_, _, _ = p.Wait(-1)
		_, _, _ = p.Wait(-1)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"alto:uno", "bajo:dos"}, rec.all())
}

func TestConsoleRead_BufferedInputDoesNotBlock(t *testing.T) {
	m := newMachine(t, nil)
	var n int
	var line string
	var empty int

	m.console.Feed("listo\n")
	err := m.run(t, 5, func(p *Proc, _ any) int {
		buf := make([]byte, 16)
		n, _ = p.ConsoleRead(buf)
		line = string(buf[:n])
		empty, _ = p.ConsoleRead(nil)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, "listo", line)
	assert.Zero(t, empty)
}

func TestConsoleWrite_GoesToTheConsoleOutput(t *testing.T) {
	m := newMachine(t, nil)

	err := m.run(t, 5, func(p *Proc, _ any) int {
		_, err := p.ConsoleWrite([]byte("hola mundo\n"))
		assert.NoError(t, err)
		return 0
	})

	require.NoError(t, err)
	assert.Equal(t, "hola mundo\n", m.out.String())
}
