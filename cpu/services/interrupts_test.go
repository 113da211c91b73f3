package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/cpu/models"
)

func TestInterruptLine_Coalesces(t *testing.T) {
	line := NewInterruptLine()
	line.Raise(models.IRQTimer)
	line.Raise(models.IRQTimer)
	line.Raise(models.IRQKeyboard)

	assert.Equal(t, uint32(0b11), line.Pending())
	assert.Zero(t, line.Pending())
}

func TestInterruptLine_Wait(t *testing.T) {
	line := NewInterruptLine()

	go func() {
		time.Sleep(10 * time.Millisecond)
		line.Raise(models.IRQKeyboard)
	}()
	require.NoError(t, line.Wait(context.Background()))
	assert.Equal(t, uint32(1<<models.IRQKeyboard), line.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, line.Wait(ctx), context.DeadlineExceeded)
}
