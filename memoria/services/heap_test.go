package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/memoria/models"
	"github.com/sisoputnfrba/tp-nucleo-Los-magiOS/utils/log"
)

func newHeap(t *testing.T, size uint64) *Heap {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.HeapSize = size
	h, err := NewHeap(testBase, cfg, log.Discard())
	require.NoError(t, err)
	return h
}

func TestHeap_Classify(t *testing.T) {
	h := newHeap(t, 4<<20)
	assert.Equal(t, models.KindSmall, h.Classify(1))
	assert.Equal(t, models.KindSmall, h.Classify(64))
	assert.Equal(t, models.KindMedium, h.Classify(65))
	assert.Equal(t, models.KindMedium, h.Classify(1<<17-1))
	assert.Equal(t, models.KindLarge, h.Classify(1<<17))
}

func TestHeap_SmallReuseIsLIFO(t *testing.T) {
	h := newHeap(t, 4<<20)

	first, err := h.Alloc(10)
	require.NoError(t, err)
	require.NoError(t, h.Free(first))
	again, err := h.Alloc(10)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := h.Alloc(20)
	require.NoError(t, err)
	require.NoError(t, h.Free(again))
	require.NoError(t, h.Free(other))

	a, _ := h.Alloc(1)
	b, _ := h.Alloc(1)
	assert.Equal(t, other, a)
	assert.Equal(t, again, b)
}

func TestHeap_SlabGrowthDoubles(t *testing.T) {
	h := newHeap(t, 4<<20)

	_, err := h.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, 127, h.FreeChunks())
	assert.Equal(t, uint64(3), h.Pages().Used())

	for i := 0; i < 127; i++ {
		_, err := h.Alloc(8)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, h.FreeChunks())

	_, err = h.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, 255, h.FreeChunks())
	assert.Equal(t, uint64(3+6), h.Pages().Used())
}

func TestHeap_BuddyCoalescesBackToRegion(t *testing.T) {
	h := newHeap(t, 4<<20)

	a, err := h.Alloc(100)
	require.NoError(t, err)
	assert.Zero(t, uint64(a-models.UserOffset)%256, "el bloque queda alineado a su tamaño")
	for level := uint(8); level < 17; level++ {
		assert.Equal(t, 1, h.FreeBlocks(level), "nivel %d", level)
	}

	b, err := h.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, a^256, b, "el segundo pedido toma el buddy")
	assert.Equal(t, 0, h.FreeBlocks(8))

	require.NoError(t, h.Free(a))
	assert.Equal(t, 1, h.FreeBlocks(8))
	require.NoError(t, h.Free(b))

	for level := uint(7); level < 17; level++ {
		assert.Equal(t, 0, h.FreeBlocks(level), "nivel %d", level)
	}
	assert.Equal(t, 1, h.FreeBlocks(17))
}

func TestHeap_MediumRefillOnlyOnceForSmallBlocks(t *testing.T) {
	h := newHeap(t, 4<<20)

	_, err := h.Alloc(1000)
	require.NoError(t, err)
	used := h.Pages().Used()
	assert.Equal(t, uint64(64), used, "la primera región pide 2^18 bytes")

	_, err = h.Alloc(2000)
	require.NoError(t, err)
	assert.Equal(t, used, h.Pages().Used(), "se parte la región existente")
}

func TestHeap_LargeRoundTrip(t *testing.T) {
	h := newHeap(t, 4<<20)

	p, err := h.Alloc(200000)
	require.NoError(t, err)
	assert.Equal(t, uint64(49), h.Pages().Used())
	size, err := h.SizeOf(p)
	require.NoError(t, err)
	assert.Equal(t, uint64(200000), size)

	require.NoError(t, h.Free(p))
	assert.Equal(t, uint64(0), h.Pages().Used())
}

func TestHeap_RoundTripReusesMemory(t *testing.T) {
	for _, size := range []uint64{1, 64, 65, 500, 4000, 1<<17 - 1, 1 << 17, 300000} {
		h := newHeap(t, 4<<20)
		first, err := h.Alloc(size)
		require.NoError(t, err, "size %d", size)
		require.NoError(t, h.Free(first))
		second, err := h.Alloc(size)
		require.NoError(t, err)
		assert.Equal(t, first, second, "size %d", size)
		assert.Equal(t, 1, h.Outstanding())
	}
}

func TestHeap_UserMemoryIsWritable(t *testing.T) {
	h := newHeap(t, 4<<20)
	p, err := h.Alloc(64)
	require.NoError(t, err)

	user := h.Arena().Bytes(p, 64)
	for i := range user {
		user[i] = 0xAA
	}
	require.NoError(t, h.Free(p), "escribir en el área de usuario no toca las marcas")
}

func TestHeap_CorruptFreeLeavesStateUntouched(t *testing.T) {
	h := newHeap(t, 4<<20)
	p, err := h.Alloc(100)
	require.NoError(t, err)
	q, err := h.Alloc(100)
	require.NoError(t, err)

	size, err := h.SizeOf(p)
	require.NoError(t, err)
	trailer := p + models.Addr(size)
	saved := h.Arena().ReadWord(trailer)
	h.Arena().WriteWord(trailer, saved^1)

	assert.ErrorIs(t, h.Free(p), models.ErrCorruptFree)
	assert.Equal(t, 2, h.Outstanding())
	assert.Equal(t, 0, h.FreeBlocks(8))

	h.Arena().WriteWord(trailer, saved)
	require.NoError(t, h.Free(p))
	require.NoError(t, h.Free(q))
	assert.Equal(t, 1, h.FreeBlocks(17))
}

func TestHeap_DoubleFreeIsRejected(t *testing.T) {
	h := newHeap(t, 4<<20)
	for _, size := range []uint64{10, 1000, 200000} {
		p, err := h.Alloc(size)
		require.NoError(t, err)
		require.NoError(t, h.Free(p))
		assert.ErrorIs(t, h.Free(p), models.ErrCorruptFree, "size %d", size)
	}
	assert.Equal(t, 0, h.Outstanding())
}

func TestHeap_LargeFreeKeepsMarksWhenPagesFail(t *testing.T) {
	h := newHeap(t, 4<<20)
	p, err := h.Alloc(200000)
	require.NoError(t, err)
	block := p - models.UserOffset
	size := markedSize(200000)

	// Las páginas se liberan por debajo del heap: la liberación de la reserva tiene que fallar sin tocarla.
	require.NoError(t, h.Pages().Free(block, size))
	assert.ErrorIs(t, h.Free(p), models.ErrInvalidAddress)
	assert.ErrorIs(t, h.Free(p), models.ErrInvalidAddress, "un reintento ve la misma falla, no una corrupción")
	assert.Equal(t, 1, h.Outstanding())
	usable, err := h.SizeOf(p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, usable, uint64(200000))

	again, err := h.Pages().Alloc(size)
	require.NoError(t, err)
	require.Equal(t, block, again)
	require.NoError(t, h.Free(p))
	assert.Zero(t, h.Outstanding())
}

func TestHeap_ForeignPointers(t *testing.T) {
	h := newHeap(t, 4<<20)
	assert.ErrorIs(t, h.Free(0), models.ErrCorruptFree)
	assert.ErrorIs(t, h.Free(testBase+3), models.ErrCorruptFree)
	assert.ErrorIs(t, h.Free(h.Arena().End()+64), models.ErrCorruptFree)
	assert.ErrorIs(t, h.Free(testBase+8192), models.ErrCorruptFree)
}

func TestHeap_Exhaustion(t *testing.T) {
	h := newHeap(t, 64*4096)

	_, err := h.Alloc(0)
	assert.ErrorIs(t, err, models.ErrInvalidSize)

	_, err = h.Alloc(1 << 20)
	assert.ErrorIs(t, err, models.ErrOutOfMemory)

	// la región mediana inicial (2^18) no entra: se cae al nivel pedido
	p, err := h.Alloc(1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Pages().Used())
	require.NoError(t, h.Free(p))

	var held []models.Addr
	for {
		q, err := h.Alloc(50000)
		if err != nil {
			assert.ErrorIs(t, err, models.ErrOutOfMemory)
			break
		}
		held = append(held, q)
	}
	assert.NotEmpty(t, held)
	for _, q := range held {
		require.NoError(t, h.Free(q))
	}
}
