package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDPool_SequentialThenLIFO(t *testing.T) {
	p := NewIDPool(3)

	for want := 0; want < 3; want++ {
		id, ok := p.Get()
		require.True(t, ok)
		assert.Equal(t, want, id)
	}
	_, ok := p.Get()
	assert.False(t, ok)
	assert.False(t, p.Available())

	require.NoError(t, p.Release(1))
	require.NoError(t, p.Release(2))
	assert.Equal(t, 1, p.InUse())

	id, _ := p.Get()
	assert.Equal(t, 2, id)
	id, _ = p.Get()
	assert.Equal(t, 1, id)
}

func TestIDPool_ReuseWaitsForCapacity(t *testing.T) {
	p := NewIDPool(4)
	a, _ := p.Get()
	require.NoError(t, p.Release(a))

	// mientras haya ids nuevos no se reutiliza el liberado
	id, _ := p.Get()
	assert.Equal(t, 1, id)
}

func TestIDPool_ReleaseUnknown(t *testing.T) {
	p := NewIDPool(2)
	assert.Error(t, p.Release(0))
	assert.Error(t, p.Release(-1))
}
