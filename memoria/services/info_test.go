package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMemoryInfo(t *testing.T) {
	p := newPages(t, 1<<20)
	_, err := p.Alloc(3 * 4096)
	require.NoError(t, err)

	info := BuildMemoryInfo(p)
	assert.Equal(t, uint64(255), info.CapacityPages)
	assert.Equal(t, uint64(3), info.UsedPages)
	assert.Equal(t, "12 KiB", info.Used)
	assert.Equal(t, "1.2%", info.Percent)
}
