package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayList_Add(t *testing.T) {
	list := &ArrayList[int]{}

	list.Add(10)
	list.Add(20)

	assert.Equal(t, 2, list.Size())
	last, err := list.Pop()
	require.NoError(t, err)
	assert.Equal(t, 20, last)
	assert.Equal(t, 1, list.Size())
}

func TestArrayList_PopIsLIFO(t *testing.T) {
	list := &ArrayList[string]{}
	list.Add("a")
	list.Add("b")
	list.Add("c")

	var got []string
	for list.Size() > 0 {
		value, err := list.Pop()
		require.NoError(t, err)
		got = append(got, value)
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)

	_, err := list.Pop()
	assert.ErrorIs(t, err, ErrEmptyList)
}
