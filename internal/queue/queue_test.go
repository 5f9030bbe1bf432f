package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[string]()

	q.PushBack("A")
	q.PushBack("B")
	q.PushBack("C")
	require.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PopFront_Empty(t *testing.T) {
	q := New[*int]()

	got, ok := q.PopFront()
	assert.False(t, ok, "pop from empty queue should return false")
	assert.Nil(t, got)

	_, ok = q.Front()
	assert.False(t, ok)
}

func TestQueue_Front_DoesNotRemove(t *testing.T) {
	q := New[int]()
	q.PushBack(7)

	v, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_RemoveFirst(t *testing.T) {
	q := New[int]()
	for _, v := range []int{1, 2, 3, 2} {
		q.PushBack(v)
	}

	got, ok := q.RemoveFirst(func(v int) bool { return v == 2 })
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, []int{1, 3, 2}, q.Drain())
}

func TestQueue_RemoveFirst_NoMatch(t *testing.T) {
	q := New[int]()
	q.PushBack(1)

	_, ok := q.RemoveFirst(func(v int) bool { return v == 9 })
	assert.False(t, ok)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Extract_PreservesOrder(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 6; i++ {
		q.PushBack(i)
	}

	even := q.Extract(func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, even)
	assert.Equal(t, []int{1, 3, 5}, q.Drain())
}

func TestQueue_DrainEmptiesQueue(t *testing.T) {
	q := New[string]()
	q.PushBack("x")
	q.PushBack("y")

	assert.Equal(t, []string{"x", "y"}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueue_Each(t *testing.T) {
	q := New[int]()
	q.PushBack(3)
	q.PushBack(4)

	var seen []int
	q.Each(func(v int) { seen = append(seen, v) })
	assert.Equal(t, []int{3, 4}, seen)
}

func TestQueue_ReuseAfterEmpty(t *testing.T) {
	q := New[int]()
	q.PushBack(1)
	_, _ = q.PopFront()
	q.PushBack(2)

	v, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}
