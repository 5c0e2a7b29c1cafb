package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDQueuePopsInKeyOrder(t *testing.T) {
	q := NewIDQueue(4)
	q.PushOrDecrease(10, 5)
	q.PushOrDecrease(20, 1)
	q.PushOrDecrease(30, 3)

	id, key, ok := q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 20, id)
	require.EqualValues(t, 1, key)

	id, key, ok = q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 30, id)
	require.EqualValues(t, 3, key)

	id, key, ok = q.Pop()
	require.True(t, ok)
	require.EqualValues(t, 10, id)
	require.EqualValues(t, 5, key)

	_, _, ok = q.Pop()
	require.False(t, ok)
}

func TestIDQueuePushOrDecreaseIgnoresWorseKey(t *testing.T) {
	q := NewIDQueue(2)
	q.PushOrDecrease(1, 10)
	q.PushOrDecrease(1, 20) // worse; should be ignored
	key, ok := q.PeekKey()
	require.True(t, ok)
	require.EqualValues(t, 10, key)

	q.PushOrDecrease(1, 5) // better; should update in place
	require.EqualValues(t, 1, q.Len())
	key, ok = q.PeekKey()
	require.True(t, ok)
	require.EqualValues(t, 5, key)
}

// TestIDQueuePushOrDecreaseResyncsAfterFix exercises the decrease-key
// path with enough siblings that heap.Fix's internal sift actually
// moves elements other than the one being decreased. A missing
// q.resync() after heap.Fix leaves q.pos stale for every element
// heap.Fix displaced; a later PushOrDecrease against one of those
// displaced ids then indexes the wrong slot in q.h through the stale
// pos entry, silently corrupting that slot's key.
func TestIDQueuePushOrDecreaseResyncsAfterFix(t *testing.T) {
	q := NewIDQueue(4)
	q.PushOrDecrease(1, 10) // A
	q.PushOrDecrease(2, 20) // B
	q.PushOrDecrease(3, 30) // C
	q.PushOrDecrease(4, 40) // D

	// forces heap.Fix to sift D up past both B and A.
	q.PushOrDecrease(4, 0)

	require.True(t, q.Contains(1))
	require.True(t, q.Contains(2))
	require.True(t, q.Contains(3))
	require.True(t, q.Contains(4))

	// B was one of the siblings heap.Fix displaced above; decreasing
	// it now must land on B's actual current slot, not the slot it
	// occupied before the first Fix.
	q.PushOrDecrease(2, 5)

	wantOrder := []struct {
		id  int32
		key uint32
	}{
		{4, 0},
		{2, 5},
		{1, 10},
		{3, 30},
	}
	for _, want := range wantOrder {
		id, key, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want.id, id)
		require.Equal(t, want.key, key)
	}
}

func TestIDQueueContainsAndReset(t *testing.T) {
	q := NewIDQueue(2)
	q.PushOrDecrease(7, 1)
	require.True(t, q.Contains(7))
	require.False(t, q.Contains(8))

	q.Reset()
	require.Equal(t, 0, q.Len())
	require.False(t, q.Contains(7))
}
