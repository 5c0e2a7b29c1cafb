package comps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPartitionBitWidths(t *testing.T) {
	// level 1: 4 cells -> 2 bits; level 2: 1 cell -> 0 bits.
	p := NewPartition(8, []int32{4, 1})
	require.Equal(t, []uint8{0, 2, 2}, p.Offsets())
	require.Equal(t, 2, p.NumLevels())
	require.EqualValues(t, 4, p.NumCellsInLevel(1))
	require.EqualValues(t, 1, p.NumCellsInLevel(2))
}

func TestPartitionSetCellAndCellAtLevel(t *testing.T) {
	p := NewPartition(4, []int32{4, 2})
	p.SetCell(0, 1, 3)
	p.SetCell(0, 2, 1)
	require.EqualValues(t, 3, p.CellAtLevel(p.GetCellNumber(0), 1))
	require.EqualValues(t, 1, p.CellAtLevel(p.GetCellNumber(0), 2))
}

func TestPartitionTruncateToLevel(t *testing.T) {
	p := NewPartition(4, []int32{4, 2})
	p.SetCell(0, 1, 2)
	p.SetCell(0, 2, 1)
	p.SetCell(1, 1, 3)
	p.SetCell(1, 2, 1)

	// same level-2 (coarser) cell, different level-1 (finer) cell ->
	// truncation at level 2 agrees, since it shifts away the finer bits.
	require.Equal(t, p.TruncateToLevel(p.GetCellNumber(0), 2), p.TruncateToLevel(p.GetCellNumber(1), 2))
	// truncation at level 1 keeps both levels, so it still distinguishes
	// the two vertices' differing level-1 assignment.
	require.NotEqual(t, p.TruncateToLevel(p.GetCellNumber(0), 1), p.TruncateToLevel(p.GetCellNumber(1), 1))
}

func TestPartitionHighestDifferingLevel(t *testing.T) {
	p := NewPartition(4, []int32{4, 2})
	p.SetCell(0, 1, 2)
	p.SetCell(0, 2, 1)
	p.SetCell(1, 1, 2)
	p.SetCell(1, 2, 1)
	p.SetCell(2, 1, 3)
	p.SetCell(2, 2, 1)

	require.Equal(t, 0, p.HighestDifferingLevel(p.GetCellNumber(0), p.GetCellNumber(1)))
	require.Equal(t, 1, p.HighestDifferingLevel(p.GetCellNumber(0), p.GetCellNumber(2)))
}

func TestPartitionQueryLevel(t *testing.T) {
	p := NewPartition(4, []int32{4, 2})
	p.SetCell(0, 1, 0)
	p.SetCell(0, 2, 0)
	p.SetCell(1, 1, 1)
	p.SetCell(1, 2, 0)
	p.SetCell(2, 1, 2)
	p.SetCell(2, 2, 1)

	// source=0, target=2, vertex=1: differs from source at level 1,
	// differs from target at level 2; query level is the min.
	l := p.QueryLevel(p.GetCellNumber(0), p.GetCellNumber(2), p.GetCellNumber(1))
	require.Equal(t, 1, l)
}

func TestNewPartitionFromRawRoundTrip(t *testing.T) {
	p := NewPartition(4, []int32{4, 2})
	p.SetCell(0, 1, 2)
	p.SetCell(0, 2, 1)
	p.SetCell(1, 1, 3)
	p.SetCell(1, 2, 1)
	p.SetCell(2, 1, 0)
	p.SetCell(2, 2, 0)
	p.SetCell(3, 1, 1)
	p.SetCell(3, 2, 0)

	cellNumbers := []uint64{p.GetCellNumber(0), p.GetCellNumber(1), p.GetCellNumber(2), p.GetCellNumber(3)}
	p2 := NewPartitionFromRaw(p.Offsets(), cellNumbers)

	require.Equal(t, p.Offsets(), p2.Offsets())
	for v := int32(0); v < 4; v++ {
		require.Equal(t, p.GetCellNumber(v), p2.GetCellNumber(v))
		require.Equal(t, p.CellAtLevel(p.GetCellNumber(v), 1), p2.CellAtLevel(p2.GetCellNumber(v), 1))
		require.Equal(t, p.CellAtLevel(p.GetCellNumber(v), 2), p2.CellAtLevel(p2.GetCellNumber(v), 2))
	}
}
