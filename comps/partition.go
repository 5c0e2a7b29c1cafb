package comps

import (
	"math/bits"
)

//*******************************************
// multi-level partition (§3 "MLP")
//*******************************************

// IPartition is the interface the overlay builder, customization, and
// query components see: a packed cell number per vertex plus the
// bit-offset machinery to decode it at any level.
type IPartition interface {
	GetCellNumber(vertex int32) uint64
	NumLevels() int
	NumCellsInLevel(level int) int32
	CellAtLevel(cellNumber uint64, level int) int32
	TruncateToLevel(cellNumber uint64, level int) uint64
	HighestDifferingLevel(c1, c2 uint64) int
	QueryLevel(sourceCell, targetCell, vertexCell uint64) int
}

var _ IPartition = &Partition{}

// Partition is the multi-level partition (MLP): per-vertex packed cell
// numbers plus the per-level bit-offset vector used to pack/unpack them,
// following datastructures/MultiLevelPartition.{h,cpp} in the original.
// Offsets[l] is the bit position at which level l+1 begins; level l
// (1-based) occupies bits [Offsets[l-1], Offsets[l]).
type Partition struct {
	numCellsInLevel []int32
	offsets         []uint8
	cellNumbers     []uint64
}

// NewPartition builds a Partition for a vertex count and, for each
// level (finest first), the number of cells at that level. Bit widths
// are computed the way MultiLevelPartition::computeBitmap does: the
// smallest width that can hold numCellsInLevel[l]-1.
func NewPartition(vertexCount int, numCellsInLevel []int32) *Partition {
	offsets := make([]uint8, len(numCellsInLevel)+1)
	offsets[0] = 0
	for l, n := range numCellsInLevel {
		width := bits.Len32(uint32(n - 1))
		if n <= 1 {
			width = 0
		}
		offsets[l+1] = offsets[l] + uint8(width)
	}
	return &Partition{
		numCellsInLevel: append([]int32{}, numCellsInLevel...),
		offsets:         offsets,
		cellNumbers:     make([]uint64, vertexCount),
	}
}

// NewPartitionFromRaw reconstructs a Partition from its bit-offset
// vector (the overlay file's "offsets line", §6.2) and a base graph's
// per-vertex packed cell numbers (the base graph file's pvPtr column,
// §6.1) — the two files together carry everything MultiLevelPartition
// itself would persist in the original, split the same way: the base
// graph only carries the opaque packed numbers, the overlay file
// carries the bit layout needed to decode them. numCellsInLevel is
// derived from the data (the widest cell index actually used at each
// level, +1) rather than stored anywhere on the wire.
func NewPartitionFromRaw(offsets []uint8, cellNumbers []uint64) *Partition {
	L := len(offsets) - 1
	p := &Partition{
		offsets:         append([]uint8{}, offsets...),
		cellNumbers:     cellNumbers,
		numCellsInLevel: make([]int32, L),
	}
	for l := 1; l <= L; l++ {
		var max int32 = -1
		for _, c := range cellNumbers {
			if idx := p.CellAtLevel(c, l); idx > max {
				max = idx
			}
		}
		p.numCellsInLevel[l-1] = max + 1
	}
	return p
}

func (self *Partition) NumLevels() int {
	return len(self.numCellsInLevel)
}
func (self *Partition) NumCellsInLevel(level int) int32 {
	return self.numCellsInLevel[level-1]
}
func (self *Partition) Offsets() []uint8 {
	return self.offsets
}

func (self *Partition) GetCellNumber(vertex int32) uint64 {
	return self.cellNumbers[vertex]
}
func (self *Partition) SetCellNumber(vertex int32, cellNumber uint64) {
	self.cellNumbers[vertex] = cellNumber
}

// SetCell packs cellIdx into level l (1-based) of vertex's cell number.
func (self *Partition) SetCell(vertex int32, level int, cellIdx int32) {
	lo := self.offsets[level-1]
	hi := self.offsets[level]
	width := hi - lo
	mask := uint64(1)<<width - 1
	cur := self.cellNumbers[vertex]
	cur &^= mask << lo
	cur |= (uint64(cellIdx) & mask) << lo
	self.cellNumbers[vertex] = cur
}

// CellAtLevel extracts the level-l (1-based) cell index from a packed
// cell number.
func (self *Partition) CellAtLevel(cellNumber uint64, level int) int32 {
	lo := self.offsets[level-1]
	hi := self.offsets[level]
	width := hi - lo
	mask := uint64(1)<<width - 1
	return int32((cellNumber >> lo) & mask)
}

// TruncateToLevel right-shifts away every bit finer than level l,
// leaving only the levels >= l, following LevelInfo::truncateToLevel
// in original_source/ (`cellNumber >> offset[l-1]`). Two cell numbers
// with the same truncation at level l agree on levels l..L and so
// belong to the same level-l cell; vertices nested inside that cell
// at finer levels may still disagree below level l, which is exactly
// why those finer bits are shifted away rather than masked to zero.
func (self *Partition) TruncateToLevel(cellNumber uint64, level int) uint64 {
	return cellNumber >> self.offsets[level-1]
}

// HighestDifferingLevel is the largest level l at which c1 and c2's
// cell numbers differ; 0 if they are identical at every level (i.e.
// they belong to the same finest cell).
func (self *Partition) HighestDifferingLevel(c1, c2 uint64) int {
	diff := c1 ^ c2
	for l := len(self.numCellsInLevel); l >= 1; l-- {
		if diff>>self.offsets[l-1] != 0 {
			return l
		}
	}
	return 0
}

// QueryLevel is the highest level at which v's cell differs from both
// the source and the target cell (the smaller of its two highest
// differing levels), i.e. the overlay level the query should use while
// v is "in the middle" of the search.
func (self *Partition) QueryLevel(sourceCell, targetCell, vertexCell uint64) int {
	a := self.HighestDifferingLevel(sourceCell, vertexCell)
	b := self.HighestDifferingLevel(vertexCell, targetCell)
	if a < b {
		return a
	}
	return b
}
