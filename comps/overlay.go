package comps

import (
	"sort"

	"github.com/michaelwegner/CRP/structs"
)

//*******************************************
// overlay graph (§4.B)
//*******************************************

// Overlay is the overlay graph of §3/§4.B: the flat, level-descending
// array of boundary overlay vertices, the per-level cell table, the
// id-mapping array (each cell's entries then exits), and the size of
// the flat per-metric weight vector that customization (§4.D) fills in.
//
// Adapted from comps/overlay.go in the teacher (which wires a
// shortcut/skip-topology pair for contraction hierarchies); here the
// "shortcuts" are CRP's cell-to-cell overlay weights instead.
type Overlay struct {
	vertices           []structs.OverlayVertex
	vertexCountInLevel []int32 // length L; [l-1] = count boundary at level >= l

	cells     []structs.Cell
	cellLevel []int             // parallel to cells: the MLP level each cell belongs to
	cellIdx   map[cellKey]int32 // (level, truncCellNumber) -> index into cells

	idMapping []int32

	// weightVectorSize is Σ_cells numEntry·numExit (§3). The weight
	// vector itself is NOT stored here: it is metric-specific (§4.C),
	// owned by Metric, while the topology above is shared by every
	// metric built over this overlay (S5).
	weightVectorSize int
}

type cellKey struct {
	level int
	trunc uint64
}

// NewOverlayFromRaw reconstructs an Overlay exactly as BuildOverlay left
// it, for ioformat.ReadOverlay (§6.2, P3): every derived field
// (cellIdx, cellLevel) is rebuilt from the persisted arrays instead of
// being itself persisted.
func NewOverlayFromRaw(vertices []structs.OverlayVertex, vertexCountInLevel []int32, cells []structs.Cell, cellLevel []int, idMapping []int32, weightVectorSize int) *Overlay {
	ov := &Overlay{
		vertices:           vertices,
		vertexCountInLevel: vertexCountInLevel,
		cells:              cells,
		cellLevel:          cellLevel,
		idMapping:          idMapping,
		weightVectorSize:   weightVectorSize,
		cellIdx:            make(map[cellKey]int32, len(cells)),
	}
	for i, c := range cells {
		ov.cellIdx[cellKey{cellLevel[i], c.TruncCellNumber}] = int32(i)
	}
	return ov
}

func (self *Overlay) VertexCount() int        { return len(self.vertices) }
func (self *Overlay) Vertices() []structs.OverlayVertex { return self.vertices }
func (self *Overlay) CellLevels() []int       { return self.cellLevel }
func (self *Overlay) Vertex(id int32) structs.OverlayVertex { return self.vertices[id] }
func (self *Overlay) VertexCountInLevel(l int) int32 { return self.vertexCountInLevel[l-1] }
func (self *Overlay) WeightVectorSize() int   { return self.weightVectorSize }
func (self *Overlay) Cells() []structs.Cell   { return self.cells }
func (self *Overlay) IDMapping() []int32      { return self.idMapping }

// CellsInLevel returns the indices into Cells() of every cell at the
// given MLP level, used by package customize to fan out one job per
// cell within a level.
func (self *Overlay) CellsInLevel(level int) []int32 {
	var out []int32
	for i, l := range self.cellLevel {
		if l == level {
			out = append(out, int32(i))
		}
	}
	return out
}

func (self *Overlay) lookupCell(level int, trunc uint64) (*structs.Cell, int32, bool) {
	idx, ok := self.cellIdx[cellKey{level, trunc}]
	if !ok {
		return nil, InvalidID, false
	}
	return &self.cells[idx], idx, true
}

// GetCell returns the cell record for the level-l cell containing v
// (truncated by part).
func (self *Overlay) GetCell(part *Partition, v structs.OverlayVertex, level int) (*structs.Cell, int32, bool) {
	return self.lookupCell(level, part.TruncateToLevel(v.CellNumber, level))
}

// GetEntryPoint returns the overlay id of the i-th entry point of cell.
func (self *Overlay) GetEntryPoint(cell *structs.Cell, i int32) int32 {
	return self.idMapping[cell.IdMappingOffset+i]
}

// GetExitPoint returns the overlay id of the j-th exit point of cell.
func (self *Overlay) GetExitPoint(cell *structs.Cell, j int32) int32 {
	return self.idMapping[cell.IdMappingOffset+cell.NumEntry+j]
}

// CellWeight returns weights[cell.WeightOffset + i*cell.NumExit + j],
// the shortest cost from the cell's i-th entry to its j-th exit (§3
// invariant 3, P4). weights is a metric-specific vector of length
// WeightVectorSize owned by package comps' Metric.
func (self *Overlay) CellWeight(weights []uint32, cell *structs.Cell, i, j int32) uint32 {
	return weights[cell.WeightOffset+i*cell.NumExit+j]
}
func (self *Overlay) SetCellWeight(weights []uint32, cell *structs.Cell, i, j int32, w uint32) {
	weights[cell.WeightOffset+i*cell.NumExit+j] = w
}

// ForOutNeighborsOf calls fn(exitID, weight) for every exit point of
// the level-l cell containing the entry overlay vertex entryID, using
// entryID's precomputed row of that cell's weight matrix. Used by
// customization's upper levels and by unidirectional query relaxation
// at overlay vertices.
func (self *Overlay) ForOutNeighborsOf(part *Partition, weights []uint32, entryID int32, level int, fn func(exitID int32, weight uint32)) {
	v := self.vertices[entryID]
	cell, _, ok := self.GetCell(part, v, level)
	if !ok {
		return
	}
	entryOrd := v.EntryExitPoint[level-1]
	for j := int32(0); j < cell.NumExit; j++ {
		exitID := self.GetExitPoint(cell, j)
		w := self.CellWeight(weights, cell, entryOrd, j)
		fn(exitID, w)
	}
}

// ForInNeighborsOf calls fn(entryID, weight) for every entry point of
// the level-l cell containing the exit overlay vertex exitID, using
// exitID's column of that cell's weight matrix. The backward half of
// parallel bidirectional query (§4.E.2) uses this to walk a cell's
// shortcuts in reverse, from a fixed exit back to each entry.
func (self *Overlay) ForInNeighborsOf(part *Partition, weights []uint32, exitID int32, level int, fn func(entryID int32, weight uint32)) {
	v := self.vertices[exitID]
	cell, _, ok := self.GetCell(part, v, level)
	if !ok {
		return
	}
	exitOrd := v.EntryExitPoint[level-1]
	for i := int32(0); i < cell.NumEntry; i++ {
		entryID := self.GetEntryPoint(cell, i)
		w := self.CellWeight(weights, cell, i, exitOrd)
		fn(entryID, w)
	}
}

//*******************************************
// construction (§4.B phases 1-3)
//*******************************************

type overlayBuilder struct {
	part   *Partition
	base   *GraphBase
	bucket [][]structs.OverlayVertex // [level]
	// parallel array tracking, for bucket[l][i], the sibling index of its
	// twin within the SAME bucket (twins always land in the same level
	// bucket since both sides of an edge share the same HDL).
	twin [][]int32
}

// BuildOverlay runs all three construction phases and returns the
// finished Overlay plus the base-graph overlay-mapping entries (which
// the caller should install via GraphBase.SetOverlayMapping and persist
// per §6.1).
func BuildOverlay(base *GraphBase, part *Partition) (*Overlay, []OverlayMappingEntry) {
	b := &overlayBuilder{
		part:   part,
		base:   base,
		bucket: make([][]structs.OverlayVertex, part.NumLevels()+1),
		twin:   make([][]int32, part.NumLevels()+1),
	}
	b.phase1()
	vertices, countInLevel, mapping := b.phase2()
	ov := &Overlay{
		vertices:           vertices,
		vertexCountInLevel: countInLevel,
		cellIdx:            map[cellKey]int32{},
	}
	ov.phase3(part)
	return ov, mapping
}

// phase1: boundary vertex discovery.
func (b *overlayBuilder) phase1() {
	n := b.base.NodeCount()
	for u := int32(0); u < int32(n); u++ {
		lo := b.base.ExitOffset(u)
		hi := b.base.ExitOffset(u + 1)
		for e := lo; e < hi; e++ {
			fe := b.base.ForwardEdge(e)
			v := fe.Head
			l := b.part.HighestDifferingLevel(b.base.CellNumber(u), b.base.CellNumber(v))
			if l == 0 {
				continue
			}
			exitVert := structs.OverlayVertex{
				OriginalVertex: u,
				OriginalEdge:   e,
				CellNumber:     b.base.CellNumber(u),
				Exit:           true,
				EntryExitPoint: make([]int32, l),
			}
			entryVert := structs.OverlayVertex{
				OriginalVertex: v,
				OriginalEdge:   e,
				CellNumber:     b.base.CellNumber(v),
				Exit:           false,
				EntryExitPoint: make([]int32, l),
			}
			idx := int32(len(b.bucket[l]))
			b.bucket[l] = append(b.bucket[l], exitVert, entryVert)
			b.twin[l] = append(b.twin[l], idx+1, idx)
		}
	}
}

// phase2: per-level sort by cell number, neighbor relinking,
// concatenation highest-level-first, and base-graph mapping.
func (b *overlayBuilder) phase2() ([]structs.OverlayVertex, []int32, []OverlayMappingEntry) {
	L := b.part.NumLevels()
	vertices := make([]structs.OverlayVertex, 0)
	countInLevel := make([]int32, L)
	mapping := make([]OverlayMappingEntry, 0)

	for l := L; l >= 1; l-- {
		bucket := b.bucket[l]
		twin := b.twin[l]
		order := make([]int, len(bucket))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return bucket[order[i]].CellNumber < bucket[order[j]].CellNumber
		})
		oldToNewLocal := make([]int32, len(bucket))
		for newLocal, oldLocal := range order {
			oldToNewLocal[oldLocal] = int32(newLocal)
		}
		base := int32(len(vertices))
		for _, oldLocal := range order {
			ov := bucket[oldLocal]
			newTwinLocal := oldToNewLocal[twin[oldLocal]]
			ov.NeighborOverlay = base + newTwinLocal
			id := int32(len(vertices))
			vertices = append(vertices, ov)
			mapping = append(mapping, OverlayMappingEntry{
				Vertex:    ov.OriginalVertex,
				Ord:       entryExitOrdOf(b.base, ov),
				IsExit:    ov.Exit,
				OverlayID: id,
			})
		}
		countInLevel[l-1] = int32(len(vertices))
	}
	// countInLevel currently holds cumulative counts top-down; that is
	// exactly "boundary at level >= l" since lower levels only add more.
	return vertices, countInLevel, mapping
}

// BaseOrdinal recovers the base-graph ordinal (entry ordinal if id is
// an entry-type overlay vertex, exit ordinal if it is exit-type) that
// id corresponds to at its OriginalVertex. Used when a query crosses
// back from the overlay into the base graph.
func (self *Overlay) BaseOrdinal(base *GraphBase, id int32) int16 {
	return entryExitOrdOf(base, self.vertices[id])
}

// entryExitOrdOf recovers the base-graph ordinal (exit ordinal at the
// tail, or entry ordinal at the head) referenced by an overlay vertex's
// OriginalEdge, for the base-graph overlay-mapping record.
func entryExitOrdOf(base *GraphBase, ov structs.OverlayVertex) int16 {
	if ov.Exit {
		return int16(ov.OriginalEdge - base.ExitOffset(ov.OriginalVertex))
	}
	fe := base.ForwardEdge(ov.OriginalEdge)
	return fe.EntryPoint
}

// phase3: cell table and id-mapping/weight-vector layout.
func (ov *Overlay) phase3(part *Partition) {
	L := part.NumLevels()

	// pass A: assign ordinals and grow cell entry/exit counts, level by
	// level from highest to lowest.
	for l := L; l >= 1; l-- {
		limit := ov.vertexCountInLevel[l-1]
		for id := int32(0); id < limit; id++ {
			v := &ov.vertices[id]
			trunc := part.TruncateToLevel(v.CellNumber, l)
			idx, ok := ov.cellIdx[cellKey{l, trunc}]
			if !ok {
				idx = int32(len(ov.cells))
				ov.cells = append(ov.cells, structs.Cell{TruncCellNumber: trunc})
				ov.cellLevel = append(ov.cellLevel, l)
				ov.cellIdx[cellKey{l, trunc}] = idx
			}
			cell := &ov.cells[idx]
			if v.Exit {
				v.EntryExitPoint[l-1] = cell.NumExit
				cell.NumExit++
			} else {
				v.EntryExitPoint[l-1] = cell.NumEntry
				cell.NumEntry++
			}
		}
	}

	// pass B: running-sum offsets across all cells (order: as created,
	// i.e. highest level first).
	weightOffset := int32(0)
	idMapOffset := int32(0)
	for i := range ov.cells {
		c := &ov.cells[i]
		c.WeightOffset = weightOffset
		c.IdMappingOffset = idMapOffset
		weightOffset += c.NumEntry * c.NumExit
		idMapOffset += c.NumEntry + c.NumExit
	}
	ov.weightVectorSize = int(weightOffset)
	ov.idMapping = make([]int32, idMapOffset)

	// pass C: fill id-mapping array.
	for l := L; l >= 1; l-- {
		limit := ov.vertexCountInLevel[l-1]
		for id := int32(0); id < limit; id++ {
			v := &ov.vertices[id]
			trunc := part.TruncateToLevel(v.CellNumber, l)
			idx := ov.cellIdx[cellKey{l, trunc}]
			cell := &ov.cells[idx]
			ord := v.EntryExitPoint[l-1]
			if v.Exit {
				ov.idMapping[cell.IdMappingOffset+cell.NumEntry+ord] = id
			} else {
				ov.idMapping[cell.IdMappingOffset+ord] = id
			}
		}
	}
}
