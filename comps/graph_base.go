package comps

import (
	"sort"

	"github.com/michaelwegner/CRP/errs"
	"github.com/michaelwegner/CRP/structs"
)

// INF is the sentinel "infinite" distance, chosen (per §6) so that
// 3*INF does not overflow a 32-bit unsigned distance.
const INF uint32 = 0x55555555

// InvalidID is the sentinel vertex/edge id meaning "no such id".
const InvalidID int32 = -1

// overlayKey addresses a single (originalVertex, ordinal, isExit)
// triple, the base-graph coordinate of one overlay vertex.
type overlayKey struct {
	vertex int32
	ord    int16
	isExit bool
}

// GraphBase is the CSR-style base graph of §3/§4.A: per-vertex
// firstOut/firstIn offsets into forward/backward edge arrays, a
// deduplicated turn-table pool, and (after SortByCell) per-level-1-cell
// base offsets into both edge arrays. Adapted from comps/graph_base.go
// and graph/graph_base.go in the teacher, generalized from a plain
// node/edge CSR to the turn-aware, cell-sorted CRP base graph.
type GraphBase struct {
	vertices []structs.Vertex
	forward  []structs.ForwardEdge
	backward []structs.BackwardEdge

	// turnPool is the flat, deduplicated turn-type array of §6.1's "one
	// line of turn-table entries": Vertex.TurnPtr is a direct offset
	// into it, and a vertex's own in-/out-degree gives the stride
	// (turnPool[ptr+entryOrd*outDeg+exitOrd]), exactly the way
	// Metric.turnTableDiffs addresses its pool. No separate per-vertex
	// size bookkeeping is kept; degrees already determine it.
	turnPool []structs.TurnType

	// forwardCellOffset/backwardCellOffset record, per level-1 cell, the
	// base offset of that cell's contiguous range within forward/backward.
	// Populated by SortByCell; empty before sorting.
	forwardCellOffset  []int32
	backwardCellOffset []int32
	maxEdgesInCell     int32

	overlayMap map[overlayKey]int32
}

// NewGraphBase builds a GraphBase from its vertex array (including the
// trailing sentinel row) and the parallel forward/backward edge arrays
// already carrying consistent entry/exit point ordinals (see
// BuildFromEdges for a builder that computes those ordinals from a
// directed edge list).
func NewGraphBase(vertices []structs.Vertex, forward []structs.ForwardEdge, backward []structs.BackwardEdge, turnPool []structs.TurnType) *GraphBase {
	return &GraphBase{
		vertices: vertices,
		forward:  forward,
		backward: backward,
		turnPool: turnPool,
	}
}

// NewGraphBaseFromRaw reconstructs a cell-sorted GraphBase exactly as
// SortByCell left it, for ioformat.ReadBase (§6.1, P3): every field
// SortByCell would have computed is supplied directly instead of
// recomputed, since it was already persisted on the wire.
func NewGraphBaseFromRaw(vertices []structs.Vertex, forward []structs.ForwardEdge, backward []structs.BackwardEdge, turnPool []structs.TurnType, forwardCellOffset, backwardCellOffset []int32, maxEdgesInCell int32, overlayEntries []OverlayMappingEntry) *GraphBase {
	base := &GraphBase{
		vertices:           vertices,
		forward:            forward,
		backward:           backward,
		turnPool:           turnPool,
		forwardCellOffset:  forwardCellOffset,
		backwardCellOffset: backwardCellOffset,
		maxEdgesInCell:     maxEdgesInCell,
	}
	base.SetOverlayMapping(overlayEntries)
	return base
}

// TurnPool exposes the flat turn-type array for ioformat to persist
// and restore byte-for-byte (§6.1, P3).
func (self *GraphBase) TurnPool() []structs.TurnType { return self.turnPool }

// Vertices, Forward and Backward expose the raw CSR arrays for
// ioformat to persist byte-for-byte (§6.1, P3).
func (self *GraphBase) Vertices() []structs.Vertex       { return self.vertices }
func (self *GraphBase) Forward() []structs.ForwardEdge   { return self.forward }
func (self *GraphBase) Backward() []structs.BackwardEdge { return self.backward }

// ForwardCellOffsets and BackwardCellOffsets expose the per-cell base
// offset arrays computed by SortByCell, for ioformat to persist (§6.1's
// trailing two offset-array lines).
func (self *GraphBase) ForwardCellOffsets() []int32  { return self.forwardCellOffset }
func (self *GraphBase) BackwardCellOffsets() []int32 { return self.backwardCellOffset }

// NodeCount is the number of real vertices. self.vertices carries one
// extra sentinel row at index NodeCount() (FirstOut/FirstIn only, used
// as the upper bound when iterating the last vertex's edge range).
func (self *GraphBase) NodeCount() int { return len(self.vertices) - 1 }
func (self *GraphBase) EdgeCount() int { return len(self.forward) }

func (self *GraphBase) OutDegree(u int32) int32 {
	return self.vertices[u+1].FirstOut - self.vertices[u].FirstOut
}
func (self *GraphBase) InDegree(u int32) int32 {
	return self.vertices[u+1].FirstIn - self.vertices[u].FirstIn
}
func (self *GraphBase) ExitOffset(u int32) int32 { return self.vertices[u].FirstOut }
func (self *GraphBase) EntryOffset(u int32) int32 { return self.vertices[u].FirstIn }

func (self *GraphBase) ForwardEdge(e int32) structs.ForwardEdge   { return self.forward[e] }
func (self *GraphBase) BackwardEdge(e int32) structs.BackwardEdge { return self.backward[e] }

func (self *GraphBase) CellNumber(u int32) uint64 { return self.vertices[u].CellNumber }
func (self *GraphBase) SetCellNumber(u int32, c uint64) { self.vertices[u].CellNumber = c }

func (self *GraphBase) MaxEdgesInCell() int32          { return self.maxEdgesInCell }
func (self *GraphBase) ForwardCellOffset(cell int32) int32  { return self.forwardCellOffset[cell] }
func (self *GraphBase) BackwardCellOffset(cell int32) int32 { return self.backwardCellOffset[cell] }

// TurnType is the constant-time turn-table lookup of §4.A: the turn
// incurred going from entry ordinal entryOrd to exit ordinal exitOrd
// at vertex u.
func (self *GraphBase) TurnType(u int32, entryOrd, exitOrd int16) structs.TurnType {
	outDeg := self.OutDegree(u)
	idx := self.vertices[u].TurnPtr + int32(entryOrd)*outDeg + int32(exitOrd)
	return self.turnPool[idx]
}

// IterateOutEdgesOf yields (forwardEdge, exitOrd, turnType) for every
// outgoing edge of u, given the incoming entry ordinal used to look up
// turn costs.
func (self *GraphBase) IterateOutEdgesOf(u int32, entryOrd int16, fn func(e int32, fe structs.ForwardEdge, exitOrd int16, turn structs.TurnType)) {
	lo := self.vertices[u].FirstOut
	hi := self.vertices[u+1].FirstOut
	for e := lo; e < hi; e++ {
		exitOrd := int16(e - lo)
		fe := self.forward[e]
		turn := self.TurnType(u, entryOrd, exitOrd)
		fn(e, fe, exitOrd, turn)
	}
}

// IterateInEdgesOf yields (backwardEdge, entryOrd, turnType) for every
// incoming edge of u, given the outgoing exit ordinal used to look up
// turn costs (used by backward search).
func (self *GraphBase) IterateInEdgesOf(u int32, exitOrd int16, fn func(e int32, be structs.BackwardEdge, entryOrd int16, turn structs.TurnType)) {
	lo := self.vertices[u].FirstIn
	hi := self.vertices[u+1].FirstIn
	for e := lo; e < hi; e++ {
		entryOrd := int16(e - lo)
		be := self.backward[e]
		turn := self.TurnType(u, entryOrd, exitOrd)
		fn(e, be, entryOrd, turn)
	}
}

// SetOverlayMapping installs the (originalVertex, ordinal, isExit) ->
// overlayId lookup built by the overlay construction (§4.B phase 2).
// It travels with the base graph file (§6.1's O overlay-mapping lines)
// because OverlayVertexFor is specified as a base-graph operation.
func (self *GraphBase) SetOverlayMapping(entries []OverlayMappingEntry) {
	self.overlayMap = make(map[overlayKey]int32, len(entries))
	for _, e := range entries {
		self.overlayMap[overlayKey{e.Vertex, e.Ord, e.IsExit}] = e.OverlayID
	}
}

// OverlayMappingEntry is one row of the base graph's overlay-mapping
// section (§6.1: "originalId ord isExit overlayId").
type OverlayMappingEntry struct {
	Vertex    int32
	Ord       int16
	IsExit    bool
	OverlayID int32
}

func (self *GraphBase) OverlayMappingEntries() []OverlayMappingEntry {
	entries := make([]OverlayMappingEntry, 0, len(self.overlayMap))
	for k, id := range self.overlayMap {
		entries = append(entries, OverlayMappingEntry{k.vertex, k.ord, k.isExit, id})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Vertex != entries[j].Vertex {
			return entries[i].Vertex < entries[j].Vertex
		}
		if entries[i].IsExit != entries[j].IsExit {
			return !entries[i].IsExit
		}
		return entries[i].Ord < entries[j].Ord
	})
	return entries
}

// OverlayVertexFor is the §4.A "overlayVertexFor(u, ord, isExit) ->
// overlayId" hashed lookup. Returns (InvalidID, false) if u's (ord,
// isExit) point is not a boundary point of any cell.
func (self *GraphBase) OverlayVertexFor(u int32, ord int16, isExit bool) (int32, bool) {
	id, ok := self.overlayMap[overlayKey{u, ord, isExit}]
	if !ok {
		return InvalidID, false
	}
	return id, true
}

// VertexOfEntryLabel recovers, via binary search over the monotone
// EntryOffset array, the vertex whose entry-point range contains id
// (id == EntryOffset(v)+ord for some valid ord). Shared by package
// query's forward search and package customize's per-cell Dijkstra so
// neither hand-rolls its own copy.
func (self *GraphBase) VertexOfEntryLabel(id int32) int32 {
	lo, hi := int32(0), int32(self.NodeCount()-1)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if self.EntryOffset(mid) <= id {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// VertexOfExitLabel is VertexOfEntryLabel's mirror over ExitOffset,
// used by package query's backward search.
func (self *GraphBase) VertexOfExitLabel(id int32) int32 {
	lo, hi := int32(0), int32(self.NodeCount()-1)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if self.ExitOffset(mid) <= id {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

//*******************************************
// sort by (level-1) cell (§4.A)
//*******************************************

// SortByCell permutes the vertex array so vertices sharing a level-1
// cell (the finest MLP level, referred to informally as "level-0" in
// §4.A's prose) are contiguous, rewrites both edge arrays to match,
// and records per-cell base offsets plus maxEdgesInCell. It returns
// the new GraphBase, the partition re-keyed to the new vertex ids, and
// the old->new vertex id mapping.
//
// Grounded on Graph::sortVerticesByCellNumber in the original
// implementation (datastructures/Graph.cpp).
func SortByCell(base *GraphBase, part *Partition) (*GraphBase, *Partition, []int32, error) {
	n := base.NodeCount()
	numCells := part.NumCellsInLevel(1)

	// old vertex ids grouped by level-1 cell, cells in ascending order.
	byCell := make([][]int32, numCells)
	for v := 0; v < n; v++ {
		cell := part.CellAtLevel(base.CellNumber(int32(v)), 1)
		byCell[cell] = append(byCell[cell], int32(v))
	}

	oldToNew := make([]int32, n)
	newOrder := make([]int32, 0, n)
	for _, vs := range byCell {
		for _, v := range vs {
			oldToNew[v] = int32(len(newOrder))
			newOrder = append(newOrder, v)
		}
	}
	if len(newOrder) != n {
		return nil, nil, nil, errs.Wrapf(errs.InvariantViolation, "sorted vertex count %d != %d", len(newOrder), n)
	}

	newVertices := make([]structs.Vertex, n+1)
	newPart := NewPartition(n, part.numCellsInLevel)
	for newID, oldID := range newOrder {
		v := base.vertices[oldID]
		newVertices[newID] = v
		newPart.SetCellNumber(int32(newID), part.GetCellNumber(oldID))
	}

	// rebuild forward edges grouped by new tail order, backward edges
	// grouped by new head order. Entry/exit ordinals carry over
	// unchanged, since per-vertex adjacency order is preserved relative
	// to the old arrays (we are only moving the vertex's range, not
	// reordering within it).
	newForward := make([]structs.ForwardEdge, 0, len(base.forward))
	newBackward := make([]structs.BackwardEdge, 0, len(base.backward))
	forwardCellOffset := make([]int32, numCells)
	backwardCellOffset := make([]int32, numCells)
	maxEdgesInCell := int32(0)

	// first pass: compute new firstOut/firstIn and copy the edge ranges.
	for newID, oldID := range newOrder {
		oldV := base.vertices[oldID]
		oldVNext := base.vertices[oldID+1]
		newVertices[newID].FirstOut = int32(len(newForward))
		newVertices[newID].FirstIn = int32(len(newBackward))
		for e := oldV.FirstOut; e < oldVNext.FirstOut; e++ {
			fe := base.forward[e]
			fe.Head = oldToNew[fe.Head]
			newForward = append(newForward, fe)
		}
		for e := oldV.FirstIn; e < oldVNext.FirstIn; e++ {
			be := base.backward[e]
			be.Tail = oldToNew[be.Tail]
			newBackward = append(newBackward, be)
		}
	}
	newVertices[n] = structs.Vertex{FirstOut: int32(len(newForward)), FirstIn: int32(len(newBackward))}
	if len(newForward) != len(base.forward) || len(newBackward) != len(base.backward) {
		return nil, nil, nil, errs.Wrapf(errs.InvariantViolation, "edge array size mismatch after cell sort")
	}

	// second pass: per-cell base offsets and maxEdgesInCell, over
	// contiguous new-id ranges.
	fwdCellStart := int32(0)
	bwdCellStart := int32(0)
	for cell, vs := range byCell {
		if len(vs) == 0 {
			forwardCellOffset[cell] = fwdCellStart
			backwardCellOffset[cell] = bwdCellStart
			continue
		}
		firstNew := oldToNew[vs[0]]
		lastNew := oldToNew[vs[len(vs)-1]]
		fwdLo := newVertices[firstNew].FirstOut
		fwdHi := newVertices[lastNew+1].FirstOut
		bwdLo := newVertices[firstNew].FirstIn
		bwdHi := newVertices[lastNew+1].FirstIn
		forwardCellOffset[cell] = fwdLo
		backwardCellOffset[cell] = bwdLo
		if fwdHi-fwdLo > maxEdgesInCell {
			maxEdgesInCell = fwdHi - fwdLo
		}
		if bwdHi-bwdLo > maxEdgesInCell {
			maxEdgesInCell = bwdHi - bwdLo
		}
		fwdCellStart = fwdHi
		bwdCellStart = bwdHi
	}

	newBase := &GraphBase{
		vertices:           newVertices,
		forward:            newForward,
		backward:           newBackward,
		turnPool:           base.turnPool,
		forwardCellOffset:  forwardCellOffset,
		backwardCellOffset: backwardCellOffset,
		maxEdgesInCell:     maxEdgesInCell,
	}
	if base.overlayMap != nil {
		entries := base.OverlayMappingEntries()
		for i := range entries {
			entries[i].Vertex = oldToNew[entries[i].Vertex]
		}
		newBase.SetOverlayMapping(entries)
	}
	return newBase, newPart, oldToNew, nil
}
