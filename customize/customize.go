// Package customize implements §4.D: computing a Metric's overlay
// weight vector bottom-up, one MLP level at a time, so a new metric
// (a different cost function, or the same cost function after edge
// weights change) can be re-customized without re-partitioning (S5).
//
// Grounded on the teacher's level-parallel build pattern (it computes
// CH shortcuts per contraction round the same way: one Dijkstra per
// affected vertex, rounds run level by level with a barrier between
// them), adapted here to CRP's per-cell Dijkstra and built on
// github.com/sourcegraph/conc's pool for the within-level fan-out.
package customize

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/query"
	"github.com/michaelwegner/CRP/structs"
)

// Run computes metric.Weights for every cell of overlay, level 1
// first (per-cell Dijkstra directly over base edges), then each
// higher level in turn (per-cell Dijkstra over the previous level's
// already-customized overlay shortcuts). Levels run strictly in
// order — level l's cells need level l-1's weights already
// written — but all cells within one level customize concurrently.
func Run(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric) {
	L := part.NumLevels()
	customizeLevel(overlay, part, func(cellIdx int32) {
		customizeLowestCell(base, overlay, part, metric, cellIdx)
	}, overlay.CellsInLevel(1))
	for l := 2; l <= L; l++ {
		level := l
		customizeLevel(overlay, part, func(cellIdx int32) {
			customizeUpperCell(base, overlay, part, metric, cellIdx, level)
		}, overlay.CellsInLevel(level))
	}
}

func customizeLevel(overlay *comps.Overlay, part *comps.Partition, fn func(cellIdx int32), cells []int32) {
	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for _, cellIdx := range cells {
		cellIdx := cellIdx
		p.Go(func() { fn(cellIdx) })
	}
	p.Wait()
}

// customizeLowestCell computes, for cell (a level-1 cell), the cost
// from every entry point to every exit point using only base edges
// interior to the cell, per entry-point Dijkstra. A cell's exit
// distance for an entry is the cost to depart via that exit's
// ordinal, turn cost included, but NOT including the exit edge's own
// weight — the edge itself is crossed later, outside any cell's
// shortcut (§4.B/§4.E).
func customizeLowestCell(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric, cellIdx int32) {
	cell := &overlay.Cells()[cellIdx]

	exitIndexByOverlayID := make(map[int32]int32, cell.NumExit)
	for j := int32(0); j < cell.NumExit; j++ {
		exitIndexByOverlayID[overlay.GetExitPoint(cell, j)] = j
	}

	for i := int32(0); i < cell.NumEntry; i++ {
		entryID := overlay.GetEntryPoint(cell, i)
		ev := overlay.Vertex(entryID)
		startVertex := ev.OriginalVertex
		startOrd := overlay.BaseOrdinal(base, entryID)
		startLabel := base.EntryOffset(startVertex) + int32(startOrd)

		exitDist := make([]uint32, cell.NumExit)
		for j := range exitDist {
			exitDist[j] = comps.INF
		}

		dist := map[int32]uint32{startLabel: 0}
		q := query.NewIDQueue(int(base.MaxEdgesInCell()))
		q.PushOrDecrease(startLabel, 0)
		for q.Len() > 0 {
			id, d, _ := q.Pop()
			v := base.VertexOfEntryLabel(id)
			entryOrd := int16(id - base.EntryOffset(v))
			base.IterateOutEdgesOf(v, entryOrd, func(e int32, fe structs.ForwardEdge, exitOrd int16, turn structs.TurnType) {
				turnCost := metric.Cost.GetTurnCost(turn)
				if turnCost >= comps.INF {
					return
				}
				reachCost := d + turnCost
				if exitOverlayID, ok := base.OverlayVertexFor(v, exitOrd, true); ok {
					if j, ok2 := exitIndexByOverlayID[exitOverlayID]; ok2 {
						if reachCost < exitDist[j] {
							exitDist[j] = reachCost
						}
					}
					return // this edge leaves the cell; no interior continuation
				}
				w := metric.Cost.GetWeight(attr.UnpackAttribs(fe.Attribs))
				nd := reachCost + w
				if nd >= comps.INF {
					return
				}
				nid := base.EntryOffset(fe.Head) + int32(fe.EntryPoint)
				if old, ok := dist[nid]; !ok || nd < old {
					dist[nid] = nd
					q.PushOrDecrease(nid, nd)
				}
			})
		}

		for j := int32(0); j < cell.NumExit; j++ {
			overlay.SetCellWeight(metric.Weights, cell, i, j, exitDist[j])
		}
	}
}

// customizeUpperCell is customizeLowestCell's analogue for level>=2:
// the interior search walks level-(level-1) overlay shortcuts (via
// Overlay.ForOutNeighborsOf) and the base edges linking sibling
// sub-cells, instead of raw base edges.
func customizeUpperCell(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric, cellIdx int32, level int) {
	cell := &overlay.Cells()[cellIdx]
	cellTrunc := cell.TruncCellNumber
	subLevel := level - 1

	exitIndexByOverlayID := make(map[int32]int32, cell.NumExit)
	for j := int32(0); j < cell.NumExit; j++ {
		exitIndexByOverlayID[overlay.GetExitPoint(cell, j)] = j
	}

	for i := int32(0); i < cell.NumEntry; i++ {
		startID := overlay.GetEntryPoint(cell, i)

		exitDist := make([]uint32, cell.NumExit)
		for j := range exitDist {
			exitDist[j] = comps.INF
		}
		// an entry point of this cell is, at the same time, an entry
		// point of the sub-cell it borders; if it is ALSO one of this
		// cell's own exit points (a pass-through boundary vertex),
		// record the zero-cost identity before exploring further.
		if j, ok := exitIndexByOverlayID[startID]; ok {
			exitDist[j] = 0
		}

		dist := map[int32]uint32{startID: 0}
		q := query.NewIDQueue(16)
		q.PushOrDecrease(startID, 0)
		for q.Len() > 0 {
			id, d, _ := q.Pop()
			overlay.ForOutNeighborsOf(part, metric.Weights, id, subLevel, func(subExit int32, w uint32) {
				if w >= comps.INF {
					return
				}
				xv := overlay.Vertex(subExit)
				if j, ok := exitIndexByOverlayID[subExit]; ok {
					reachCost := d + w
					if reachCost < exitDist[j] {
						exitDist[j] = reachCost
					}
				}
				boundaryEdge := base.ForwardEdge(xv.OriginalEdge)
				edgeCost := metric.Cost.GetWeight(attr.UnpackAttribs(boundaryEdge.Attribs))
				partnerID := xv.NeighborOverlay
				partner := overlay.Vertex(partnerID)
				if part.TruncateToLevel(partner.CellNumber, level) != cellTrunc {
					return // leaves this level-l cell entirely
				}
				nd := d + w + edgeCost
				if nd >= comps.INF {
					return
				}
				if old, ok := dist[partnerID]; !ok || nd < old {
					dist[partnerID] = nd
					q.PushOrDecrease(partnerID, nd)
				}
			})
		}

		for j := int32(0); j < cell.NumExit; j++ {
			overlay.SetCellWeight(metric.Weights, cell, i, j, exitDist[j])
		}
	}
}
