package query

import (
	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/structs"
)

//*******************************************
// path unpacking (§4.E.3)
//*******************************************

// UnpackPath expands a packed path (as returned in Result.Path) into
// the full sequence of base-graph vertices it represents, recursively
// expanding every overlay shortcut hop down to base edges. The base
// case, unpacking a shortcut that lives in a level-1 cell, recomputes
// the intra-cell shortest path directly over base edges
// (unpackInLowestLevelCell); shortcuts at higher levels recurse one
// level down until they bottom out there.
func (self *Uni) UnpackPath(path []PathStep) []int32 {
	if len(path) == 0 {
		return nil
	}
	verts := []int32{path[0].Vertex}
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		if cur.ShortcutLevel > 0 {
			sub := self.unpackShortcut(prev.ID-self.baseCount, cur.ID-self.baseCount, cur.ShortcutLevel)
			verts = append(verts, sub...)
			continue
		}
		verts = append(verts, cur.Vertex)
	}
	return verts
}

// unpackShortcut expands the intra-cell shortcut from entryID to
// exitID taken at level, returning the base vertices strictly after
// entryID's own vertex, through and including exitID's vertex.
func (self *Uni) unpackShortcut(entryID, exitID int32, level int) []int32 {
	if level <= 1 {
		return self.unpackInLowestLevelCell(entryID, exitID)
	}
	return self.unpackUpperLevel(entryID, exitID, level)
}

// unpackInLowestLevelCell recomputes, directly over base edges
// restricted to the single level-1 cell both entryID and exitID
// border, the shortest path customization originally found when it
// built that cell's weight matrix entry. Grounded on the "unpack
// lowest level cell" base case of CRP path unpacking: customization
// does not retain per-cell shortest-path trees, so unpacking re-runs
// the same bounded Dijkstra customization used, rather than storing
// O(cell-size) parent pointers for every cell up front.
func (self *Uni) unpackInLowestLevelCell(entryID, exitID int32) []int32 {
	ev := self.overlay.Vertex(entryID)
	xv := self.overlay.Vertex(exitID)
	startVertex := ev.OriginalVertex
	startOrd := self.overlay.BaseOrdinal(self.base, entryID)
	// exitID addresses its boundary edge from the exit side (an exit
	// ordinal at the cell-leaving vertex); baseLabel is uniformly
	// entry-ordinal addressed, so the target must come from exitID's
	// twin, the entry vertex on the same boundary edge at its head.
	targetTwinID := xv.NeighborOverlay
	targetTwin := self.overlay.Vertex(targetTwinID)
	targetVertex := targetTwin.OriginalVertex
	targetOrd := self.overlay.BaseOrdinal(self.base, targetTwinID)
	cellTrunc := self.part.TruncateToLevel(ev.CellNumber, 1)

	startLabel := self.baseLabel(startVertex, startOrd)
	targetLabel := self.baseLabel(targetVertex, targetOrd)
	if startLabel == targetLabel {
		return nil
	}

	dist := map[int32]uint32{startLabel: 0}
	parent := map[int32]int32{}
	q := NewIDQueue(int(self.base.MaxEdgesInCell()))
	q.PushOrDecrease(startLabel, 0)

	for q.Len() > 0 {
		id, d, _ := q.Pop()
		if id == targetLabel {
			break
		}
		v := self.vertexOfBaseLabel(id)
		entryOrd := int16(id - self.base.EntryOffset(v))
		self.base.IterateOutEdgesOf(v, entryOrd, func(e int32, fe structs.ForwardEdge, exitOrd int16, turn structs.TurnType) {
			head := fe.Head
			nid := self.baseLabel(head, fe.EntryPoint)
			// targetLabel's own vertex always sits just outside cellTrunc
			// (its backward edge is itself the boundary crossing), so the
			// final hop onto it must be let through even though head
			// otherwise fails the interior-cell check.
			if self.part.TruncateToLevel(self.base.CellNumber(head), 1) != cellTrunc && nid != targetLabel {
				return
			}
			turnCost := self.metric.Cost.GetTurnCost(turn)
			if turnCost >= comps.INF {
				return
			}
			w := self.metric.Cost.GetWeight(attr.UnpackAttribs(fe.Attribs))
			nd := d + turnCost + w
			if old, ok := dist[nid]; !ok || nd < old {
				dist[nid] = nd
				parent[nid] = id
				q.PushOrDecrease(nid, nd)
			}
		})
	}

	// Walk the parent chain from targetLabel back to startLabel, pushing
	// each hop's FROM-vertex rather than its own, mirroring
	// PathUnpacker.cpp's reconstruction loop. The hop landing directly on
	// startLabel is dropped: its FROM-vertex is entryID's own vertex,
	// which the caller (UnpackPath) already emitted for the packed
	// path's entry step, so re-adding it here would duplicate it.
	var chain []int32
	id := targetLabel
	for {
		p, ok := parent[id]
		if !ok {
			break
		}
		if p == startLabel {
			break
		}
		chain = append(chain, self.vertexOfBaseLabel(p))
		id = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// unpackUpperLevel recomputes the shortest chain of level-(level-1)
// shortcuts and boundary-edge crossings entryID's cell weight at
// level was built from, then recursively unpacks each leg.
func (self *Uni) unpackUpperLevel(entryID, exitID int32, level int) []int32 {
	ev := self.overlay.Vertex(entryID)
	cellTrunc := self.part.TruncateToLevel(ev.CellNumber, level)
	subLevel := level - 1

	dist := map[int32]uint32{entryID: 0}
	parent := map[int32]int32{}
	viaExitOf := map[int32]int32{}

	q := NewIDQueue(16)
	q.PushOrDecrease(entryID, 0)
	for q.Len() > 0 {
		id, d, _ := q.Pop()
		if id == exitID {
			break
		}
		self.overlay.ForOutNeighborsOf(self.part, self.metric.Weights, id, subLevel, func(subExit int32, w uint32) {
			if w >= comps.INF {
				return
			}
			nd := d + w
			// exitID is itself always an exit-type vertex (the overall
			// shortcut's own target), reached exactly when a sub-cell's
			// exit point IS exitID — not by crossing its boundary edge,
			// which the caller of unpackUpperLevel handles. Record and
			// enqueue that hit directly, mirroring PathUnpacker.cpp's
			// "if (exit == targetId) push(exit)".
			if subExit == exitID {
				if old, ok := dist[subExit]; !ok || nd < old {
					dist[subExit] = nd
					parent[subExit] = id
					viaExitOf[subExit] = subExit
					q.PushOrDecrease(subExit, nd)
				}
			}

			xv := self.overlay.Vertex(subExit)
			boundaryEdge := self.base.ForwardEdge(xv.OriginalEdge)
			edgeCost := self.metric.Cost.GetWeight(attr.UnpackAttribs(boundaryEdge.Attribs))
			partnerID := xv.NeighborOverlay
			pv := self.overlay.Vertex(partnerID)
			if self.part.TruncateToLevel(pv.CellNumber, level) != cellTrunc {
				return
			}
			nd2 := nd + edgeCost
			if old, ok := dist[partnerID]; !ok || nd2 < old {
				dist[partnerID] = nd2
				parent[partnerID] = id
				viaExitOf[partnerID] = subExit
				q.PushOrDecrease(partnerID, nd2)
			}
		})
	}

	type hop struct {
		fromEntry, exitID, toEntry int32
	}
	var hops []hop
	id := exitID
	for id != entryID {
		p, ok := parent[id]
		if !ok {
			break
		}
		hops = append(hops, hop{fromEntry: p, exitID: viaExitOf[id], toEntry: id})
		id = p
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}

	var verts []int32
	for _, h := range hops {
		sub := self.unpackShortcut(h.fromEntry, h.exitID, subLevel)
		verts = append(verts, sub...)
		// h.toEntry == exitID on the final hop: unpackShortcut already
		// ended its chain on exitID's own vertex, and the post-boundary
		// crossing from there is the caller's concern (exactly as for
		// the lowest-level base case), so nothing more to add. On every
		// earlier hop toEntry is the next sub-cell's entry vertex, which
		// the sub-unpack never saw and must be appended here.
		if h.toEntry != exitID {
			verts = append(verts, self.overlay.Vertex(h.toEntry).OriginalVertex)
		}
	}
	return verts
}
