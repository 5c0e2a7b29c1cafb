package query

import (
	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/structs"
)

//*******************************************
// unidirectional CRP query (§4.E.1)
//*******************************************

// PathStep is one element of a packed path: an original vertex plus
// the label id that reached it, following §4.E.3's encoding (id <
// baseCount is a base-graph entry point, id >= baseCount is an
// overlay id offset by baseCount).
type PathStep struct {
	Vertex int32
	ID     int32
	// ShortcutLevel is nonzero when this step is the exit overlay
	// vertex of an intra-cell shortcut taken at that level from the
	// previous step (see query.Uni.UnpackPath).
	ShortcutLevel int
}

// parentInfo records, per label, the label it was relaxed from, for
// path reconstruction (§4.E.3).
type parentInfo struct {
	vertex int32
	id     int32
	valid  bool

	// viaExit is the exit overlay id of the intra-cell shortcut that
	// was just traversed, when this relaxation crossed a cell boundary
	// through the overlay (InvalidID otherwise). Path unpacking uses it
	// to know which entry->exit shortcut needs recursive expansion.
	viaExit int32
	// viaLevel is the overlay level the shortcut named by viaExit was
	// taken at; meaningless when viaExit is InvalidID.
	viaLevel int
}

// Uni is the unidirectional CRP search of §4.E.1: a single Dijkstra
// over the combined base-entry-point and overlay-vertex label space,
// descending into the overlay whenever a vertex's query level rises
// above 0 and returning to the base graph once it falls back to 0 at
// or near the target. Adapted from the teacher's dijkstra.go, replaced
// at the core with the cell-aware relaxation rules of CRP.
type Uni struct {
	base    *comps.GraphBase
	overlay *comps.Overlay
	part    *comps.Partition
	metric  *comps.Metric

	baseCount int32 // label ids < baseCount are base entry points

	dist   []uint32
	round  []uint32
	parent []parentInfo

	currentRound uint32

	baseQueue    *IDQueue
	overlayQueue *IDQueue
}

// NewUni allocates a reusable unidirectional search instance over
// base/overlay/part under metric. One instance is intended to serve
// many queries; state is lazily reset via the round-counter technique
// instead of reallocating dist/round/parent per query.
func NewUni(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric) *Uni {
	baseCount := int32(base.EdgeCount())
	n := int(baseCount) + overlay.VertexCount()
	return &Uni{
		base:         base,
		overlay:      overlay,
		part:         part,
		metric:       metric,
		baseCount:    baseCount,
		dist:         make([]uint32, n),
		round:        make([]uint32, n),
		parent:       make([]parentInfo, n),
		baseQueue:    NewIDQueue(64),
		overlayQueue: NewIDQueue(64),
	}
}

func (self *Uni) baseLabel(v int32, entryOrd int16) int32 {
	return self.base.EntryOffset(v) + int32(entryOrd)
}
func (self *Uni) overlayLabel(overlayID int32) int32 { return self.baseCount + overlayID }

func (self *Uni) isOverlay(id int32) bool { return id >= self.baseCount }

func (self *Uni) getDist(id int32) uint32 {
	if self.round[id] != self.currentRound {
		return comps.INF
	}
	return self.dist[id]
}

// relax lazily initializes id's round-stamped distance the first time
// it is touched this query, then applies newDist if it improves on the
// current value, pushing/decreasing the id in q and recording its
// parent for path reconstruction.
func (self *Uni) relax(id int32, newDist uint32, q *IDQueue, fromVertex, fromID, viaExit int32, viaLevel int) {
	if self.round[id] != self.currentRound {
		self.round[id] = self.currentRound
		self.dist[id] = comps.INF
		self.parent[id] = parentInfo{}
	}
	if newDist < self.dist[id] {
		self.dist[id] = newDist
		self.parent[id] = parentInfo{vertex: fromVertex, id: fromID, valid: true, viaExit: viaExit, viaLevel: viaLevel}
		q.PushOrDecrease(id, newDist)
	}
}

// Result is the outcome of a query: the total cost and the packed
// vertex/id sequence from s to t, ready for path unpacking.
type Result struct {
	Cost  uint32
	Path  []PathStep
	Found bool
}

// EdgeQuery runs the search of §4.E.1 from head(forward(sEdge)) to
// tail(backward(tEdge)), with turn costs suppressed at both endpoints
// per §9 (the path neither "arrives via" nor "departs via" a real
// turn at s or t).
func (self *Uni) EdgeQuery(sEdge, tEdge int32) Result {
	s := self.base.ForwardEdge(sEdge).Head
	sEntryOrd := self.base.ForwardEdge(sEdge).EntryPoint
	t := self.base.BackwardEdge(tEdge).Tail

	return self.run(s, sEntryOrd, t)
}

// VertexQuery is the convenience wrapper of §4.E.1: it picks an
// arbitrary incoming edge at s and searches to t directly, so callers
// that only have vertex ids need not locate a bounding edge. If s has
// no incoming edges, entryOffset(s) aliases the next vertex's first
// real entry point (its own entry range is empty), so it cannot be
// addressed as a synthetic entry label at all; run treats that case
// separately (see expandVirtualSource).
func (self *Uni) VertexQuery(s, t int32) Result {
	return self.run(s, 0, t)
}

func (self *Uni) run(s int32, sEntryOrd int16, t int32) Result {
	self.currentRound++
	self.baseQueue.Reset()
	self.overlayQueue.Reset()

	if s == t {
		return Result{Cost: 0, Path: []PathStep{{Vertex: s, ID: comps.InvalidID}}, Found: true}
	}

	cs := self.base.CellNumber(s)
	ct := self.base.CellNumber(t)

	if self.base.InDegree(s) == 0 {
		self.expandVirtualSource(s, cs, ct)
	} else {
		startID := self.baseLabel(s, sEntryOrd)
		self.round[startID] = self.currentRound
		self.dist[startID] = 0
		self.parent[startID] = parentInfo{}
		self.baseQueue.PushOrDecrease(startID, 0)
	}

	best := comps.INF
	bestID := comps.InvalidID

	for {
		baseKey, baseOK := self.baseQueue.PeekKey()
		overlayKey, overlayOK := self.overlayQueue.PeekKey()
		if !baseOK && !overlayOK {
			break
		}
		min := comps.INF
		if baseOK && baseKey < min {
			min = baseKey
		}
		if overlayOK && overlayKey < min {
			min = overlayKey
		}
		if min >= best {
			break
		}

		useOverlay := overlayOK && (!baseOK || overlayKey < baseKey)
		if useOverlay {
			id, d, _ := self.overlayQueue.Pop()
			v := self.overlay.Vertex(id - self.baseCount)
			if v.OriginalVertex == t {
				if d < best {
					best = d
					bestID = id
				}
				continue
			}
			self.expandOverlay(id, d, cs, ct)
		} else {
			id, d, _ := self.baseQueue.Pop()
			v := self.vertexOfBaseLabel(id)
			if v == t {
				if d < best {
					best = d
					bestID = id
				}
				continue
			}
			self.expandBase(id, v, d, s, t, cs, ct)
		}
	}

	if bestID == comps.InvalidID {
		return Result{Cost: comps.INF, Found: false}
	}
	return Result{Cost: best, Path: self.reconstruct(bestID), Found: true}
}

func (self *Uni) vertexOfBaseLabel(id int32) int32 { return self.base.VertexOfEntryLabel(id) }

// expandVirtualSource seeds the search directly from a source vertex
// with no incoming edges. Such a vertex has no address in the
// entry-point label space at all (entryOffset(s) is, by construction,
// the same as entryOffset(s+1), so it names s+1's own first real
// entry point rather than any entry point of s); pushing a synthetic
// baseLabel(s,0) would silently misattribute every relaxation to
// s+1's turn table and out-edges instead of s's. Since s has no
// incoming edges it can also never be reached from elsewhere, so
// there is no risk of a real relaxation later colliding with this
// vertex — it only ever needs expanding once, up front, with turn
// costs suppressed exactly as expandBase already suppresses them at
// s (§9).
func (self *Uni) expandVirtualSource(s int32, cs, ct uint64) {
	lo := self.base.ExitOffset(s)
	hi := self.base.ExitOffset(s + 1)
	for e := lo; e < hi; e++ {
		fe := self.base.ForwardEdge(e)
		w := self.metric.Cost.GetWeight(attr.UnpackAttribs(fe.Attribs))
		if w >= comps.INF {
			continue
		}
		head := fe.Head
		cv := self.base.CellNumber(head)
		ql := self.part.QueryLevel(cs, ct, cv)
		if ql == 0 {
			self.relax(self.baseLabel(head, fe.EntryPoint), w, self.baseQueue, s, comps.InvalidID, comps.InvalidID, 0)
			continue
		}
		overlayID, ok := self.base.OverlayVertexFor(head, fe.EntryPoint, false)
		if !ok {
			continue
		}
		self.relax(self.overlayLabel(overlayID), w, self.overlayQueue, s, comps.InvalidID, comps.InvalidID, 0)
	}
}

func (self *Uni) expandBase(id, v int32, d uint32, s, t int32, cs, ct uint64) {
	entryOrd := int16(id - self.base.EntryOffset(v))
	suppressTurn := v == s || v == t
	self.base.IterateOutEdgesOf(v, entryOrd, func(e int32, fe structs.ForwardEdge, exitOrd int16, turn structs.TurnType) {
		turnCost := self.metric.Cost.GetTurnCost(turn)
		if suppressTurn {
			turnCost = 0
		}
		if turnCost >= comps.INF {
			return
		}
		w := self.metric.Cost.GetWeight(attr.UnpackAttribs(fe.Attribs))
		newDist := d + turnCost + w
		if newDist >= comps.INF {
			return
		}

		head := fe.Head
		cv := self.base.CellNumber(head)
		ql := self.part.QueryLevel(cs, ct, cv)
		if ql == 0 {
			self.relax(self.baseLabel(head, fe.EntryPoint), newDist, self.baseQueue, v, id, comps.InvalidID, 0)
			return
		}
		overlayID, ok := self.base.OverlayVertexFor(head, fe.EntryPoint, false)
		if !ok {
			return
		}
		self.relax(self.overlayLabel(overlayID), newDist, self.overlayQueue, v, id, comps.InvalidID, 0)
	})
}

func (self *Uni) expandOverlay(id int32, d uint32, cs, ct uint64) {
	entryID := id - self.baseCount
	entryVertex := self.overlay.Vertex(entryID)
	ql := self.part.QueryLevel(cs, ct, entryVertex.CellNumber)
	if ql == 0 {
		// boundary case: an entry overlay vertex whose query level has
		// already collapsed to 0 has nothing left to traverse inside the
		// overlay; it was only reached here via a relaxation performed
		// before the level dropped. Fall through with no neighbors.
		return
	}
	self.overlay.ForOutNeighborsOf(self.part, self.metric.Weights, entryID, ql, func(exitID int32, w uint32) {
		if w >= comps.INF {
			return
		}
		shortcutDist := d + w
		if shortcutDist >= comps.INF {
			return
		}
		exitVertex := self.overlay.Vertex(exitID)
		// the shortcut only covers the intra-cell portion, ending
		// positioned on the boundary edge's exit ordinal; crossing the
		// edge itself still costs the edge's own weight (§4.B: overlay
		// vertices sit AT the boundary, the linking base edge between
		// an exit and its NeighborOverlay twin is not itself inside
		// any cell's shortcut).
		boundaryEdge := self.base.ForwardEdge(exitVertex.OriginalEdge)
		edgeCost := self.metric.Cost.GetWeight(attr.UnpackAttribs(boundaryEdge.Attribs))
		newDist := shortcutDist + edgeCost
		if newDist >= comps.INF {
			return
		}
		partnerID := exitVertex.NeighborOverlay
		partnerVertex := self.overlay.Vertex(partnerID)
		partnerQL := self.part.QueryLevel(cs, ct, partnerVertex.CellNumber)
		if partnerQL == 0 {
			baseOrd := self.overlay.BaseOrdinal(self.base, partnerID)
			self.relax(self.baseLabel(partnerVertex.OriginalVertex, baseOrd), newDist, self.baseQueue, entryVertex.OriginalVertex, id, exitID, ql)
			return
		}
		self.relax(self.overlayLabel(partnerID), newDist, self.overlayQueue, entryVertex.OriginalVertex, id, exitID, ql)
	})
}

// reconstruct walks the parent chain from the label that first reached
// t back to the search start, returning the path in s->t order.
func (self *Uni) reconstruct(lastID int32) []PathStep {
	var steps []PathStep
	id := lastID
	for {
		var v int32
		if self.isOverlay(id) {
			v = self.overlay.Vertex(id - self.baseCount).OriginalVertex
		} else {
			v = self.vertexOfBaseLabel(id)
		}
		steps = append(steps, PathStep{Vertex: v, ID: id})
		p := self.parent[id]
		if !p.valid {
			break
		}
		if p.viaExit != comps.InvalidID {
			exitLabel := self.overlayLabel(p.viaExit)
			exitVertex := self.overlay.Vertex(p.viaExit).OriginalVertex
			steps = append(steps, PathStep{Vertex: exitVertex, ID: exitLabel, ShortcutLevel: p.viaLevel})
		}
		if p.id == comps.InvalidID {
			// virtual root (see expandVirtualSource): p.vertex names the
			// 0-in-degree source directly, since it has no entry-point
			// label of its own to keep walking through.
			steps = append(steps, PathStep{Vertex: p.vertex, ID: comps.InvalidID})
			break
		}
		id = p.id
	}
	// reverse into s->t order
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
