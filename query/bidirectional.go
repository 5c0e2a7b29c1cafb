package query

import (
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/structs"
)

//*******************************************
// parallel bidirectional CRP query (§4.E.2)
//*******************************************

// halfSearch is one direction of the bidirectional search. The
// forward half is identical in spirit to Uni: base labels are keyed
// by entry point, overlay labels are entry-type. The backward half
// searches the reverse graph: base labels are keyed by exit point
// (GraphBase.IterateInEdgesOf/ExitOffset), overlay labels are
// exit-type, and cell shortcuts are read column-wise via
// Overlay.ForInNeighborsOf instead of row-wise via ForOutNeighborsOf.
type halfSearch struct {
	base    *comps.GraphBase
	overlay *comps.Overlay
	part    *comps.Partition
	metric  *comps.Metric

	baseCount int32
	forward   bool

	dist   []uint32
	round  []uint32
	parent []parentInfo

	currentRound uint32

	baseQueue    *IDQueue
	overlayQueue *IDQueue

	// vertexLabels tracks, per original vertex, every distinct ordinal
	// (forward: entry ordinal; backward: exit ordinal) this half has
	// relaxed to so far this round, each with its best distance and
	// label id so far. §4.E.2's meeting rule needs the full set, not
	// just the cheapest: the true meeting cost at v is the minimum
	// over ALL (forward entry, backward exit) pairs of
	// distF[v,entry] + turnCost(entry,exit) + distB[v,exit], since the
	// cheapest entry and the cheapest exit can be blocked from pairing
	// by a turn restriction at v while a locally-suboptimal pair is
	// not.
	// vertexMu guards vertexLabels/vertexRound, which this half's own
	// goroutine writes and the OTHER half's goroutine reads (via
	// forEachLabelAt) to evaluate the meeting condition — the one
	// piece of state genuinely shared across the two workers.
	vertexMu     sync.Mutex
	vertexLabels [][]labelEntry
	vertexRound  []uint32

	// cs/ct are the query's source/target cell numbers, set once per
	// query by Bidirectional.VertexQuery and read by relaxAcrossEdge
	// (expandOverlay receives them as arguments from step instead).
	cs, ct uint64
}

// labelEntry is one ordinal this half has settled at some vertex this
// round: ord is the entry (forward) or exit (backward) ordinal, dist
// its current best distance, label the base/overlay id that achieved
// it (needed to seed path reconstruction once a meeting wins).
type labelEntry struct {
	ord   int16
	dist  uint32
	label int32
}

func newHalfSearch(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric, forward bool) *halfSearch {
	baseCount := int32(base.EdgeCount())
	n := int(baseCount) + overlay.VertexCount()
	return &halfSearch{
		base: base, overlay: overlay, part: part, metric: metric,
		baseCount: baseCount, forward: forward,
		dist: make([]uint32, n), round: make([]uint32, n), parent: make([]parentInfo, n),
		baseQueue: NewIDQueue(64), overlayQueue: NewIDQueue(64),
		vertexLabels: make([][]labelEntry, base.NodeCount()),
		vertexRound:  make([]uint32, base.NodeCount()),
	}
}

// ordinalAt returns the entry (forward) or exit (backward) ordinal id
// addresses at v, whether id is a plain base label or an overlay
// label — Overlay.BaseOrdinal already returns the matching ordinal
// type for an overlay vertex (entry-type for the forward half,
// exit-type for the backward half, per how relaxAcrossEdge/
// expandOverlay produce overlay ids for each half).
func (h *halfSearch) ordinalAt(v, id int32) int16 {
	if h.isOverlay(id) {
		return h.overlay.BaseOrdinal(h.base, id-h.baseCount)
	}
	return int16(id - h.baseOffset(v))
}

func (h *halfSearch) reset() {
	h.currentRound++
	h.baseQueue.Reset()
	h.overlayQueue.Reset()
}

func (h *halfSearch) baseOffset(v int32) int32 {
	if h.forward {
		return h.base.EntryOffset(v)
	}
	return h.base.ExitOffset(v)
}

func (h *halfSearch) baseLabel(v int32, ord int16) int32 { return h.baseOffset(v) + int32(ord) }

func (h *halfSearch) vertexOfBaseLabel(id int32) int32 {
	if h.forward {
		return h.base.VertexOfEntryLabel(id)
	}
	return h.base.VertexOfExitLabel(id)
}

func (h *halfSearch) overlayLabel(overlayID int32) int32 { return h.baseCount + overlayID }
func (h *halfSearch) isOverlay(id int32) bool            { return id >= h.baseCount }

func (h *halfSearch) settledVertexOf(id int32) int32 {
	if h.isOverlay(id) {
		return h.overlay.Vertex(id - h.baseCount).OriginalVertex
	}
	return h.vertexOfBaseLabel(id)
}

func (h *halfSearch) relax(id int32, newDist uint32, q *IDQueue, fromVertex, fromID, viaExit int32, viaLevel int) {
	if h.round[id] != h.currentRound {
		h.round[id] = h.currentRound
		h.dist[id] = comps.INF
		h.parent[id] = parentInfo{}
	}
	if newDist >= h.dist[id] {
		return
	}
	h.dist[id] = newDist
	h.parent[id] = parentInfo{vertex: fromVertex, id: fromID, valid: true, viaExit: viaExit, viaLevel: viaLevel}
	q.PushOrDecrease(id, newDist)

	v := h.settledVertexOf(id)
	h.recordLabelAt(v, id, newDist)
}

// recordLabelAt updates v's settled-ordinal set with id's current
// distance, resetting the set first if this is v's first touch this
// round.
func (h *halfSearch) recordLabelAt(v, id int32, dist uint32) {
	ord := h.ordinalAt(v, id)
	h.vertexMu.Lock()
	defer h.vertexMu.Unlock()
	if h.vertexRound[v] != h.currentRound {
		h.vertexRound[v] = h.currentRound
		h.vertexLabels[v] = h.vertexLabels[v][:0]
	}
	for i := range h.vertexLabels[v] {
		if h.vertexLabels[v][i].ord == ord {
			if dist < h.vertexLabels[v][i].dist {
				h.vertexLabels[v][i].dist = dist
				h.vertexLabels[v][i].label = id
			}
			return
		}
	}
	h.vertexLabels[v] = append(h.vertexLabels[v], labelEntry{ord: ord, dist: dist, label: id})
}

// forEachLabelAt calls fn for every ordinal this half has settled at
// v so far this round. Used by the meeting-in-the-middle check, which
// must try every (forward entry, backward exit) pair at a candidate
// meeting vertex rather than just each side's single cheapest label,
// per §4.E.2's exact meeting rule.
func (h *halfSearch) forEachLabelAt(v int32, fn func(ord int16, dist uint32, label int32)) {
	h.vertexMu.Lock()
	defer h.vertexMu.Unlock()
	if h.vertexRound[v] != h.currentRound {
		return
	}
	for _, e := range h.vertexLabels[v] {
		fn(e.ord, e.dist, e.label)
	}
}

// step pops the combined frontier's minimum and expands it, returning
// the vertex it settled (InvalidID if both queues are empty).
func (h *halfSearch) step(s, t int32, cs, ct uint64) int32 {
	baseKey, baseOK := h.baseQueue.PeekKey()
	overlayKey, overlayOK := h.overlayQueue.PeekKey()
	if !baseOK && !overlayOK {
		return comps.InvalidID
	}
	useOverlay := overlayOK && (!baseOK || overlayKey < baseKey)
	if useOverlay {
		id, d, _ := h.overlayQueue.Pop()
		h.expandOverlay(id, d, cs, ct)
		return h.settledVertexOf(id)
	}
	id, d, _ := h.baseQueue.Pop()
	v := h.vertexOfBaseLabel(id)
	h.expandBase(id, v, d, s, t)
	return v
}

func (h *halfSearch) minKey() (uint32, bool) {
	bk, bOK := h.baseQueue.PeekKey()
	ok, oOK := h.overlayQueue.PeekKey()
	if !bOK && !oOK {
		return 0, false
	}
	if !oOK {
		return bk, true
	}
	if !bOK {
		return ok, true
	}
	if bk < ok {
		return bk, true
	}
	return ok, true
}

func (h *halfSearch) expandBase(id, v int32, d uint32, s, t int32) {
	suppressTurn := v == s || v == t
	if h.forward {
		entryOrd := int16(id - h.base.EntryOffset(v))
		h.applyStalling(v, entryOrd, d)
		h.base.IterateOutEdgesOf(v, entryOrd, func(e int32, fe structs.ForwardEdge, exitOrd int16, turn structs.TurnType) {
			h.relaxAcrossEdge(v, id, d, fe.Head, fe.EntryPoint, attr.UnpackAttribs(fe.Attribs), turn, suppressTurn, false)
		})
		return
	}
	exitOrd := int16(id - h.base.ExitOffset(v))
	h.applyStalling(v, exitOrd, d)
	h.base.IterateInEdgesOf(v, exitOrd, func(e int32, be structs.BackwardEdge, entryOrd int16, turn structs.TurnType) {
		h.relaxAcrossEdge(v, id, d, be.Tail, be.ExitPoint, attr.UnpackAttribs(be.Attribs), turn, suppressTurn, true)
	})
}

// applyStalling implements §4.E.2's stalling tightening step: before
// expanding a label settled at v through its ordinal p (entry ordinal
// forward, exit ordinal backward), every sibling ordinal q at v is
// tightened using the precomputed turn-cost-difference table, since
// dist[q] can never be less than max(0, dist[p]+D(u)[p,q]) — D bounds
// how much cheaper q's own shortest path to v could possibly be than
// p's. This never fabricates a usable label (no parent, no queue
// push, no vertexLabels entry): it only raises the floor a later
// relax() at q must beat, letting hopeless expansions get skipped
// without ever pruning below the true distance (P5).
func (h *halfSearch) applyStalling(v int32, p int16, distP uint32) {
	if h.forward {
		inDeg := int(h.base.InDegree(v))
		for q := 0; q < inDeg; q++ {
			if int16(q) == p {
				continue
			}
			diff := h.metric.GetMaxEntryTurnTableDiff(v, int(p)*inDeg+q)
			h.tightenBase(v, int16(q), distP, diff)
		}
		return
	}
	outDeg := int(h.base.OutDegree(v))
	for q := 0; q < outDeg; q++ {
		if int16(q) == p {
			continue
		}
		diff := h.metric.GetMaxExitTurnTableDiff(v, int(p)*outDeg+q)
		h.tightenBase(v, int16(q), distP, diff)
	}
}

// tightenBase raises the scratch floor for the base label at v's
// ordinal q without touching its parent chain or pushing it into the
// frontier.
func (h *halfSearch) tightenBase(v int32, ord int16, distP uint32, diff int32) {
	candidate := int64(distP) + int64(diff)
	if candidate < 0 {
		candidate = 0
	}
	if candidate >= int64(comps.INF) {
		return
	}
	id := h.baseLabel(v, ord)
	if h.round[id] != h.currentRound {
		h.round[id] = h.currentRound
		h.dist[id] = comps.INF
		h.parent[id] = parentInfo{}
	}
	if uint32(candidate) < h.dist[id] {
		h.dist[id] = uint32(candidate)
	}
}

// relaxAcrossEdge applies one edge traversal, forward or backward,
// mapping into the overlay when the neighbor's query level is
// nonzero. The neighbor's query level is computed against h.cs/h.ct,
// which VertexQuery sets before either half starts, so they are kept
// out of this signature.
func (h *halfSearch) relaxAcrossEdge(v, id int32, d uint32, neighbor int32, neighborOrd int16, a attr.EdgeAttribs, turn structs.TurnType, suppressTurn, isExitEnd bool) {
	turnCost := h.metric.Cost.GetTurnCost(turn)
	if suppressTurn {
		turnCost = 0
	}
	if turnCost >= comps.INF {
		return
	}
	w := h.metric.Cost.GetWeight(a)
	newDist := d + turnCost + w
	if newDist >= comps.INF {
		return
	}

	cNeighbor := h.base.CellNumber(neighbor)
	ql := h.part.QueryLevel(h.cs, h.ct, cNeighbor)
	if ql == 0 {
		h.relax(h.baseLabel(neighbor, neighborOrd), newDist, h.baseQueue, v, id, comps.InvalidID, 0)
		return
	}
	overlayID, ok := h.base.OverlayVertexFor(neighbor, neighborOrd, isExitEnd)
	if !ok {
		return
	}
	h.relax(h.overlayLabel(overlayID), newDist, h.overlayQueue, v, id, comps.InvalidID, 0)
}

func (h *halfSearch) expandOverlay(id int32, d uint32, cs, ct uint64) {
	ov := id - h.baseCount
	v := h.overlay.Vertex(ov)
	ql := h.part.QueryLevel(cs, ct, v.CellNumber)
	if ql == 0 {
		return
	}
	cross := func(otherID int32, w uint32) {
		if w >= comps.INF {
			return
		}
		other := h.overlay.Vertex(otherID)
		boundaryEdge := h.base.ForwardEdge(other.OriginalEdge)
		edgeCost := h.metric.Cost.GetWeight(attr.UnpackAttribs(boundaryEdge.Attribs))
		shortcutDist := d + w
		if shortcutDist >= comps.INF {
			return
		}
		partnerID := other.NeighborOverlay
		partner := h.overlay.Vertex(partnerID)
		newDist := shortcutDist + edgeCost
		if newDist >= comps.INF {
			return
		}
		partnerQL := h.part.QueryLevel(cs, ct, partner.CellNumber)
		if partnerQL == 0 {
			baseOrd := h.overlay.BaseOrdinal(h.base, partnerID)
			h.relax(h.baseLabel(partner.OriginalVertex, baseOrd), newDist, h.baseQueue, v.OriginalVertex, id, otherID, ql)
			return
		}
		h.relax(h.overlayLabel(partnerID), newDist, h.overlayQueue, v.OriginalVertex, id, otherID, ql)
	}
	if h.forward {
		h.overlay.ForOutNeighborsOf(h.part, h.metric.Weights, ov, ql, cross)
	} else {
		h.overlay.ForInNeighborsOf(h.part, h.metric.Weights, ov, ql, cross)
	}
}

// Bidirectional is the §4.E.2 parallel bidirectional CRP query: a
// forward half-search from s and a backward half-search from t run as
// two goroutines joined by a conc.WaitGroup, meeting in the middle.
// Grounded on the teacher's CH bidirectional query shape (two
// independent label spaces, a shared best-meeting-distance, symmetric
// forward/backward relaxation) generalized to CRP's overlay crossing.
type Bidirectional struct {
	base    *comps.GraphBase
	overlay *comps.Overlay
	part    *comps.Partition
	metric  *comps.Metric

	fwd *halfSearch
	bwd *halfSearch
}

func NewBidirectional(base *comps.GraphBase, overlay *comps.Overlay, part *comps.Partition, metric *comps.Metric) *Bidirectional {
	return &Bidirectional{
		base: base, overlay: overlay, part: part, metric: metric,
		fwd: newHalfSearch(base, overlay, part, metric, true),
		bwd: newHalfSearch(base, overlay, part, metric, false),
	}
}

// VertexQuery runs the parallel bidirectional search from s to t.
func (self *Bidirectional) VertexQuery(s, t int32) Result {
	self.fwd.reset()
	self.bwd.reset()
	cs := self.base.CellNumber(s)
	ct := self.base.CellNumber(t)
	self.fwd.cs, self.fwd.ct = cs, ct
	self.bwd.cs, self.bwd.ct = cs, ct

	fwdStart := self.fwd.baseLabel(s, 0)
	self.fwd.round[fwdStart] = self.fwd.currentRound
	self.fwd.dist[fwdStart] = 0
	self.fwd.parent[fwdStart] = parentInfo{}
	self.fwd.recordLabelAt(s, fwdStart, 0)
	self.fwd.baseQueue.PushOrDecrease(fwdStart, 0)

	bwdStart := self.bwd.baseLabel(t, 0)
	self.bwd.round[bwdStart] = self.bwd.currentRound
	self.bwd.dist[bwdStart] = 0
	self.bwd.parent[bwdStart] = parentInfo{}
	self.bwd.recordLabelAt(t, bwdStart, 0)
	self.bwd.baseQueue.PushOrDecrease(bwdStart, 0)

	var mu sync.Mutex
	best := comps.INF
	var bestFwdLabel, bestBwdLabel int32 = comps.InvalidID, comps.InvalidID

	// updateBest implements §4.E.2's exact meeting rule at v: try every
	// (forward entry, backward exit) pair this half has settled at v so
	// far this round, not just each side's single cheapest label, since
	// a turn restriction at v can block the cheapest pair from actually
	// combining while a locally-suboptimal pair still can.
	updateBest := func(v int32) {
		self.fwd.forEachLabelAt(v, func(fOrd int16, fDist uint32, fLabel int32) {
			if fDist >= comps.INF {
				return
			}
			self.bwd.forEachLabelAt(v, func(bOrd int16, bDist uint32, bLabel int32) {
				if bDist >= comps.INF {
					return
				}
				turnCost := uint32(0)
				if v != s && v != t {
					turnCost = self.metric.Cost.GetTurnCost(self.base.TurnType(v, fOrd, bOrd))
				}
				if turnCost >= comps.INF {
					return
				}
				combined := fDist + turnCost + bDist
				if combined >= comps.INF {
					return
				}
				mu.Lock()
				if combined < best {
					best = combined
					bestFwdLabel = fLabel
					bestBwdLabel = bLabel
				}
				mu.Unlock()
			})
		})
	}
	readBest := func() uint32 {
		mu.Lock()
		defer mu.Unlock()
		return best
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		for {
			key, ok := self.fwd.minKey()
			if !ok || key >= readBest() {
				return
			}
			v := self.fwd.step(s, t, cs, ct)
			if v == comps.InvalidID {
				return
			}
			updateBest(v)
		}
	})
	wg.Go(func() {
		for {
			key, ok := self.bwd.minKey()
			if !ok || key >= readBest() {
				return
			}
			v := self.bwd.step(t, s, cs, ct)
			if v == comps.InvalidID {
				return
			}
			updateBest(v)
		}
	})
	wg.Wait()

	if bestFwdLabel == comps.InvalidID {
		return Result{Cost: comps.INF, Found: false}
	}
	path := self.reconstructMeeting(bestFwdLabel, bestBwdLabel)
	return Result{Cost: best, Path: path, Found: true}
}

// reconstructMeeting walks the forward parent chain back to s and the
// backward parent chain back to t, concatenating them at the meeting
// vertex (the meeting vertex itself appears once, from the forward
// side's label).
func (self *Bidirectional) reconstructMeeting(fwdLabel, bwdLabel int32) []PathStep {
	var fwdSteps []PathStep
	id := fwdLabel
	for {
		fwdSteps = append(fwdSteps, pathStepFor(self.fwd, id))
		p := self.fwd.parent[id]
		if !p.valid {
			break
		}
		if p.viaExit != comps.InvalidID {
			exitLabel := self.fwd.overlayLabel(p.viaExit)
			fwdSteps = append(fwdSteps, PathStep{
				Vertex:        self.overlay.Vertex(p.viaExit).OriginalVertex,
				ID:            exitLabel,
				ShortcutLevel: p.viaLevel,
			})
		}
		id = p.id
	}
	for i, j := 0, len(fwdSteps)-1; i < j; i, j = i+1, j-1 {
		fwdSteps[i], fwdSteps[j] = fwdSteps[j], fwdSteps[i]
	}

	var bwdSteps []PathStep
	id = bwdLabel
	for {
		bwdSteps = append(bwdSteps, pathStepFor(self.bwd, id))
		p := self.bwd.parent[id]
		if !p.valid {
			break
		}
		if p.viaExit != comps.InvalidID {
			exitLabel := self.bwd.overlayLabel(p.viaExit)
			bwdSteps = append(bwdSteps, PathStep{
				Vertex:        self.overlay.Vertex(p.viaExit).OriginalVertex,
				ID:            exitLabel,
				ShortcutLevel: p.viaLevel,
			})
		}
		id = p.id
	}
	// bwdSteps walks the backward search's own parent chain, which
	// points from the meeting vertex toward t — already in
	// meeting->t order. Drop the meeting vertex itself (already the
	// last element of fwdSteps) and append the rest as-is.
	if len(bwdSteps) > 0 {
		bwdSteps = bwdSteps[1:]
	}

	return append(fwdSteps, bwdSteps...)
}

func pathStepFor(h *halfSearch, id int32) PathStep {
	return PathStep{Vertex: h.settledVertexOf(id), ID: id}
}
