package comps

import (
	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/structs"
)

//*******************************************
// cost function (§4.C, §9 "Polymorphism")
//*******************************************

// CostFunction is the one behavior-bearing polymorphic interface of
// the engine: edge weight and turn cost, both metric-dependent.
// Implemented as a small interface with dynamic dispatch, per §9 (the
// sum-type alternative is equally acceptable; this module picks the
// interface form, matching the teacher's IWeighting).
type CostFunction interface {
	GetWeight(a attr.EdgeAttribs) uint32
	GetTurnCost(t structs.TurnType) uint32
}

// turnCostBlocking is the getTurnCosts behavior shared by HopFunction
// and DistanceFunction in the original: U_TURN and NO_ENTRY are
// infinitely expensive, every other turn is free.
func turnCostBlocking(t structs.TurnType) uint32 {
	if t == structs.U_TURN || t == structs.NO_ENTRY {
		return INF
	}
	return 0
}

// HopFunction counts edges: every edge costs 1.
type HopFunction struct{}

func (HopFunction) GetWeight(a attr.EdgeAttribs) uint32    { return 1 }
func (HopFunction) GetTurnCost(t structs.TurnType) uint32  { return turnCostBlocking(t) }

// DistanceFunction is the "shortest" metric: edge cost is its length
// in meters.
type DistanceFunction struct{}

func (DistanceFunction) GetWeight(a attr.EdgeAttribs) uint32   { return a.Length }
func (DistanceFunction) GetTurnCost(t structs.TurnType) uint32 { return turnCostBlocking(t) }

// TimeFunction is the "fastest" metric: edge cost is travel time in
// tenths of a second, computed from length and speed (explicit, or
// the street-type default when the edge carries none), clamped to INF
// on overflow (§7 OutOfRange).
type TimeFunction struct{}

func (TimeFunction) GetWeight(a attr.EdgeAttribs) uint32 {
	speed := a.Speed
	if speed == 0 {
		speed = attr.DefaultSpeedKMH(a.Type)
	}
	// w = 3.6 * length[m] / speed[km/h] gives seconds; scale by 10 to
	// keep sub-second precision in an integer distance type, as the
	// original's w = 3.6*length/speed (seconds) does in floating point.
	w := uint64(a.Length) * 36
	w /= uint64(speed)
	if w >= uint64(INF) {
		return INF
	}
	return uint32(w)
}
func (TimeFunction) GetTurnCost(t structs.TurnType) uint32 { return turnCostBlocking(t) }

//*******************************************
// metric (§4.C): cost function + stalling diff tables
//*******************************************

// Metric bundles a CostFunction with its customized overlay weight
// vector and its per-vertex stalling diff tables (§3, §4.C). The base
// graph and Overlay topology are shared across metrics (S5); Weights
// and the stalling tables (turnTablePtr/turnTableDiffs) are
// metric-specific.
type Metric struct {
	Cost CostFunction

	// Weights is the overlay weight vector, length
	// overlay.WeightVectorSize(), filled by package customize.
	Weights []uint32

	// turnTableDiffs is a single flat array of D_entry/D_exit matrices
	// (signed, since a turn-cost difference can be negative), appended
	// in construction order with identical matrices (byte-for-byte
	// content equality) reusing an earlier offset instead of being
	// appended again. Matches Metric::turnTableDiffs in the original.
	turnTableDiffs []int32
	diffDedup      map[string]int32

	// turnTablePtr packs, per vertex, two 16-bit offsets into
	// turnTableDiffs: entry-diff in the low 16 bits, exit-diff in
	// the high 16 bits. Matches Metric::turnTablePtr in the original.
	turnTablePtr []uint32
}

// NewMetric allocates a Metric over cost with its overlay weight
// vector sized for overlay (uninitialized; customize.Run fills it).
func NewMetric(cost CostFunction, overlay *Overlay) *Metric {
	return &Metric{
		Cost:      cost,
		Weights:   make([]uint32, overlay.WeightVectorSize()),
		diffDedup: map[string]int32{},
	}
}

func (self *Metric) entryDiffOffset(v int32) int32 { return int32(self.turnTablePtr[v] & 0xFFFF) }
func (self *Metric) exitDiffOffset(v int32) int32  { return int32(self.turnTablePtr[v] >> 16) }

// GetMaxEntryTurnTableDiff returns D_entry(v)[i,j] at flat index
// i*inDeg+j, used by stalling (§4.E.2, P5).
func (self *Metric) GetMaxEntryTurnTableDiff(v int32, flatIdx int) int32 {
	off := self.entryDiffOffset(v)
	return self.turnTableDiffs[off+int32(flatIdx)]
}

// GetMaxExitTurnTableDiff returns D_exit(v)[i,j] at flat index
// i*outDeg+j.
func (self *Metric) GetMaxExitTurnTableDiff(v int32, flatIdx int) int32 {
	off := self.exitDiffOffset(v)
	return self.turnTableDiffs[off+int32(flatIdx)]
}

// TurnTablePtr and TurnTableDiffs expose the two flat arrays of the
// metric file's "P" and "D" sections (§6.3) for ioformat to persist
// and restore byte-for-byte (P3).
func (self *Metric) TurnTablePtr() []uint32   { return self.turnTablePtr }
func (self *Metric) TurnTableDiffs() []int32  { return self.turnTableDiffs }

// LoadMetric reconstructs a Metric from a metric file's three arrays
// (§6.3) plus the cost function the caller selected (the cost
// function itself is not persisted; it travels via config/CLI flag,
// matching the original's read(stream, metric, costFunction)).
func LoadMetric(cost CostFunction, weights []uint32, turnTablePtr []uint32, turnTableDiffs []int32) *Metric {
	return &Metric{
		Cost:           cost,
		Weights:        weights,
		turnTablePtr:   turnTablePtr,
		turnTableDiffs: turnTableDiffs,
		diffDedup:      map[string]int32{},
	}
}

// BuildStallingTables computes, for every vertex, the entry- and
// exit-diff matrices of §3 from base's turn tables under self.Cost,
// deduplicating identical matrices by content (§4.C). Call once after
// Weights has been customized (diffs are turn-cost-derived, not
// distance-derived, so they do not actually depend on Weights, but
// grouping the two build steps under one Metric mirrors the original
// Metric::build, which does both from a single CostFunction pass).
func (self *Metric) BuildStallingTables(base *GraphBase) {
	n := base.NodeCount()
	self.turnTablePtr = make([]uint32, n)
	for v := int32(0); v < int32(n); v++ {
		inDeg := int(base.InDegree(v))
		outDeg := int(base.OutDegree(v))

		entryDiff := make([]int32, inDeg*inDeg)
		for i := 0; i < inDeg; i++ {
			for j := 0; j < inDeg; j++ {
				max := int32(minusInf)
				for k := 0; k < outDeg; k++ {
					ti := int32(self.Cost.GetTurnCost(base.TurnType(v, int16(i), int16(k))))
					tj := int32(self.Cost.GetTurnCost(base.TurnType(v, int16(j), int16(k))))
					d := ti - tj
					if d > max {
						max = d
					}
				}
				if max == minusInf {
					max = 0
				}
				entryDiff[i*inDeg+j] = max
			}
		}

		exitDiff := make([]int32, outDeg*outDeg)
		for i := 0; i < outDeg; i++ {
			for j := 0; j < outDeg; j++ {
				max := int32(minusInf)
				for k := 0; k < inDeg; k++ {
					tki := int32(self.Cost.GetTurnCost(base.TurnType(v, int16(k), int16(i))))
					tkj := int32(self.Cost.GetTurnCost(base.TurnType(v, int16(k), int16(j))))
					d := tki - tkj
					if d > max {
						max = d
					}
				}
				if max == minusInf {
					max = 0
				}
				exitDiff[i*outDeg+j] = max
			}
		}

		entryOff := self.dedupDiff(entryDiff)
		exitOff := self.dedupDiff(exitDiff)
		self.turnTablePtr[v] = uint32(entryOff) | (uint32(exitOff) << 16)
	}
}

const minusInf = -(1 << 30)

func (self *Metric) dedupDiff(d []int32) int32 {
	key := diffKey(d)
	if off, ok := self.diffDedup[key]; ok {
		return off
	}
	off := int32(len(self.turnTableDiffs))
	self.turnTableDiffs = append(self.turnTableDiffs, d...)
	self.diffDedup[key] = off
	return off
}

func diffKey(d []int32) string {
	b := make([]byte, len(d)*4)
	for i, v := range d {
		b[i*4] = byte(v)
		b[i*4+1] = byte(v >> 8)
		b[i*4+2] = byte(v >> 16)
		b[i*4+3] = byte(v >> 24)
	}
	return string(b)
}
