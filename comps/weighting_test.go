package comps

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michaelwegner/CRP/attr"
	"github.com/michaelwegner/CRP/structs"
)

func TestHopFunctionWeightsAndTurnCost(t *testing.T) {
	f := HopFunction{}
	require.EqualValues(t, 1, f.GetWeight(attr.EdgeAttribs{Length: 12345}))
	require.EqualValues(t, INF, f.GetTurnCost(structs.U_TURN))
	require.EqualValues(t, INF, f.GetTurnCost(structs.NO_ENTRY))
	require.EqualValues(t, 0, f.GetTurnCost(structs.LEFT))
}

func TestDistanceFunctionWeight(t *testing.T) {
	f := DistanceFunction{}
	require.EqualValues(t, 250, f.GetWeight(attr.EdgeAttribs{Length: 250}))
}

func TestTimeFunctionWeightUsesExplicitSpeed(t *testing.T) {
	f := TimeFunction{}
	// 100m at 36km/h -> 3.6*100/36 = 10s -> 100 tenths of a second.
	w := f.GetWeight(attr.EdgeAttribs{Length: 100, Speed: 36})
	require.EqualValues(t, 100, w)
}

func TestTimeFunctionWeightFallsBackToStreetTypeDefault(t *testing.T) {
	f := TimeFunction{}
	withDefault := f.GetWeight(attr.EdgeAttribs{Length: 100, Type: attr.RESIDENTIAL, Speed: 0})
	withExplicit := f.GetWeight(attr.EdgeAttribs{Length: 100, Speed: attr.DefaultSpeedKMH(attr.RESIDENTIAL)})
	require.Equal(t, withExplicit, withDefault)
}

func TestTimeFunctionClampsToINFOnOverflow(t *testing.T) {
	f := TimeFunction{}
	// EdgeAttribs.Length is an unclamped uint32 (only PackAttribs clamps
	// to the wire format's 20-bit field), so an absurdly long edge at a
	// slow speed drives the raw weight far past INF.
	w := f.GetWeight(attr.EdgeAttribs{Length: 1_000_000_000, Speed: 1})
	require.EqualValues(t, INF, w)
}

func TestMetricBuildStallingTablesDedupesIdenticalDiffs(t *testing.T) {
	base := buildLineGraph()
	metric := &Metric{Cost: HopFunction{}, diffDedup: map[string]int32{}}
	metric.BuildStallingTables(base)

	// every vertex has no blocked turns (buildLineGraph's turnOf always
	// returns NONE), so every diff matrix is all zeros. Identical
	// matrices share one copy: vertices 0 and 3 (in-/out-degree 1) share
	// one 1x1 zero matrix at offset 0, and vertices 1 and 2 (in-/out-
	// degree 2) share one 2x2 zero matrix at offset 1, 5 entries in all.
	require.Len(t, metric.turnTableDiffs, 5)
	for _, d := range metric.turnTableDiffs {
		require.EqualValues(t, 0, d)
	}

	wantOffset := []int32{0, 1, 1, 0}
	for v := int32(0); v < int32(base.NodeCount()); v++ {
		require.EqualValues(t, wantOffset[v], metric.entryDiffOffset(v))
		require.EqualValues(t, wantOffset[v], metric.exitDiffOffset(v))
	}
}

func TestMetricBuildStallingTablesDistinguishesBlockedTurns(t *testing.T) {
	edges := []RawEdge{
		{Tail: 0, Head: 1},
		{Tail: 1, Head: 0},
		{Tail: 1, Head: 2},
	}
	base := BuildFromEdges(3, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		if v == 1 && entryOrd == 0 && exitOrd == 0 {
			return structs.U_TURN
		}
		return structs.NONE
	})
	metric := &Metric{Cost: HopFunction{}, diffDedup: map[string]int32{}}
	metric.BuildStallingTables(base)

	// vertex 1 (in-deg 1, out-deg 2) blocks entry 0 -> exit 0 but allows
	// entry 0 -> exit 1, so its exit-diff matrix is non-zero and must not
	// collapse into vertex 0's (in-deg 1, out-deg 1) or vertex 2's (out-deg 0) all-
	// zero diffs.
	require.Greater(t, len(metric.turnTableDiffs), 1)
}
