package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/customize"
	"github.com/michaelwegner/CRP/query"
	"github.com/michaelwegner/CRP/structs"
)

// buildQueryFixture is query's own copy of the two-cell line-graph
// fixture used by comps/customize's tests (package-private helpers
// aren't reachable from here, and importing customize from an internal
// query test would be a real import cycle since customize imports
// query itself).
func buildQueryFixture() (*comps.GraphBase, *comps.Overlay, *comps.Partition, *comps.Metric) {
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1, Attribs: 0},
		{Tail: 1, Head: 0, Attribs: 0},
		{Tail: 1, Head: 2, Attribs: 0},
		{Tail: 2, Head: 1, Attribs: 0},
		{Tail: 2, Head: 3, Attribs: 0},
		{Tail: 3, Head: 2, Attribs: 0},
	}
	base := comps.BuildFromEdges(4, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		return structs.NONE
	})

	part := comps.NewPartition(4, []int32{2})
	part.SetCell(0, 1, 0)
	part.SetCell(1, 1, 0)
	part.SetCell(2, 1, 1)
	part.SetCell(3, 1, 1)
	for v := int32(0); v < 4; v++ {
		base.SetCellNumber(v, part.GetCellNumber(v))
	}

	overlay, mapping := comps.BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)

	metric := comps.NewMetric(comps.HopFunction{}, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)
	return base, overlay, part, metric
}

func TestUniVertexQuerySameCellIsDirect(t *testing.T) {
	base, overlay, part, metric := buildQueryFixture()
	u := query.NewUni(base, overlay, part, metric)

	res := u.VertexQuery(0, 1)
	require.True(t, res.Found)
	require.EqualValues(t, 1, res.Cost)
}

func TestUniVertexQueryAcrossCellBoundary(t *testing.T) {
	base, overlay, part, metric := buildQueryFixture()
	u := query.NewUni(base, overlay, part, metric)

	// 0 -> 1 -> 2 -> 3, three hops. With only two cells, every vertex's
	// cell equals either the source's or the target's, so QueryLevel
	// collapses to 0 everywhere and the search never actually needs the
	// overlay: it walks the base graph directly across the one
	// boundary edge, exactly as a direct adjacency would.
	res := u.VertexQuery(0, 3)
	require.True(t, res.Found)
	require.EqualValues(t, 3, res.Cost)
	require.Equal(t, int32(0), res.Path[0].Vertex)
	require.Equal(t, int32(3), res.Path[len(res.Path)-1].Vertex)
}

func TestUniVertexQuerySameVertexIsZeroCost(t *testing.T) {
	base, overlay, part, metric := buildQueryFixture()
	u := query.NewUni(base, overlay, part, metric)

	res := u.VertexQuery(3, 3)
	require.True(t, res.Found)
	require.EqualValues(t, 0, res.Cost)
}

func TestUniVertexQueryZeroInDegreeSource(t *testing.T) {
	// 0 has no incoming edges at all, so its entry-point range is
	// empty and entryOffset(0) aliases vertex 1's own first entry
	// point; VertexQuery must not address 0 as baseLabel(0, 0).
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1, Attribs: 0},
		{Tail: 1, Head: 2, Attribs: 0},
		{Tail: 2, Head: 1, Attribs: 0},
	}
	base := comps.BuildFromEdges(3, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		return structs.NONE
	})
	require.EqualValues(t, 0, base.InDegree(0))

	part := comps.NewPartition(3, []int32{1})
	overlay, mapping := comps.BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)
	metric := comps.NewMetric(comps.HopFunction{}, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)

	u := query.NewUni(base, overlay, part, metric)
	res := u.VertexQuery(0, 2)
	require.True(t, res.Found)
	require.EqualValues(t, 2, res.Cost)
	require.Equal(t, int32(0), res.Path[0].Vertex)
	require.Equal(t, int32(2), res.Path[len(res.Path)-1].Vertex)
}

func TestUniVertexQueryUnreachableIsNotFound(t *testing.T) {
	// one connected pair {0,1} and three isolated vertices, all within
	// one level-1 cell, so no overlay crossing is involved in the
	// non-reachability.
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1},
		{Tail: 1, Head: 0},
	}
	base := comps.BuildFromEdges(5, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		return structs.NONE
	})
	part := comps.NewPartition(5, []int32{1})
	overlay, mapping := comps.BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)
	metric := comps.NewMetric(comps.HopFunction{}, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)

	u := query.NewUni(base, overlay, part, metric)
	res := u.VertexQuery(0, 4)
	require.False(t, res.Found)
	require.EqualValues(t, comps.INF, res.Cost)
}
