package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/customize"
	"github.com/michaelwegner/CRP/query"
	"github.com/michaelwegner/CRP/structs"
)

// buildThreeCellLineFixture builds the five-vertex line 0-1-2-3-4, split
// into three level-1 cells {0,1}/{2}/{3,4}. Vertex 2's cell differs from
// both the cell of 0 and the cell of 4, so a query from 0 to 4 actually
// relaxes through the overlay (QueryLevel collapses to 0 for every
// vertex in buildQueryFixture's two-cell fixture, which is why that one
// can't exercise this path) and UnpackPath has a real shortcut to
// expand.
func buildThreeCellLineFixture() (*comps.GraphBase, *comps.Overlay, *comps.Partition, *comps.Metric) {
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1},
		{Tail: 1, Head: 0},
		{Tail: 1, Head: 2},
		{Tail: 2, Head: 1},
		{Tail: 2, Head: 3},
		{Tail: 3, Head: 2},
		{Tail: 3, Head: 4},
		{Tail: 4, Head: 3},
	}
	base := comps.BuildFromEdges(5, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		return structs.NONE
	})

	part := comps.NewPartition(5, []int32{3})
	part.SetCell(0, 1, 0)
	part.SetCell(1, 1, 0)
	part.SetCell(2, 1, 1)
	part.SetCell(3, 1, 2)
	part.SetCell(4, 1, 2)
	for v := int32(0); v < 5; v++ {
		base.SetCellNumber(v, part.GetCellNumber(v))
	}

	overlay, mapping := comps.BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)

	metric := comps.NewMetric(comps.HopFunction{}, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)
	return base, overlay, part, metric
}

func TestUnpackPathExpandsOverlayShortcut(t *testing.T) {
	base, overlay, part, metric := buildThreeCellLineFixture()
	u := query.NewUni(base, overlay, part, metric)

	res := u.VertexQuery(0, 4)
	require.True(t, res.Found)
	require.EqualValues(t, 4, res.Cost)

	var sawShortcut bool
	for _, step := range res.Path {
		if step.ShortcutLevel > 0 {
			sawShortcut = true
		}
	}
	require.True(t, sawShortcut, "query crossing vertex 2's lone-vertex cell should take an overlay shortcut")

	verts := u.UnpackPath(res.Path)
	require.Equal(t, []int32{0, 1, 2, 3, 4}, verts)
}

func TestUnpackPathStraightLineWithinOneCell(t *testing.T) {
	base, overlay, part, metric := buildThreeCellLineFixture()
	u := query.NewUni(base, overlay, part, metric)

	res := u.VertexQuery(3, 4)
	require.True(t, res.Found)
	require.EqualValues(t, 1, res.Cost)

	verts := u.UnpackPath(res.Path)
	require.Equal(t, []int32{3, 4}, verts)
}

// buildMultiVertexCellFixture is the seven-vertex line 0-1-2-3-4-5-6,
// split into three level-1 cells {0,1}/{2,3,4}/{5,6}. The middle cell
// has an interior vertex (3) strictly between its entry (2) and exit
// (4) boundary points, so unpacking the overlay shortcut across it
// must recover that interior hop, not just the entry/exit endpoints.
func buildMultiVertexCellFixture() (*comps.GraphBase, *comps.Overlay, *comps.Partition, *comps.Metric) {
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1},
		{Tail: 1, Head: 0},
		{Tail: 1, Head: 2},
		{Tail: 2, Head: 1},
		{Tail: 2, Head: 3},
		{Tail: 3, Head: 2},
		{Tail: 3, Head: 4},
		{Tail: 4, Head: 3},
		{Tail: 4, Head: 5},
		{Tail: 5, Head: 4},
		{Tail: 5, Head: 6},
		{Tail: 6, Head: 5},
	}
	base := comps.BuildFromEdges(7, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		return structs.NONE
	})

	part := comps.NewPartition(7, []int32{3})
	part.SetCell(0, 1, 0)
	part.SetCell(1, 1, 0)
	part.SetCell(2, 1, 1)
	part.SetCell(3, 1, 1)
	part.SetCell(4, 1, 1)
	part.SetCell(5, 1, 2)
	part.SetCell(6, 1, 2)
	for v := int32(0); v < 7; v++ {
		base.SetCellNumber(v, part.GetCellNumber(v))
	}

	overlay, mapping := comps.BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)

	metric := comps.NewMetric(comps.HopFunction{}, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)
	return base, overlay, part, metric
}

func TestUnpackPathRecoversInteriorCellVertex(t *testing.T) {
	base, overlay, part, metric := buildMultiVertexCellFixture()
	u := query.NewUni(base, overlay, part, metric)

	res := u.VertexQuery(0, 6)
	require.True(t, res.Found)
	require.EqualValues(t, 6, res.Cost)

	verts := u.UnpackPath(res.Path)
	require.Equal(t, []int32{0, 1, 2, 3, 4, 5, 6}, verts)
}
