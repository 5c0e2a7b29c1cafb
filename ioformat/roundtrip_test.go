package ioformat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/customize"
	"github.com/michaelwegner/CRP/structs"
)

// buildFixture is ioformat's own copy of the two-cell line-graph
// fixture shared (in spirit) by comps/customize/query's tests, built
// and customized so WriteMetric/ReadMetric has real stalling tables
// and overlay weights to round-trip.
func buildFixture(t *testing.T) (*comps.GraphBase, *comps.Overlay, *comps.Partition, *comps.Metric) {
	t.Helper()
	edges := []comps.RawEdge{
		{Tail: 0, Head: 1, Attribs: 7},
		{Tail: 1, Head: 0, Attribs: 7},
		{Tail: 1, Head: 2, Attribs: 9},
		{Tail: 2, Head: 1, Attribs: 9},
		{Tail: 2, Head: 3, Attribs: 11},
		{Tail: 3, Head: 2, Attribs: 11},
	}
	base := comps.BuildFromEdges(4, edges, func(v int32, entryOrd, exitOrd int16) structs.TurnType {
		if v == 1 && entryOrd == 0 && exitOrd == 0 {
			return structs.U_TURN
		}
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

	sortedBase, sortedPart, _, err := comps.SortByCell(base, part)
	require.NoError(t, err)

	overlay, mapping := comps.BuildOverlay(sortedBase, sortedPart)
	sortedBase.SetOverlayMapping(mapping)

	metric := comps.NewMetric(comps.DistanceFunction{}, overlay)
	customize.Run(sortedBase, overlay, sortedPart, metric)
	metric.BuildStallingTables(sortedBase)

	return sortedBase, overlay, sortedPart, metric
}

func TestBaseGraphRoundTrip(t *testing.T) {
	base, _, _, _ := buildFixture(t)
	path := filepath.Join(t.TempDir(), "base.graph")

	require.NoError(t, WriteBase(path, base))
	got, err := ReadBase(path)
	require.NoError(t, err)

	require.Equal(t, base.NodeCount(), got.NodeCount())
	require.Equal(t, base.EdgeCount(), got.EdgeCount())
	require.Equal(t, base.MaxEdgesInCell(), got.MaxEdgesInCell())
	require.Equal(t, base.ForwardCellOffsets(), got.ForwardCellOffsets())
	require.Equal(t, base.BackwardCellOffsets(), got.BackwardCellOffsets())
	for v := int32(0); v < int32(base.NodeCount()); v++ {
		require.Equal(t, base.CellNumber(v), got.CellNumber(v))
	}
	for _, m := range base.OverlayMappingEntries() {
		id, ok := got.OverlayVertexFor(m.Vertex, m.Ord, m.IsExit)
		require.True(t, ok)
		require.Equal(t, m.OverlayID, id)
	}
	require.Equal(t, base.TurnType(1, 0, 0), got.TurnType(1, 0, 0))
}

func TestOverlayRoundTrip(t *testing.T) {
	base, overlay, part, _ := buildFixture(t)
	path := filepath.Join(t.TempDir(), "overlay.graph")

	require.NoError(t, WriteOverlay(path, part, overlay))
	gotPart, gotOverlay, err := ReadOverlay(path, base)
	require.NoError(t, err)

	require.Equal(t, part.Offsets(), gotPart.Offsets())
	require.Equal(t, overlay.VertexCount(), gotOverlay.VertexCount())
	require.Equal(t, overlay.WeightVectorSize(), gotOverlay.WeightVectorSize())
	require.Equal(t, overlay.Cells(), gotOverlay.Cells())
	require.Equal(t, overlay.IDMapping(), gotOverlay.IDMapping())
	for id := int32(0); id < int32(overlay.VertexCount()); id++ {
		require.Equal(t, overlay.Vertex(id), gotOverlay.Vertex(id))
	}
}

func TestMetricRoundTrip(t *testing.T) {
	_, _, _, metric := buildFixture(t)
	path := filepath.Join(t.TempDir(), "metric")

	require.NoError(t, WriteMetric(path, metric))
	got, err := ReadMetric(path, comps.DistanceFunction{})
	require.NoError(t, err)

	require.Equal(t, metric.Weights, got.Weights)
	require.Equal(t, metric.TurnTablePtr(), got.TurnTablePtr())
	require.Equal(t, metric.TurnTableDiffs(), got.TurnTableDiffs())
}
