package comps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTwoCellLineGraph wraps buildLineGraph with a single-level
// partition splitting {0,1} into cell 0 and {2,3} into cell 1, so the
// only boundary crossing is the 1<->2 edge pair.
func buildTwoCellLineGraph() (*GraphBase, *Partition) {
	base := buildLineGraph()
	part := NewPartition(4, []int32{2})
	part.SetCell(0, 1, 0)
	part.SetCell(1, 1, 0)
	part.SetCell(2, 1, 1)
	part.SetCell(3, 1, 1)
	for v := int32(0); v < 4; v++ {
		base.SetCellNumber(v, part.GetCellNumber(v))
	}
	return base, part
}

func TestBuildOverlayBoundaryDiscovery(t *testing.T) {
	base, part := buildTwoCellLineGraph()
	overlay, mapping := BuildOverlay(base, part)

	// only the 1<->2 edge pair crosses cells, giving 4 boundary overlay
	// vertices (exit+entry for each of the two directed edges).
	require.Equal(t, 4, overlay.VertexCount())
	require.Len(t, mapping, 4)
	require.EqualValues(t, 4, overlay.VertexCountInLevel(1))

	// two cells, one entry and one exit boundary point each.
	require.Len(t, overlay.Cells(), 2)
	var totalEntry, totalExit int32
	for _, c := range overlay.Cells() {
		totalEntry += c.NumEntry
		totalExit += c.NumExit
	}
	require.EqualValues(t, 2, totalEntry)
	require.EqualValues(t, 2, totalExit)
	require.Equal(t, 2, overlay.WeightVectorSize())
}

func TestBuildOverlayTwinLinkingIsSymmetric(t *testing.T) {
	base, part := buildTwoCellLineGraph()
	overlay, _ := BuildOverlay(base, part)

	for id := int32(0); id < int32(overlay.VertexCount()); id++ {
		v := overlay.Vertex(id)
		twin := overlay.Vertex(v.NeighborOverlay)
		require.Equal(t, id, twin.NeighborOverlay)
		require.NotEqual(t, v.Exit, twin.Exit)
		require.Equal(t, v.OriginalEdge, twin.OriginalEdge)
	}
}

func TestOverlayMappingRoundTrip(t *testing.T) {
	base, part := buildTwoCellLineGraph()
	overlay, mapping := BuildOverlay(base, part)
	base.SetOverlayMapping(mapping)

	for _, m := range mapping {
		id, ok := base.OverlayVertexFor(m.Vertex, m.Ord, m.IsExit)
		require.True(t, ok)
		require.Equal(t, m.OverlayID, id)
	}

	_, ok := base.OverlayVertexFor(0, 0, true)
	require.False(t, ok, "vertex 0's only exit point is interior to its cell, never a boundary point")

	for id := int32(0); id < int32(overlay.VertexCount()); id++ {
		v := overlay.Vertex(id)
		cell, _, ok := overlay.GetCell(part, v, 1)
		require.True(t, ok)
		require.Equal(t, part.TruncateToLevel(v.CellNumber, 1), cell.TruncCellNumber)
	}
}
