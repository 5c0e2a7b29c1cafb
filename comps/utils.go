package comps

import (
	"github.com/michaelwegner/CRP/structs"
)

// RawEdge is one directed input edge: tail -> head and its packed
// attribute word; the turn type of every (incoming,
// outgoing) pair at its endpoints is supplied separately via
// turnOf. Used by BuildFromEdges to assemble entry/exit ordinals and
// a deduplicated turn-table pool the way an external graph builder
// (out of scope per §1) would hand data to the core.
type RawEdge struct {
	Tail, Head int32
	Attribs    uint32
	MaxHeight  float32
}

// BuildFromEdges constructs a GraphBase's forward/backward edge arrays
// and turn-table pool from a flat edge list, computing each edge's
// entry/exit ordinals and the §3 invariant linking them. turnOf(v,
// entryOrd, exitOrd) supplies the turn type at v between its entryOrd-
// th incoming edge and exitOrd-th outgoing edge, in the order edges
// for v appear in edges (grouped by Tail for outgoing, by Head for
// incoming). Adapted from the teacher's _BuildTopology, generalized
// from a plain adjacency array to CSR arrays carrying entry/exit point
// ordinals and shared turn tables.
func BuildFromEdges(nodeCount int, edges []RawEdge, turnOf func(v int32, entryOrd, exitOrd int16) structs.TurnType) *GraphBase {
	outOf := make([][]int32, nodeCount) // edge indices, in order, per tail
	inOf := make([][]int32, nodeCount)  // edge indices, in order, per head
	for i, e := range edges {
		outOf[e.Tail] = append(outOf[e.Tail], int32(i))
		inOf[e.Head] = append(inOf[e.Head], int32(i))
	}

	entryOrdOfEdge := make([]int16, len(edges))
	exitOrdOfEdge := make([]int16, len(edges))
	for v := 0; v < nodeCount; v++ {
		for ord, e := range inOf[v] {
			entryOrdOfEdge[e] = int16(ord)
		}
		for ord, e := range outOf[v] {
			exitOrdOfEdge[e] = int16(ord)
		}
	}

	forward := make([]structs.ForwardEdge, 0, len(edges))
	backward := make([]structs.BackwardEdge, 0, len(edges))
	vertices := make([]structs.Vertex, nodeCount+1)
	dedup := map[string]int32{}
	turnPool := make([]structs.TurnType, 0, nodeCount)

	for v := 0; v < nodeCount; v++ {
		vertices[v].FirstOut = int32(len(forward))
		for _, e := range outOf[v] {
			edge := edges[e]
			forward = append(forward, structs.ForwardEdge{
				Head:       edge.Head,
				EntryPoint: entryOrdOfEdge[e],
				Attribs:    edge.Attribs,
				MaxHeight:  edge.MaxHeight,
			})
		}
		vertices[v].FirstIn = int32(len(backward))
		for _, e := range inOf[v] {
			edge := edges[e]
			backward = append(backward, structs.BackwardEdge{
				Tail:      edge.Tail,
				ExitPoint: exitOrdOfEdge[e],
				Attribs:   edge.Attribs,
				MaxHeight: edge.MaxHeight,
			})
		}

		inDeg := int16(len(inOf[v]))
		outDeg := int16(len(outOf[v]))
		entries := make([]structs.TurnType, int(inDeg)*int(outDeg))
		for i := int16(0); i < inDeg; i++ {
			for j := int16(0); j < outDeg; j++ {
				entries[int(i)*int(outDeg)+int(j)] = turnOf(int32(v), i, j)
			}
		}
		key := turnEntriesKey(entries)
		if off, ok := dedup[key]; ok {
			vertices[v].TurnPtr = off
		} else {
			off := int32(len(turnPool))
			turnPool = append(turnPool, entries...)
			dedup[key] = off
			vertices[v].TurnPtr = off
		}
	}
	vertices[nodeCount] = structs.Vertex{FirstOut: int32(len(forward)), FirstIn: int32(len(backward))}

	return NewGraphBase(vertices, forward, backward, turnPool)
}

func turnEntriesKey(entries []structs.TurnType) string {
	b := make([]byte, len(entries))
	for i, t := range entries {
		b[i] = byte(t)
	}
	return string(b)
}
