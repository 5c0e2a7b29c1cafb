// Package structs holds the plain data records shared by the base graph,
// overlay graph, and metric: the CSR edge/vertex records, the turn-type
// enum, and the overlay vertex/cell records of the data model.
package structs

//*******************************************
// base graph records
//*******************************************

// Vertex is a row of the base graph's vertex array. CellNumber is the
// packed multi-level-partition cell number (see package comps). TurnPtr
// and the FirstOut/FirstIn offsets index into shared, deduplicated
// storage owned by the graph/turn-table.
type Vertex struct {
	CellNumber uint64
	TurnPtr    int32
	FirstOut   int32
	FirstIn    int32
	Lat        float32
	Lon        float32
}

// ForwardEdge is a row of the forward edge array: the head vertex, the
// ordinal of this edge among head's incoming edges (its entry point),
// and the packed attribute word.
type ForwardEdge struct {
	Head       int32
	EntryPoint int16
	Attribs    uint32
	MaxHeight  float32
}

// BackwardEdge is the symmetric counterpart of ForwardEdge: the tail
// vertex and the ordinal of this edge among tail's outgoing edges (its
// exit point).
type BackwardEdge struct {
	Tail      int32
	ExitPoint int16
	Attribs   uint32
	MaxHeight float32
}

// TurnType classifies the transition between two edges at a vertex.
type TurnType byte

const (
	LEFT TurnType = iota
	RIGHT
	STRAIGHT
	U_TURN
	NO_ENTRY
	NONE
)

func (t TurnType) String() string {
	switch t {
	case LEFT:
		return "left"
	case RIGHT:
		return "right"
	case STRAIGHT:
		return "straight"
	case U_TURN:
		return "u_turn"
	case NO_ENTRY:
		return "no_entry"
	case NONE:
		return "none"
	default:
		return "unknown"
	}
}

//*******************************************
// overlay records
//*******************************************

// OverlayVertex is a boundary entry/exit point, see data model §3. Exit
// is true for the first of a twin pair (the outgoing-boundary-edge
// side); NeighborOverlay is the id of its twin. EntryExitPoint[l-1]
// gives the vertex's ordinal within its level-l cell (among entries if
// it is an entry at that level, among exits if it is an exit).
type OverlayVertex struct {
	OriginalVertex  int32
	OriginalEdge    int32
	NeighborOverlay int32
	CellNumber      uint64
	Exit            bool
	EntryExitPoint  []int32
}

// Cell is a level-l overlay cell: NumEntry x NumExit boundary points,
// a row-major weight sub-matrix starting at WeightOffset within the
// flat overlay weight vector, and an id-mapping range starting at
// IdMappingOffset (entries first, then exits).
type Cell struct {
	TruncCellNumber uint64
	NumEntry        int32
	NumExit         int32
	WeightOffset    int32
	IdMappingOffset int32
}
