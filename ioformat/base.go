package ioformat

import (
	"bufio"
	"fmt"
	"os"

	"github.com/dsnet/compress/bzip2"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/errs"
	"github.com/michaelwegner/CRP/structs"
)

// WriteBase writes base to path as the bzip2-compressed base graph
// file of §6.1. A vertex's packed cell number is deduplicated into a
// pool (in first-occurrence order, matching Precalculation.cpp's
// pvPtr assignment in original_source/) and referenced by pool index
// ("pvPtr") rather than written in full on every vertex line; the pool
// itself follows as the file's "C cell-number lines" section.
// maxEdgesInCell and the forwardEdgeCellOffset/backwardEdgeCellOffset
// arrays (indexed by level-1 cell, as SortByCell computed them) are
// written last.
func WriteBase(path string, base *comps.GraphBase) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	w := bufio.NewWriter(bz)

	vertices := base.Vertices()
	n := base.NodeCount()

	pool, pvPtr := dedupCellNumbers(base, n)
	mapping := base.OverlayMappingEntries()

	if _, err := fmt.Fprintf(w, "%d %d %d %d\n", n, base.EdgeCount(), len(pool), len(mapping)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v := vertices[i]
		if _, err := fmt.Fprintf(w, "%d %d %d %d %g %g\n", pvPtr[i], v.TurnPtr, v.FirstOut, v.FirstIn, v.Lat, v.Lon); err != nil {
			return err
		}
	}
	for _, e := range base.Forward() {
		if _, err := fmt.Fprintf(w, "%d %d %d %g\n", e.Head, e.EntryPoint, e.Attribs, e.MaxHeight); err != nil {
			return err
		}
	}
	for _, e := range base.Backward() {
		if _, err := fmt.Fprintf(w, "%d %d %d %g\n", e.Tail, e.ExitPoint, e.Attribs, e.MaxHeight); err != nil {
			return err
		}
	}
	for _, c := range pool {
		if _, err := fmt.Fprintf(w, "%d\n", c); err != nil {
			return err
		}
	}

	pool2 := base.TurnPool()
	turnInts := make([]int32, len(pool2))
	for i, t := range pool2 {
		turnInts[i] = int32(t)
	}
	if err := writeInts(w, turnInts); err != nil {
		return err
	}

	for _, m := range mapping {
		if _, err := fmt.Fprintf(w, "%d %d %d %d\n", m.Vertex, m.Ord, writeBool(m.IsExit), m.OverlayID); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%d\n", base.MaxEdgesInCell()); err != nil {
		return err
	}
	if err := writeInts(w, base.ForwardCellOffsets()); err != nil {
		return err
	}
	if err := writeInts(w, base.BackwardCellOffsets()); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return bz.Close()
}

// dedupCellNumbers builds the §6.1 cell-number pool in first-occurrence
// vertex order and the corresponding per-vertex pool index (pvPtr).
func dedupCellNumbers(base *comps.GraphBase, n int) ([]uint64, []int32) {
	idx := map[uint64]int32{}
	pool := make([]uint64, 0)
	pvPtr := make([]int32, n)
	for v := 0; v < n; v++ {
		c := base.CellNumber(int32(v))
		if i, ok := idx[c]; ok {
			pvPtr[v] = i
		} else {
			i := int32(len(pool))
			pool = append(pool, c)
			idx[c] = i
			pvPtr[v] = i
		}
	}
	return pool, pvPtr
}

// ReadBase reads the bzip2-compressed base graph file of §6.1 back
// into a GraphBase, resolving each vertex's pvPtr pool index back to
// its full packed cell number.
func ReadBase(path string) (*comps.GraphBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		return nil, err
	}
	sc := lineScanner(bufio.NewReader(bz))

	line, err := nextLine(sc)
	if err != nil {
		return nil, err
	}
	header := fields(line)
	if len(header) != 4 {
		return nil, errs.Wrapf(errs.IO, "ioformat: base graph header wants 4 fields, got %d", len(header))
	}
	n, err := parseInt(header[0])
	if err != nil {
		return nil, err
	}
	m, err := parseInt(header[1])
	if err != nil {
		return nil, err
	}
	c, err := parseInt(header[2])
	if err != nil {
		return nil, err
	}
	o, err := parseInt(header[3])
	if err != nil {
		return nil, err
	}

	vertices := make([]structs.Vertex, n+1)
	pvPtr := make([]int32, n)
	for i := 0; i < n; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		tok := fields(line)
		if len(tok) != 6 {
			return nil, errs.Wrapf(errs.IO, "ioformat: vertex line %d wants 6 fields, got %d", i, len(tok))
		}
		ptr, err := parseInt32(tok[0])
		if err != nil {
			return nil, err
		}
		pvPtr[i] = ptr
		turnPtr, err := parseInt32(tok[1])
		if err != nil {
			return nil, err
		}
		firstOut, err := parseInt32(tok[2])
		if err != nil {
			return nil, err
		}
		firstIn, err := parseInt32(tok[3])
		if err != nil {
			return nil, err
		}
		lat, err := parseFloat32(tok[4])
		if err != nil {
			return nil, err
		}
		lon, err := parseFloat32(tok[5])
		if err != nil {
			return nil, err
		}
		vertices[i] = structs.Vertex{TurnPtr: turnPtr, FirstOut: firstOut, FirstIn: firstIn, Lat: lat, Lon: lon}
	}
	vertices[n] = structs.Vertex{FirstOut: int32(m), FirstIn: int32(m)}

	forward := make([]structs.ForwardEdge, m)
	for i := 0; i < m; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		tok := fields(line)
		if len(tok) != 4 {
			return nil, errs.Wrapf(errs.IO, "ioformat: forward edge line %d wants 4 fields, got %d", i, len(tok))
		}
		head, err := parseInt32(tok[0])
		if err != nil {
			return nil, err
		}
		entryPoint, err := parseInt(tok[1])
		if err != nil {
			return nil, err
		}
		attribs, err := parseUint32(tok[2])
		if err != nil {
			return nil, err
		}
		maxHeight, err := parseFloat32(tok[3])
		if err != nil {
			return nil, err
		}
		forward[i] = structs.ForwardEdge{Head: head, EntryPoint: int16(entryPoint), Attribs: attribs, MaxHeight: maxHeight}
	}

	backward := make([]structs.BackwardEdge, m)
	for i := 0; i < m; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		tok := fields(line)
		if len(tok) != 4 {
			return nil, errs.Wrapf(errs.IO, "ioformat: backward edge line %d wants 4 fields, got %d", i, len(tok))
		}
		tail, err := parseInt32(tok[0])
		if err != nil {
			return nil, err
		}
		exitPoint, err := parseInt(tok[1])
		if err != nil {
			return nil, err
		}
		attribs, err := parseUint32(tok[2])
		if err != nil {
			return nil, err
		}
		maxHeight, err := parseFloat32(tok[3])
		if err != nil {
			return nil, err
		}
		backward[i] = structs.BackwardEdge{Tail: tail, ExitPoint: int16(exitPoint), Attribs: attribs, MaxHeight: maxHeight}
	}

	pool := make([]uint64, c)
	for i := 0; i < c; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		tok := fields(line)
		if len(tok) != 1 {
			return nil, errs.Wrapf(errs.IO, "ioformat: cell-number line %d wants 1 field, got %d", i, len(tok))
		}
		v, err := parseUint64(tok[0])
		if err != nil {
			return nil, err
		}
		pool[i] = v
	}
	for i := 0; i < n; i++ {
		vertices[i].CellNumber = pool[pvPtr[i]]
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	turnToks := fields(line)
	turnPool := make([]structs.TurnType, len(turnToks))
	for i, tok := range turnToks {
		v, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		turnPool[i] = structs.TurnType(v)
	}

	mapping := make([]comps.OverlayMappingEntry, o)
	for i := 0; i < o; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		tok := fields(line)
		if len(tok) != 4 {
			return nil, errs.Wrapf(errs.IO, "ioformat: overlay-mapping line %d wants 4 fields, got %d", i, len(tok))
		}
		vertex, err := parseInt32(tok[0])
		if err != nil {
			return nil, err
		}
		ord, err := parseInt(tok[1])
		if err != nil {
			return nil, err
		}
		isExit, err := parseBool(tok[2])
		if err != nil {
			return nil, err
		}
		overlayID, err := parseInt32(tok[3])
		if err != nil {
			return nil, err
		}
		mapping[i] = comps.OverlayMappingEntry{Vertex: vertex, Ord: int16(ord), IsExit: isExit, OverlayID: overlayID}
	}

	var maxEdgesInCell int32
	var forwardCellOffset, backwardCellOffset []int32
	if c > 0 {
		line, err := nextLine(sc)
		if err != nil {
			return nil, err
		}
		v, err := parseInt32(fields(line)[0])
		if err != nil {
			return nil, err
		}
		maxEdgesInCell = v

		line, err = nextLine(sc)
		if err != nil {
			return nil, err
		}
		forwardCellOffset, err = parseInt32Fields(fields(line))
		if err != nil {
			return nil, err
		}

		line, err = nextLine(sc)
		if err != nil {
			return nil, err
		}
		backwardCellOffset, err = parseInt32Fields(fields(line))
		if err != nil {
			return nil, err
		}
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return comps.NewGraphBaseFromRaw(vertices, forward, backward, turnPool, forwardCellOffset, backwardCellOffset, maxEdgesInCell, mapping), nil
}
