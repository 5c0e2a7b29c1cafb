package ioformat

import (
	"bufio"
	"fmt"
	"os"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/errs"
	"github.com/michaelwegner/CRP/structs"
)

// WriteOverlay writes the overlay graph (topology only, no weights —
// those are metric-specific and travel in the metric file, §6.3) to
// path as the plain-text overlay graph file of §6.2.
func WriteOverlay(path string, part *comps.Partition, overlay *comps.Overlay) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	offsets := part.Offsets()
	for i, o := range offsets {
		if i > 0 {
			if _, err := w.WriteString(" "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d", o); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}

	L := part.NumLevels()
	for l := 1; l <= L; l++ {
		if l > 1 {
			if _, err := w.WriteString(" "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d", overlay.VertexCountInLevel(l)); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}

	for _, v := range overlay.Vertices() {
		if _, err := fmt.Fprintf(w, "%d %d %d %d", v.CellNumber, v.NeighborOverlay, v.OriginalVertex, v.OriginalEdge); err != nil {
			return err
		}
		for _, e := range v.EntryExitPoint {
			if _, err := fmt.Fprintf(w, " %d", e); err != nil {
				return err
			}
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%d\n", overlay.WeightVectorSize()); err != nil {
		return err
	}
	if err := writeInts(w, overlay.IDMapping()); err != nil {
		return err
	}

	cells := overlay.Cells()
	cellLevels := overlay.CellLevels()
	for l := 1; l <= L; l++ {
		var idxs []int
		for i, cl := range cellLevels {
			if cl == l {
				idxs = append(idxs, i)
			}
		}
		if _, err := fmt.Fprintf(w, "%d\n", len(idxs)); err != nil {
			return err
		}
		for _, i := range idxs {
			c := cells[i]
			if _, err := fmt.Fprintf(w, "%d %d %d %d %d\n", c.TruncCellNumber, c.NumEntry, c.NumExit, c.WeightOffset, c.IdMappingOffset); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

// ReadOverlay reads the plain-text overlay graph file of §6.2, and
// reconstructs the Partition that decodes its vertices' cell numbers
// by combining the file's offsets line with the cell numbers already
// present on base's vertices (base graph and overlay graph are always
// read together; see comps.NewPartitionFromRaw).
func ReadOverlay(path string, base *comps.GraphBase) (*comps.Partition, *comps.Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	sc := lineScanner(bufio.NewReader(f))

	line, err := nextLine(sc)
	if err != nil {
		return nil, nil, err
	}
	offsetToks := fields(line)
	offsets := make([]byte, len(offsetToks))
	for i, tok := range offsetToks {
		v, err := parseInt32(tok)
		if err != nil {
			return nil, nil, err
		}
		offsets[i] = byte(v)
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, nil, err
	}
	vertexCountInLevel, err := parseInt32Fields(fields(line))
	if err != nil {
		return nil, nil, err
	}
	L := len(vertexCountInLevel)

	vertexCount := int(vertexCountInLevel[0])
	vertices := make([]structs.OverlayVertex, vertexCount)
	for i := 0; i < vertexCount; i++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, nil, err
		}
		tok := fields(line)
		if len(tok) < 4 {
			return nil, nil, errs.Wrapf(errs.IO, "ioformat: overlay vertex line %d wants >=4 fields, got %d", i, len(tok))
		}
		cellNumber, err := parseUint64(tok[0])
		if err != nil {
			return nil, nil, err
		}
		neighbor, err := parseInt32(tok[1])
		if err != nil {
			return nil, nil, err
		}
		originalVertex, err := parseInt32(tok[2])
		if err != nil {
			return nil, nil, err
		}
		originalEdge, err := parseInt32(tok[3])
		if err != nil {
			return nil, nil, err
		}
		entryExitPoint, err := parseInt32Fields(tok[4:])
		if err != nil {
			return nil, nil, err
		}
		vertices[i] = structs.OverlayVertex{
			OriginalVertex:  originalVertex,
			OriginalEdge:    originalEdge,
			NeighborOverlay: neighbor,
			CellNumber:      cellNumber,
			EntryExitPoint:  entryExitPoint,
		}
	}
	for _, e := range base.OverlayMappingEntries() {
		if int(e.OverlayID) >= 0 && int(e.OverlayID) < len(vertices) {
			vertices[e.OverlayID].Exit = e.IsExit
		}
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, nil, err
	}
	weightVectorSize, err := parseInt(line)
	if err != nil {
		return nil, nil, err
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, nil, err
	}
	idMapping, err := parseInt32Fields(fields(line))
	if err != nil {
		return nil, nil, err
	}

	var cells []structs.Cell
	var cellLevels []int
	for l := 1; l <= L; l++ {
		line, err := nextLine(sc)
		if err != nil {
			return nil, nil, err
		}
		cnt, err := parseInt(line)
		if err != nil {
			return nil, nil, err
		}
		for j := 0; j < cnt; j++ {
			line, err := nextLine(sc)
			if err != nil {
				return nil, nil, err
			}
			tok := fields(line)
			if len(tok) != 5 {
				return nil, nil, errs.Wrapf(errs.IO, "ioformat: cell line wants 5 fields, got %d", len(tok))
			}
			trunc, err := parseUint64(tok[0])
			if err != nil {
				return nil, nil, err
			}
			numEntry, err := parseInt32(tok[1])
			if err != nil {
				return nil, nil, err
			}
			numExit, err := parseInt32(tok[2])
			if err != nil {
				return nil, nil, err
			}
			weightOffset, err := parseInt32(tok[3])
			if err != nil {
				return nil, nil, err
			}
			idMappingOffset, err := parseInt32(tok[4])
			if err != nil {
				return nil, nil, err
			}
			cells = append(cells, structs.Cell{
				TruncCellNumber: trunc,
				NumEntry:        numEntry,
				NumExit:         numExit,
				WeightOffset:    weightOffset,
				IdMappingOffset: idMappingOffset,
			})
			cellLevels = append(cellLevels, l)
		}
	}

	baseCellNumbers := make([]uint64, base.NodeCount())
	for v := 0; v < base.NodeCount(); v++ {
		baseCellNumbers[v] = base.CellNumber(int32(v))
	}
	part := comps.NewPartitionFromRaw(offsets, baseCellNumbers)
	overlay := comps.NewOverlayFromRaw(vertices, vertexCountInLevel, cells, cellLevels, idMapping, weightVectorSize)
	return part, overlay, nil
}
