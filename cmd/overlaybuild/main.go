// Command overlaybuild is the partition→overlay precalculator of
// spec §6's CLI surface: it reads a base graph whose vertices already
// carry packed cell numbers (assigned upstream by the out-of-scope
// graph partitioner), sorts the graph by cell, and writes back the
// sorted base graph plus the overlay graph derived from it.
package main

import (
	"fmt"
	"os"

	"golang.org/x/exp/slog"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/config"
	"github.com/michaelwegner/CRP/ioformat"
	"github.com/michaelwegner/CRP/logx"
)

func main() {
	logx.Default(os.Stderr, nil)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: overlaybuild <config.yaml>")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		slog.Error("overlaybuild failed: " + err.Error())
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.ReadConfig(configPath)

	slog.Info("reading base graph", "file", cfg.Graph)
	base, err := ioformat.ReadBase(cfg.Graph)
	if err != nil {
		return err
	}

	cellNumbers := make([]uint64, base.NodeCount())
	for v := 0; v < base.NodeCount(); v++ {
		cellNumbers[v] = base.CellNumber(int32(v))
	}
	part := comps.NewPartitionFromRaw(cfg.PartitionOffsets, cellNumbers)

	slog.Info("sorting base graph by cell")
	sortedBase, sortedPart, _, err := comps.SortByCell(base, part)
	if err != nil {
		return err
	}

	slog.Info("building overlay graph")
	overlay, mapping := comps.BuildOverlay(sortedBase, sortedPart)
	sortedBase.SetOverlayMapping(mapping)

	slog.Info("writing base graph", "file", cfg.Graph)
	if err := ioformat.WriteBase(cfg.Graph, sortedBase); err != nil {
		return err
	}

	slog.Info("writing overlay graph", "file", cfg.Overlay, "vertices", overlay.VertexCount())
	return ioformat.WriteOverlay(cfg.Overlay, sortedPart, overlay)
}
