// Command query is the query benchmark of spec §6's CLI surface: it
// loads the base, overlay, and metric files, runs a batch of
// vertex-to-vertex queries (§4.E.2's parallel bidirectional search)
// read from the configured queries file, and reports each result's
// cost and path length.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"github.com/michaelwegner/CRP/config"
	"github.com/michaelwegner/CRP/ioformat"
	"github.com/michaelwegner/CRP/logx"
	"github.com/michaelwegner/CRP/query"
)

func main() {
	logx.Default(os.Stderr, nil)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: query <config.yaml>")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		slog.Error("query failed: " + err.Error())
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

	slog.Info("reading overlay graph", "file", cfg.Overlay)
	part, overlay, err := ioformat.ReadOverlay(cfg.Overlay, base)
	if err != nil {
		return err
	}

	slog.Info("reading metric", "file", cfg.Metric)
	metric, err := ioformat.ReadMetric(cfg.Metric, cfg.CostFunction.CostFunction())
	if err != nil {
		return err
	}

	pairs, err := readQueries(cfg.Queries)
	if err != nil {
		return err
	}

	bi := query.NewBidirectional(base, overlay, part, metric)

	slog.Info("running queries", "count", len(pairs))
	start := time.Now()
	found := 0
	for _, p := range pairs {
		res := bi.VertexQuery(p[0], p[1])
		if res.Found {
			found++
		}
		fmt.Printf("%d %d %d %d %t\n", p[0], p[1], res.Cost, len(res.Path), res.Found)
	}
	elapsed := time.Since(start)

	slog.Info("done", "queries", len(pairs), "found", found, "elapsed", elapsed.String())
	return nil
}

func readQueries(path string) ([][2]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pairs [][2]int32
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tok := strings.Fields(line)
		if len(tok) != 2 {
			return nil, fmt.Errorf("ioformat: query line %q wants 2 fields, got %d", line, len(tok))
		}
		s, err := strconv.ParseInt(tok[0], 10, 32)
		if err != nil {
			return nil, err
		}
		t, err := strconv.ParseInt(tok[1], 10, 32)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]int32{int32(s), int32(t)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}
