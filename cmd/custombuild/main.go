// Command custombuild is the metric builder of spec §6's CLI surface:
// it reads the base and overlay graphs, computes the overlay weight
// vector and stalling diff tables for the configured cost function
// (§4.D customization), and writes the result as a metric file.
package main

import (
	"fmt"
	"os"

	"golang.org/x/exp/slog"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/config"
	"github.com/michaelwegner/CRP/customize"
	"github.com/michaelwegner/CRP/ioformat"
	"github.com/michaelwegner/CRP/logx"
)

func main() {
	logx.Default(os.Stderr, nil)

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: custombuild <config.yaml>")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		slog.Error("custombuild failed: " + err.Error())
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

	cost := cfg.CostFunction.CostFunction()
	slog.Info("customizing", "cost-function", cfg.CostFunction.String(), "workers", cfg.Workers)
	metric := comps.NewMetric(cost, overlay)
	customize.Run(base, overlay, part, metric)
	metric.BuildStallingTables(base)

	slog.Info("writing metric", "file", cfg.Metric)
	return ioformat.WriteMetric(cfg.Metric, metric)
}
