package ioformat

import (
	"bufio"
	"fmt"
	"os"

	"github.com/michaelwegner/CRP/comps"
	"github.com/michaelwegner/CRP/errs"
)

// WriteMetric writes metric's customized weights and stalling tables
// to path as the plain-text metric file of §6.3. The cost function
// itself is never persisted (it is supplied again at load time via
// ReadMetric, matching Metric::write/read in original_source/).
func WriteMetric(path string, metric *comps.Metric) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	ptr := metric.TurnTablePtr()
	diffs := metric.TurnTableDiffs()
	if _, err := fmt.Fprintf(w, "%d %d %d\n", len(metric.Weights), len(ptr), len(diffs)); err != nil {
		return err
	}
	if err := writeUint32s(w, metric.Weights); err != nil {
		return err
	}
	if err := writeUint32s(w, ptr); err != nil {
		return err
	}
	if err := writeInts(w, diffs); err != nil {
		return err
	}
	return w.Flush()
}

// ReadMetric reads the plain-text metric file of §6.3 back into a
// Metric bound to cost (the caller's chosen CostFunction, selected via
// config/CLI flag per §6.3's note that the cost function itself does
// not travel on the wire).
func ReadMetric(path string, cost comps.CostFunction) (*comps.Metric, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}
	defer f.Close()
	sc := lineScanner(bufio.NewReader(f))

	line, err := nextLine(sc)
	if err != nil {
		return nil, err
	}
	header := fields(line)
	if len(header) != 3 {
		return nil, errs.Wrapf(errs.IO, "ioformat: metric header wants 3 fields, got %d", len(header))
	}
	w, err := parseInt(header[0])
	if err != nil {
		return nil, err
	}
	p, err := parseInt(header[1])
	if err != nil {
		return nil, err
	}
	d, err := parseInt(header[2])
	if err != nil {
		return nil, err
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	weights, err := parseUint32Fields(fields(line))
	if err != nil {
		return nil, err
	}
	if len(weights) != w {
		return nil, errs.Wrapf(errs.IO, "ioformat: metric weights line wants %d fields, got %d", w, len(weights))
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	turnTablePtr, err := parseUint32Fields(fields(line))
	if err != nil {
		return nil, err
	}
	if len(turnTablePtr) != p {
		return nil, errs.Wrapf(errs.IO, "ioformat: metric turnTablePtr line wants %d fields, got %d", p, len(turnTablePtr))
	}

	line, err = nextLine(sc)
	if err != nil {
		return nil, err
	}
	turnTableDiffs, err := parseInt32Fields(fields(line))
	if err != nil {
		return nil, err
	}
	if len(turnTableDiffs) != d {
		return nil, errs.Wrapf(errs.IO, "ioformat: metric turnTableDiffs line wants %d fields, got %d", d, len(turnTableDiffs))
	}

	return comps.LoadMetric(cost, weights, turnTablePtr, turnTableDiffs), nil
}
