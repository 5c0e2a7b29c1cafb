// Package ioformat reads and writes the three on-disk file formats of
// §6: the bzip2-compressed base graph file, the plain-text overlay
// graph file, and the plain-text metric file. Grounded on
// datastructures/Graph.cpp and io/GraphIO.cpp in original_source/ for
// the exact field layout, and on graph_io.go in
// lintang-b-s-Navigatorx (a Go port of the same CRP file formats) for
// the idiomatic Go reading/writing shape: bufio plus
// github.com/dsnet/compress/bzip2, fmt.Fprintf to write, strings.Fields
// plus strconv to read.
package ioformat

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// lineScanner wraps bufio.Scanner with a larger buffer: the turn-pool
// and id-mapping lines can run to hundreds of thousands of
// space-separated integers on a single line.
func lineScanner(r *bufio.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)
	return sc
}

func nextLine(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("ioformat: unexpected end of file")
	}
	return sc.Text(), nil
}

func fields(line string) []string {
	return strings.Fields(line)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}
func parseInt(s string) (int, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	return int(v), err
}
func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}
func parseBool(s string) (bool, error) {
	return s == "1" || s == "true", nil
}

func writeBool(b bool) int {
	if b {
		return 1
	}
	return 0
}

func writeInts(w *bufio.Writer, vals []int32) error {
	for i, v := range vals {
		if i > 0 {
			if _, err := w.WriteString(" "); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(strconv.FormatInt(int64(v), 10)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func writeUint32s(w *bufio.Writer, vals []uint32) error {
	for i, v := range vals {
		if i > 0 {
			if _, err := w.WriteString(" "); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(strconv.FormatUint(uint64(v), 10)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func writeBytes(w *bufio.Writer, vals []byte) error {
	for i, v := range vals {
		if i > 0 {
			if _, err := w.WriteString(" "); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(strconv.FormatUint(uint64(v), 10)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func parseUint32Fields(s []string) ([]uint32, error) {
	out := make([]uint32, len(s))
	for i, tok := range s {
		v, err := parseUint32(tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInt32Fields(s []string) ([]int32, error) {
	out := make([]int32, len(s))
	for i, tok := range s {
		v, err := parseInt32(tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
