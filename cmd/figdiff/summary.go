package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hazyhaar/figdiff/figdiff"
)

const nameWidth = 40

// printSummary writes one line per node and a totals line. Names are
// padded by display width so CJK and emoji names keep columns aligned.
func printSummary(w io.Writer, sum figdiff.Summary) {
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		runewidth.FillRight("STATUS", 6),
		runewidth.FillRight("NAME", nameWidth),
		runewidth.FillRight("NODE", 12),
		"DIFF")
	for _, n := range sum.Nodes {
		status := "pass"
		if !n.Equal {
			status = "FAIL"
		}
		name := runewidth.Truncate(n.Name, nameWidth, "…")
		diff := "-"
		if !n.Equal {
			diff = fmt.Sprintf("%.2f%%", n.DiffRatio*100)
		}
		if n.BaselineChanged {
			diff += " (baseline changed)"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			runewidth.FillRight(status, 6),
			runewidth.FillRight(name, nameWidth),
			runewidth.FillRight(n.NodeID, 12),
			diff)
	}
	fmt.Fprintln(w, strings.Repeat("-", 6+2+nameWidth+2+12+2+4))
	fmt.Fprintf(w, "%d passed, %d failed  report: %s\n", sum.Pass, sum.Fail, sum.Dir)
}
