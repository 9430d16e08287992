// Package report renders the outcome of a simulation run as text.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/ftlsim/ftl"
)

const blocksPerLine = 8

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}

	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Write prints the per-block write table followed by the run statistics.
func Write(w io.Writer, res ftl.Result, blocks []ftl.Block) error {
	ew := &errWriter{w: w}

	ew.printf("\n=== FTL Simulation Statistics ===\n\n")
	ew.printf("Block writes:\n")

	for i, b := range blocks {
		ew.printf("%3d:%d  ", i, b.WriteCount)
		if (i+1)%blocksPerLine == 0 {
			ew.printf("\n")
		}
	}

	if len(blocks)%blocksPerLine != 0 {
		ew.printf("\n")
	}

	half := len(blocks) / 2
	st := res.Statistics

	ew.printf("\nOutcome              : %s\n", res.Outcome)
	ew.printf("Total logical writes : %d\n", st.LogicalWrites)
	ew.printf("Skipped requests     : %d\n", st.SkippedRequests)
	ew.printf("Total physical writes: %d\n", st.PhysicalWrites)
	ew.printf("Dead blocks          : %d\n", st.DeadBlocks)
	ew.printf("Write distribution   : min=%d  max=%d  avg=%.2f\n",
		st.MinWrites, st.MaxWrites, st.AvgWrites)
	ew.printf("Avg first %d blocks : %.2f\n", half, st.AvgFirstHalf)
	ew.printf("Avg last %d blocks  : %.2f\n\n", len(blocks)-half, st.AvgSecondHalf)

	if res.Outcome == ftl.Exhausted {
		ew.printf("ERROR: No healthy block available after %d of %d requests.\n\n",
			res.StoppedAt, res.Requests)
	}

	ew.printf("Interpretation:\n")
	ew.printf("- If avg1 ≈ avg2 and min/max are close,\n")
	ew.printf("  the wear-leveling algorithm distributes writes evenly.\n")

	return ew.err
}

// WriteSummary prints the statistics of a run on a single line.
func WriteSummary(w io.Writer, res ftl.Result) error {
	st := res.Statistics

	_, err := fmt.Fprintf(w,
		"%s: logical=%d physical=%d dead=%d min=%d max=%d avg=%.2f "+
			"first=%.2f second=%.2f\n",
		res.Outcome, st.LogicalWrites, st.PhysicalWrites, st.DeadBlocks,
		st.MinWrites, st.MaxWrites, st.AvgWrites,
		st.AvgFirstHalf, st.AvgSecondHalf)

	return err
}
