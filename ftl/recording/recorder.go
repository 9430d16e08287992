package recording

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/sarchlab/ftlsim/ftl"
)

// Table names used by the Recorder.
const (
	WriteTable = "ftl_write"
	BlockTable = "ftl_block"
	RunTable   = "ftl_run"
)

type writeEntry struct {
	RunID      string
	Seq        int
	LBA        int
	Block      int
	Offset     uint64
	PrevBlock  int
	WriteCount uint64
	Retired    bool
}

type blockEntry struct {
	RunID      string
	Block      int
	WriteCount uint64
	IsDead     bool
}

type runEntry struct {
	RunID           string
	Runner          string
	Outcome         string
	NumBlocks       int
	NumLogical      int
	BlockSize       int
	Lifespan        int
	LogicalWrites   int
	SkippedRequests int
	PhysicalWrites  uint64
	DeadBlocks      int
	MinWrites       uint64
	MaxWrites       uint64
	AvgWrites       float64
	AvgFirstHalf    float64
	AvgSecondHalf   float64
	StoppedAt       int
	Requests        int
}

// A Recorder is a hook that traces every write of a runner and stores the
// terminal wear of each run.
type Recorder struct {
	dataRecorder DataRecorder
	runID        string
	traceWrites  bool
}

// NewRecorder creates the tables it needs in dataRecorder. If traceWrites is
// false, only per-block and per-run records are kept.
func NewRecorder(dataRecorder DataRecorder, traceWrites bool) (*Recorder, error) {
	r := &Recorder{
		dataRecorder: dataRecorder,
		traceWrites:  traceWrites,
	}

	if traceWrites {
		if err := dataRecorder.CreateTable(WriteTable, writeEntry{}); err != nil {
			return nil, err
		}
	}

	if err := dataRecorder.CreateTable(BlockTable, blockEntry{}); err != nil {
		return nil, err
	}

	if err := dataRecorder.CreateTable(RunTable, runEntry{}); err != nil {
		return nil, err
	}

	r.StartRun()

	return r, nil
}

// StartRun assigns a new ID to the records that follow and returns it.
func (r *Recorder) StartRun() string {
	r.runID = xid.New().String()
	return r.runID
}

// RunID returns the ID of the current run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Func records write events.
func (r *Recorder) Func(ctx ftl.HookCtx) {
	if !r.traceWrites || ctx.Pos != ftl.HookPosBlockWritten {
		return
	}

	evt, ok := ctx.Detail.(ftl.WriteEvent)
	if !ok {
		return
	}

	err := r.dataRecorder.InsertData(WriteTable, writeEntry{
		RunID:      r.runID,
		Seq:        evt.Seq,
		LBA:        evt.LBA,
		Block:      evt.Block,
		Offset:     evt.Offset,
		PrevBlock:  evt.PrevBlock,
		WriteCount: evt.WriteCount,
		Retired:    evt.Retired,
	})
	if err != nil {
		panic(err)
	}
}

// RecordRun stores the terminal wear of every block and the run summary.
func (r *Recorder) RecordRun(
	runner *ftl.Runner,
	state *ftl.WearState,
	res ftl.Result,
) error {
	for i, b := range state.Blocks() {
		err := r.dataRecorder.InsertData(BlockTable, blockEntry{
			RunID:      r.runID,
			Block:      i,
			WriteCount: b.WriteCount,
			IsDead:     b.IsDead,
		})
		if err != nil {
			return fmt.Errorf("record block %d: %w", i, err)
		}
	}

	cfg := runner.Config()
	st := res.Statistics

	err := r.dataRecorder.InsertData(RunTable, runEntry{
		RunID:           r.runID,
		Runner:          runner.Name(),
		Outcome:         res.Outcome.String(),
		NumBlocks:       cfg.NumBlocks,
		NumLogical:      cfg.NumLogical,
		BlockSize:       cfg.BlockSize,
		Lifespan:        cfg.Lifespan,
		LogicalWrites:   st.LogicalWrites,
		SkippedRequests: st.SkippedRequests,
		PhysicalWrites:  st.PhysicalWrites,
		DeadBlocks:      st.DeadBlocks,
		MinWrites:       st.MinWrites,
		MaxWrites:       st.MaxWrites,
		AvgWrites:       st.AvgWrites,
		AvgFirstHalf:    st.AvgFirstHalf,
		AvgSecondHalf:   st.AvgSecondHalf,
		StoppedAt:       res.StoppedAt,
		Requests:        res.Requests,
	})
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.runID, err)
	}

	return r.dataRecorder.Flush()
}
