package ftl

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrStateMismatch is returned when a run is given a wear state whose
// geometry differs from the configuration of the runner.
var ErrStateMismatch = errors.New("ftl: wear state does not match runner config")

// Outcome tells how a run ended.
type Outcome int

// Possible outcomes of a run.
const (
	// Completed means every request of the workload was consumed.
	Completed Outcome = iota

	// Exhausted means the run stopped early because every block was dead.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is what a run hands back to its caller.
type Result struct {
	Outcome    Outcome
	Statistics Statistics

	// Processed counts the in-range requests that produced a physical write.
	Processed int

	// StoppedAt is the workload index of the request that hit exhaustion, or
	// the workload length if the run completed.
	StoppedAt int

	// Requests is the length of the workload the run was given.
	Requests int
}

// A Runner drives logical writes through a block selector onto a device.
type Runner struct {
	HookableBase

	name     string
	cfg      Config
	selector BlockSelector
	device   BlockDevice
	payload  []byte
}

// Name returns the name of the runner.
func (r *Runner) Name() string {
	return r.name
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run executes workload against a fresh wear state and returns the state
// reached together with the result.
func (r *Runner) Run(workload []int) (*WearState, Result, error) {
	state := NewWearState(r.cfg)

	res, err := r.RunWithState(state, workload)
	if err != nil {
		return nil, Result{}, err
	}

	return state, res, nil
}

// RunWithState executes workload against state. Requests are processed
// strictly in order. Out-of-range addresses are skipped. The run stops early,
// without an error, when no live block is left. A device failure aborts the
// run and is returned; state is left as it was before the failed request.
func (r *Runner) RunWithState(state *WearState, workload []int) (Result, error) {
	if err := r.checkState(state); err != nil {
		return Result{}, err
	}

	res := Result{StoppedAt: len(workload), Requests: len(workload)}
	skipped := 0

	for seq, lba := range workload {
		if !state.InRange(lba) {
			skipped++
			continue
		}

		pblock, ok := r.selector.Select(state)
		if !ok {
			res.Outcome = Exhausted
			res.StoppedAt = seq
			r.InvokeHook(HookCtx{
				Runner: r,
				Pos:    HookPosExhausted,
				Detail: ExhaustionEvent{
					Seq:            seq,
					LBA:            lba,
					PhysicalWrites: uint64(res.Processed),
				},
			})

			break
		}

		evt, err := r.write(state, seq, lba, pblock)
		if err != nil {
			return Result{}, err
		}

		res.Processed++

		r.InvokeHook(HookCtx{Runner: r, Pos: HookPosBlockWritten, Detail: evt})
		if evt.Retired {
			r.InvokeHook(HookCtx{Runner: r, Pos: HookPosBlockRetired, Detail: evt})
		}
	}

	res.Statistics = Reduce(state.blocks)
	res.Statistics.LogicalWrites = res.StoppedAt
	res.Statistics.SkippedRequests = skipped

	return res, nil
}

func (r *Runner) checkState(state *WearState) error {
	if state.NumBlocks() != r.cfg.NumBlocks ||
		state.NumLogical() != r.cfg.NumLogical ||
		state.Lifespan() != uint64(r.cfg.Lifespan) {
		return fmt.Errorf(
			"%w: state has %d blocks, %d logical, lifespan %d; "+
				"config has %d blocks, %d logical, lifespan %d",
			ErrStateMismatch,
			state.NumBlocks(), state.NumLogical(), state.Lifespan(),
			r.cfg.NumBlocks, r.cfg.NumLogical, r.cfg.Lifespan)
	}

	return nil
}

// write stores the payload first so that a failed write leaves both the
// mapping and the wear record untouched.
func (r *Runner) write(
	state *WearState,
	seq, lba, pblock int,
) (WriteEvent, error) {
	offset := uint64(pblock) * uint64(r.cfg.BlockSize)
	if err := r.device.WriteAt(offset, r.payload); err != nil {
		return WriteEvent{}, fmt.Errorf(
			"ftl: write lba %d to block %d at offset %d: %w",
			lba, pblock, offset, err)
	}

	prev, remapped := state.Map(lba, pblock)
	retired := state.Program(pblock)

	evt := WriteEvent{
		Seq:        seq,
		LBA:        lba,
		Block:      pblock,
		Offset:     offset,
		PrevBlock:  -1,
		Remapped:   remapped,
		WriteCount: state.blocks[pblock].WriteCount,
		Retired:    retired,
	}
	if remapped {
		evt.PrevBlock = prev
	}

	return evt, nil
}

// Builder can build runners.
type Builder struct {
	cfg      Config
	selector BlockSelector
	device   BlockDevice
}

// MakeBuilder creates a builder with the reference configuration and the
// least-worn selector.
func MakeBuilder() Builder {
	return Builder{
		cfg: DefaultConfig(),
	}
}

// WithConfig sets the geometry and wear limits.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithSelector overrides the block selection policy.
func (b Builder) WithSelector(s BlockSelector) Builder {
	b.selector = s
	return b
}

// WithDevice sets the device that receives the block payloads.
func (b Builder) WithDevice(d BlockDevice) Builder {
	b.device = d
	return b
}

// Build creates a runner.
func (b Builder) Build(name string) *Runner {
	if b.device == nil {
		panic("ftl.Builder: device is nil; call WithDevice")
	}

	if err := b.cfg.Validate(); err != nil {
		panic(err)
	}

	selector := b.selector
	if selector == nil {
		selector = NewLeastWornSelector()
	}

	return &Runner{
		name:     name,
		cfg:      b.cfg,
		selector: selector,
		device:   b.device,
		payload:  bytes.Repeat([]byte{b.cfg.FillByte}, b.cfg.BlockSize),
	}
}
