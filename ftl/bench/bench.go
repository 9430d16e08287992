// Package bench repeats independent simulation runs and measures how long they
// take.
package bench

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/shirou/gopsutil/process"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/ftlsim/ftl"
)

// DeviceFactory creates the device used by one run. Runs that execute in
// parallel must not share a device. Devices that implement io.Closer are
// closed when their run ends.
type DeviceFactory func(run int) (ftl.BlockDevice, error)

// Hooks returns the hooks attached to the runner of one run.
type Hooks func(run int) []ftl.Hook

// Benchmark describes a batch of independent runs over the same workload.
type Benchmark struct {
	Runs      int
	Workers   int
	Config    ftl.Config
	Workload  []int
	NewDevice DeviceFactory
	Hooks     Hooks

	// Profile collects a CPU profile of the whole batch. ProfileTop limits
	// the number of functions kept in the summary; zero keeps ten.
	Profile    bool
	ProfileTop int
}

// Resources is a snapshot of the resources used by the process.
type Resources struct {
	CPUPercent float64
	RSS        uint64
}

// Report summarizes a benchmark.
type Report struct {
	Runs      int
	Total     time.Duration
	PerRun    time.Duration
	First     ftl.Result
	Identical bool
	Resources Resources
	Profile   *Profile
}

// outcome is everything a run leaves behind that must match across runs.
type outcome struct {
	res    ftl.Result
	blocks []ftl.Block
	l2p    []int
}

func (o outcome) equal(other outcome) bool {
	return o.res == other.res &&
		slices.Equal(o.blocks, other.blocks) &&
		slices.Equal(o.l2p, other.l2p)
}

// Run executes the benchmark. Each run starts from a fresh wear state. With
// more than one worker, runs are spread over a worker pool; a single run is
// never split.
func (b Benchmark) Run() (Report, error) {
	if b.Runs <= 0 {
		return Report{}, errors.New("bench: number of runs must be positive")
	}

	if err := b.Config.Validate(); err != nil {
		return Report{}, err
	}

	if b.NewDevice == nil {
		return Report{}, errors.New("bench: no device factory")
	}

	workers := b.Workers
	if workers <= 0 {
		workers = 1
	}

	profiler, err := startProfile(b.Profile)
	if err != nil {
		return Report{}, err
	}

	results := make([]outcome, b.Runs)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(workers)

	for i := 0; i < b.Runs; i++ {
		i := i
		g.Go(func() error {
			o, err := b.runOnce(i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}

			results[i] = o

			return nil
		})
	}

	waitErr := g.Wait()
	total := time.Since(start)

	prof, profErr := profiler.stop(b.ProfileTop)

	if waitErr != nil {
		return Report{}, waitErr
	}

	if profErr != nil {
		return Report{}, profErr
	}

	report := Report{
		Runs:      b.Runs,
		Total:     total,
		PerRun:    total / time.Duration(b.Runs),
		First:     results[0].res,
		Identical: identical(results),
		Profile:   prof,
	}

	report.Resources = sampleResources()

	return report, nil
}

func identical(results []outcome) bool {
	for _, o := range results[1:] {
		if !o.equal(results[0]) {
			return false
		}
	}

	return true
}

func (b Benchmark) runOnce(i int) (outcome, error) {
	dev, err := b.NewDevice(i)
	if err != nil {
		return outcome{}, err
	}

	if c, ok := dev.(io.Closer); ok {
		defer c.Close()
	}

	runner := ftl.MakeBuilder().
		WithConfig(b.Config).
		WithDevice(dev).
		Build(fmt.Sprintf("FTL[%d]", i))

	if b.Hooks != nil {
		for _, h := range b.Hooks(i) {
			runner.AcceptHook(h)
		}
	}

	state, res, err := runner.Run(b.Workload)
	if err != nil {
		return outcome{}, err
	}

	return outcome{res: res, blocks: state.Blocks(), l2p: state.L2P()}, nil
}

func sampleResources() Resources {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Resources{}
	}

	var r Resources

	if cpu, err := p.CPUPercent(); err == nil {
		r.CPUPercent = cpu
	}

	if mem, err := p.MemoryInfo(); err == nil {
		r.RSS = mem.RSS
	}

	return r
}
