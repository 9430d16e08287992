package bench

import (
	"bytes"
	"fmt"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/google/pprof/profile"
)

const defaultProfileTop = 10

// FunctionCost is the CPU time attributed to one function.
type FunctionCost struct {
	Name string
	Flat time.Duration
	Cum  time.Duration
}

// Profile summarizes the CPU profile of a benchmark.
type Profile struct {
	// Raw is the parsed profile, ready to be written for `go tool pprof`.
	Raw *profile.Profile

	Samples int
	Total   time.Duration

	// Top holds the most expensive functions by flat time, then by name.
	Top []FunctionCost
}

type profiler struct {
	buf *bytes.Buffer
}

func startProfile(enabled bool) (*profiler, error) {
	if !enabled {
		return nil, nil
	}

	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		return nil, fmt.Errorf("bench: start cpu profile: %w", err)
	}

	return &profiler{buf: buf}, nil
}

func (p *profiler) stop(top int) (*Profile, error) {
	if p == nil {
		return nil, nil
	}

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(p.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("bench: parse cpu profile: %w", err)
	}

	return summarize(prof, top), nil
}

// summarize attributes the samples of prof to functions. The last sample
// value is taken as the cost, which is CPU nanoseconds for a CPU profile.
func summarize(prof *profile.Profile, top int) *Profile {
	if top <= 0 {
		top = defaultProfileTop
	}

	s := &Profile{Raw: prof, Samples: len(prof.Sample)}

	if len(prof.SampleType) == 0 {
		return s
	}

	valueIdx := len(prof.SampleType) - 1
	costs := map[string]*FunctionCost{}

	cost := func(name string) *FunctionCost {
		c, ok := costs[name]
		if !ok {
			c = &FunctionCost{Name: name}
			costs[name] = c
		}

		return c
	}

	for _, sample := range prof.Sample {
		v := time.Duration(sample.Value[valueIdx])
		s.Total += v

		seen := map[string]bool{}
		for i, loc := range sample.Location {
			for j, line := range loc.Line {
				if line.Function == nil {
					continue
				}

				name := line.Function.Name
				if i == 0 && j == 0 {
					cost(name).Flat += v
				}

				if !seen[name] {
					seen[name] = true
					cost(name).Cum += v
				}
			}
		}
	}

	s.Top = make([]FunctionCost, 0, len(costs))
	for _, c := range costs {
		s.Top = append(s.Top, *c)
	}

	sort.Slice(s.Top, func(i, j int) bool {
		if s.Top[i].Flat != s.Top[j].Flat {
			return s.Top[i].Flat > s.Top[j].Flat
		}

		return s.Top[i].Name < s.Top[j].Name
	})

	if len(s.Top) > top {
		s.Top = s.Top[:top]
	}

	return s
}
