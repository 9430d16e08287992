package ftl

// Statistics summarizes the wear of a pool after a workload has drained.
type Statistics struct {
	// LogicalWrites counts the requests the runner consumed, including the
	// skipped ones.
	LogicalWrites   int
	SkippedRequests int

	PhysicalWrites uint64
	DeadBlocks     int
	MinWrites      uint64
	MaxWrites      uint64
	AvgWrites      float64

	// AvgFirstHalf and AvgSecondHalf average the write counts of the lower
	// and upper half of the pool. A large gap hints at locality bias.
	AvgFirstHalf  float64
	AvgSecondHalf float64
}

// Reduce computes the wear distribution of blocks. Logical request counters
// are left at zero.
func Reduce(blocks []Block) Statistics {
	var st Statistics

	n := len(blocks)
	if n == 0 {
		return st
	}

	half := n / 2

	var firstHalf, secondHalf uint64

	st.MinWrites = blocks[0].WriteCount

	for i, b := range blocks {
		st.PhysicalWrites += b.WriteCount

		if b.WriteCount < st.MinWrites {
			st.MinWrites = b.WriteCount
		}

		if b.WriteCount > st.MaxWrites {
			st.MaxWrites = b.WriteCount
		}

		if b.IsDead {
			st.DeadBlocks++
		}

		if i < half {
			firstHalf += b.WriteCount
		} else {
			secondHalf += b.WriteCount
		}
	}

	st.AvgWrites = float64(st.PhysicalWrites) / float64(n)
	if half > 0 {
		st.AvgFirstHalf = float64(firstHalf) / float64(half)
	}
	st.AvgSecondHalf = float64(secondHalf) / float64(n-half)

	return st
}
