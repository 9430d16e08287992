package ftl

// A BlockSelector decides which physical block serves the next write. It
// must not modify the pool.
type BlockSelector interface {
	// Select returns the chosen block. It returns false if no block can take
	// another write.
	Select(pool Pool) (int, bool)
}

// LeastWornSelector picks the live block with the fewest writes. Among equally
// worn blocks, the lowest index wins.
type LeastWornSelector struct {
}

// NewLeastWornSelector returns a newly constructed least-worn selector.
func NewLeastWornSelector() *LeastWornSelector {
	s := new(LeastWornSelector)
	return s
}

// Select scans the pool in ascending order.
func (s *LeastWornSelector) Select(pool Pool) (int, bool) {
	best := -1

	var minWrites uint64

	for i := 0; i < pool.NumBlocks(); i++ {
		b := pool.Block(i)
		if b.IsDead {
			continue
		}

		if best == -1 || b.WriteCount < minWrites {
			best = i
			minWrites = b.WriteCount
		}
	}

	if best == -1 {
		return -1, false
	}

	return best, true
}
