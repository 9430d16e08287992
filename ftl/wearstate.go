package ftl

import "fmt"

const unmapped = -1

// A Block is the wear record of one physical flash block.
type Block struct {
	WriteCount uint64
	IsDead     bool
}

// Pool is a read-only view of the physical blocks.
type Pool interface {
	NumBlocks() int
	Block(i int) Block
}

// WearState is the complete mutable state of one simulation run: the wear
// record of every physical block and the logical-to-physical table.
//
// A WearState is owned by exactly one run. Blocks that lose their logical
// address to a remap are stale, but they are neither erased nor reclaimed;
// they only gain wear again when the selector picks them.
type WearState struct {
	lifespan uint64
	blocks   []Block
	l2p      []int
}

// NewWearState creates a fresh state: all counters zero, all blocks alive and
// every logical address unmapped.
func NewWearState(cfg Config) *WearState {
	s := &WearState{
		lifespan: uint64(cfg.Lifespan),
		blocks:   make([]Block, cfg.NumBlocks),
		l2p:      make([]int, cfg.NumLogical),
	}

	for i := range s.l2p {
		s.l2p[i] = unmapped
	}

	return s
}

// NumBlocks returns the size of the physical pool.
func (s *WearState) NumBlocks() int {
	return len(s.blocks)
}

// NumLogical returns the size of the logical address space.
func (s *WearState) NumLogical() int {
	return len(s.l2p)
}

// Lifespan returns the number of writes after which a block is retired.
func (s *WearState) Lifespan() uint64 {
	return s.lifespan
}

// Block returns the wear record of physical block i.
func (s *WearState) Block(i int) Block {
	return s.blocks[i]
}

// Blocks returns a copy of all wear records in physical order.
func (s *WearState) Blocks() []Block {
	out := make([]Block, len(s.blocks))
	copy(out, s.blocks)

	return out
}

// InRange tells if lba is a valid logical address.
func (s *WearState) InRange(lba int) bool {
	return lba >= 0 && lba < len(s.l2p)
}

// Lookup returns the physical block currently holding lba.
func (s *WearState) Lookup(lba int) (int, bool) {
	if !s.InRange(lba) {
		return 0, false
	}

	p := s.l2p[lba]
	if p == unmapped {
		return 0, false
	}

	return p, true
}

// L2P returns a copy of the logical-to-physical table. Unmapped entries
// hold -1.
func (s *WearState) L2P() []int {
	out := make([]int, len(s.l2p))
	copy(out, s.l2p)

	return out
}

// Map points lba at physical block pblock and returns the block it pointed
// at before, if any.
func (s *WearState) Map(lba, pblock int) (prev int, hadPrev bool) {
	if !s.InRange(lba) {
		panic(fmt.Sprintf("ftl: logical address %d out of range [0, %d)",
			lba, len(s.l2p)))
	}

	s.mustBeBlock(pblock)

	prev = s.l2p[lba]
	s.l2p[lba] = pblock

	return prev, prev != unmapped
}

// Program records one write to pblock. It reports whether this write retired
// the block.
func (s *WearState) Program(pblock int) (retired bool) {
	s.mustBeBlock(pblock)

	b := &s.blocks[pblock]
	if b.IsDead {
		panic(fmt.Sprintf("ftl: programming dead block %d", pblock))
	}

	b.WriteCount++
	if b.WriteCount >= s.lifespan {
		b.IsDead = true
		return true
	}

	return false
}

func (s *WearState) mustBeBlock(pblock int) {
	if pblock < 0 || pblock >= len(s.blocks) {
		panic(fmt.Sprintf("ftl: physical block %d out of range [0, %d)",
			pblock, len(s.blocks)))
	}
}
