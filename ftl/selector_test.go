package ftl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LeastWornSelector", func() {
	var (
		state    *WearState
		selector *LeastWornSelector
	)

	BeforeEach(func() {
		state = NewWearState(Config{
			NumBlocks:  6,
			NumLogical: 3,
			BlockSize:  16,
			Lifespan:   3,
		})
		selector = NewLeastWornSelector()
	})

	It("should pick block 0 from a fresh pool", func() {
		b, ok := selector.Select(state)

		Expect(ok).To(BeTrue())
		Expect(b).To(Equal(0))
	})

	It("should pick the least written block", func() {
		for _, b := range []int{0, 0, 1, 2, 3, 5} {
			state.Program(b)
		}

		b, ok := selector.Select(state)

		Expect(ok).To(BeTrue())
		Expect(b).To(Equal(4))
	})

	It("should break ties by the lowest index", func() {
		for _, b := range []int{0, 1, 3} {
			state.Program(b)
		}

		b, ok := selector.Select(state)

		Expect(ok).To(BeTrue())
		Expect(b).To(Equal(2))
	})

	It("should skip dead blocks even if they are the least written", func() {
		state = NewWearState(Config{
			NumBlocks:  3,
			NumLogical: 1,
			BlockSize:  16,
			Lifespan:   1,
		})
		state.Program(0)

		b, ok := selector.Select(state)

		Expect(ok).To(BeTrue())
		Expect(b).To(Equal(1))
	})

	It("should report no healthy block when all blocks are dead", func() {
		for i := 0; i < state.NumBlocks(); i++ {
			for j := 0; j < 3; j++ {
				state.Program(i)
			}
		}

		_, ok := selector.Select(state)

		Expect(ok).To(BeFalse())
	})

	It("should not modify the pool", func() {
		state.Program(2)
		before := state.Blocks()

		selector.Select(state)

		Expect(state.Blocks()).To(Equal(before))
	})
})
