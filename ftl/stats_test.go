package ftl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reduce", func() {
	It("should reduce an empty pool to zero", func() {
		Expect(Reduce(nil)).To(Equal(Statistics{}))
	})

	It("should compute the wear distribution", func() {
		blocks := []Block{
			{WriteCount: 2},
			{WriteCount: 4, IsDead: true},
			{WriteCount: 0},
			{WriteCount: 1},
		}

		st := Reduce(blocks)

		Expect(st.PhysicalWrites).To(Equal(uint64(7)))
		Expect(st.DeadBlocks).To(Equal(1))
		Expect(st.MinWrites).To(Equal(uint64(0)))
		Expect(st.MaxWrites).To(Equal(uint64(4)))
		Expect(st.AvgWrites).To(BeNumerically("~", 1.75))
		Expect(st.AvgFirstHalf).To(BeNumerically("~", 3.0))
		Expect(st.AvgSecondHalf).To(BeNumerically("~", 0.5))
		Expect(st.LogicalWrites).To(BeZero())
	})

	It("should put the middle block of an odd pool in the second half", func() {
		blocks := []Block{{WriteCount: 2}, {WriteCount: 3}, {WriteCount: 1}}

		st := Reduce(blocks)

		Expect(st.AvgFirstHalf).To(BeNumerically("~", 2.0))
		Expect(st.AvgSecondHalf).To(BeNumerically("~", 2.0))
	})
})
