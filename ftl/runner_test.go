package ftl

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ftlsim/ftl/device"
	"github.com/sarchlab/ftlsim/ftl/workload"
)

var smallConfig = Config{
	NumBlocks:  4,
	NumLogical: 2,
	BlockSize:  64,
	Lifespan:   2,
	FillByte:   0xAB,
}

var _ = Describe("Runner", func() {
	var (
		mockCtrl *gomock.Controller
		dev      *MockBlockDevice
		runner   *Runner
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dev = NewMockBlockDevice(mockCtrl)
		runner = MakeBuilder().
			WithConfig(smallConfig).
			WithDevice(dev).
			Build("FTL")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should cycle through the pool and stop on exhaustion", func() {
		var calls []any
		for _, b := range []uint64{0, 1, 2, 3, 0, 1, 2, 3} {
			calls = append(calls,
				dev.EXPECT().WriteAt(b*64, gomock.Len(64)).Return(nil))
		}
		gomock.InOrder(calls...)

		state, res, err := runner.Run([]int{0, 0, 0, 0, 1, 1, 1, 1, 0, 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Exhausted))
		Expect(res.Processed).To(Equal(8))
		Expect(res.StoppedAt).To(Equal(8))
		Expect(res.Requests).To(Equal(10))
		Expect(res.Statistics.LogicalWrites).To(Equal(8))
		Expect(res.Statistics.PhysicalWrites).To(Equal(uint64(8)))
		Expect(res.Statistics.DeadBlocks).To(Equal(4))
		Expect(res.Statistics.MinWrites).To(Equal(uint64(2)))
		Expect(res.Statistics.MaxWrites).To(Equal(uint64(2)))

		for i := 0; i < 4; i++ {
			Expect(state.Block(i)).To(Equal(Block{WriteCount: 2, IsDead: true}))
		}
		Expect(state.L2P()).To(Equal([]int{3, 3}))
	})

	It("should fill the payload with the fill byte", func() {
		dev.EXPECT().
			WriteAt(uint64(0), gomock.Any()).
			DoAndReturn(func(_ uint64, payload []byte) error {
				Expect(payload).To(HaveLen(64))
				for _, b := range payload {
					Expect(b).To(Equal(byte(0xAB)))
				}
				return nil
			})

		_, res, err := runner.Run([]int{1})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Completed))
	})

	It("should skip out-of-range addresses without touching state", func() {
		dev.EXPECT().WriteAt(uint64(0), gomock.Any()).Return(nil)

		state, res, err := runner.Run([]int{-1, 2, 1, 256})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Completed))
		Expect(res.Processed).To(Equal(1))
		Expect(res.StoppedAt).To(Equal(4))
		Expect(res.Statistics.LogicalWrites).To(Equal(4))
		Expect(res.Statistics.SkippedRequests).To(Equal(3))
		Expect(res.Statistics.PhysicalWrites).To(Equal(uint64(1)))
		Expect(state.L2P()).To(Equal([]int{-1, 0}))
	})

	It("should leave a fresh state unchanged for an all-invalid workload", func() {
		state, res, err := runner.Run([]int{-1, 2, 99})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Processed).To(BeZero())
		Expect(res.Statistics.PhysicalWrites).To(BeZero())
		Expect(state.Blocks()).To(Equal(make([]Block, 4)))
		Expect(state.L2P()).To(Equal([]int{-1, -1}))
	})

	It("should abort on a device failure", func() {
		ioErr := errors.New("disk on fire")
		gomock.InOrder(
			dev.EXPECT().WriteAt(uint64(0), gomock.Any()).Return(nil),
			dev.EXPECT().WriteAt(uint64(64), gomock.Any()).Return(ioErr),
		)

		state, res, err := runner.Run([]int{0, 1, 0, 1})

		Expect(err).To(MatchError(ioErr))
		Expect(err.Error()).To(ContainSubstring("block 1"))
		Expect(state).To(BeNil())
		Expect(res).To(Equal(Result{}))
	})

	It("should leave the state untouched when a write fails", func() {
		dev.EXPECT().WriteAt(gomock.Any(), gomock.Any()).
			Return(errors.New("io"))
		state := NewWearState(smallConfig)

		_, err := runner.RunWithState(state, []int{1})

		Expect(err).To(HaveOccurred())
		Expect(state.Block(0)).To(Equal(Block{}))
		_, mapped := state.Lookup(1)
		Expect(mapped).To(BeFalse())
		Expect(state.L2P()).To(Equal([]int{-1, -1}))
	})

	It("should keep the previous mapping when a remap fails", func() {
		gomock.InOrder(
			dev.EXPECT().WriteAt(uint64(0), gomock.Any()).Return(nil),
			dev.EXPECT().WriteAt(uint64(64), gomock.Any()).
				Return(errors.New("io")),
		)
		state := NewWearState(smallConfig)

		_, err := runner.RunWithState(state, []int{1, 1})

		Expect(err).To(HaveOccurred())
		p, mapped := state.Lookup(1)
		Expect(mapped).To(BeTrue())
		Expect(p).To(Equal(0))
		Expect(state.Block(1)).To(Equal(Block{}))
	})

	DescribeTable("should reject a state of another geometry",
		func(mutate func(cfg *Config)) {
			cfg := smallConfig
			mutate(&cfg)
			state := NewWearState(cfg)

			res, err := runner.RunWithState(state, []int{0})

			Expect(err).To(MatchError(ErrStateMismatch))
			Expect(res).To(Equal(Result{}))
			Expect(state.L2P()).To(HaveEach(-1))
		},
		Entry("more blocks", func(cfg *Config) { cfg.NumBlocks = 8 }),
		Entry("fewer logical addresses", func(cfg *Config) { cfg.NumLogical = 1 }),
		Entry("other lifespan", func(cfg *Config) { cfg.Lifespan = 3 }),
	)

	It("should return exhaustion immediately on a dead pool", func() {
		state := NewWearState(smallConfig)
		for i := 0; i < 4; i++ {
			state.Program(i)
			state.Program(i)
		}

		res, err := runner.RunWithState(state, []int{-5, 0, 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Exhausted))
		Expect(res.StoppedAt).To(Equal(1))
		Expect(res.Statistics.LogicalWrites).To(Equal(1))
		Expect(res.Statistics.SkippedRequests).To(Equal(1))
	})

	Context("with hooks", func() {
		var hook *MockHook

		BeforeEach(func() {
			hook = NewMockHook(mockCtrl)
			runner.AcceptHook(hook)
			dev.EXPECT().WriteAt(gomock.Any(), gomock.Any()).
				Return(nil).AnyTimes()
		})

		It("should report writes, retirements and exhaustion", func() {
			var ctxs []HookCtx
			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx HookCtx) { ctxs = append(ctxs, ctx) }).
				AnyTimes()

			runner.Run([]int{0, 0, 0, 0, 1, 1, 1, 1, 1})

			Expect(ctxs).To(HaveLen(8 + 4 + 1))

			first := ctxs[0]
			Expect(first.Runner).To(BeIdenticalTo(runner))
			Expect(first.Pos).To(BeIdenticalTo(HookPosBlockWritten))
			Expect(first.Detail).To(Equal(WriteEvent{
				Seq: 0, LBA: 0, Block: 0, Offset: 0,
				PrevBlock: -1, WriteCount: 1,
			}))

			second := ctxs[1].Detail.(WriteEvent)
			Expect(second.Remapped).To(BeTrue())
			Expect(second.PrevBlock).To(Equal(0))
			Expect(second.Block).To(Equal(1))

			retirement := ctxs[5]
			Expect(retirement.Pos).To(BeIdenticalTo(HookPosBlockRetired))
			Expect(retirement.Detail.(WriteEvent).Block).To(Equal(0))

			last := ctxs[len(ctxs)-1]
			Expect(last.Pos).To(BeIdenticalTo(HookPosExhausted))
			Expect(last.Detail).To(Equal(ExhaustionEvent{
				Seq: 8, LBA: 1, PhysicalWrites: 8,
			}))
		})

		It("should refuse the same hook twice", func() {
			Expect(func() { runner.AcceptHook(hook) }).To(Panic())
			Expect(runner.NumHooks()).To(Equal(1))
		})
	})

	It("should use the reference configuration by default", func() {
		r := MakeBuilder().WithDevice(dev).Build("Default")

		Expect(r.Name()).To(Equal("Default"))
		Expect(r.Config()).To(Equal(DefaultConfig()))
	})

	It("should panic when built without a device", func() {
		Expect(func() { MakeBuilder().Build("NoDevice") }).To(Panic())
	})

	It("should panic when built with an invalid config", func() {
		cfg := smallConfig
		cfg.Lifespan = 0

		Expect(func() {
			MakeBuilder().WithConfig(cfg).WithDevice(dev).Build("Bad")
		}).To(Panic())
	})
})

var _ = Describe("Runner on the reference corpus", func() {
	var (
		mem    *device.MemDevice
		runner *Runner
	)

	BeforeEach(func() {
		cfg := DefaultConfig()
		mem = device.NewMemDevice(cfg.NumBlocks, cfg.BlockSize)
		runner = MakeBuilder().WithDevice(mem).Build("FTL")
	})

	It("should spread the corpus over fresh blocks", func() {
		state, res, err := runner.Run(workload.Reference())

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(Completed))

		st := res.Statistics
		Expect(st.LogicalWrites).To(Equal(220))
		Expect(st.SkippedRequests).To(BeZero())
		Expect(st.PhysicalWrites).To(Equal(uint64(220)))
		Expect(st.DeadBlocks).To(BeZero())
		Expect(st.MinWrites).To(Equal(uint64(0)))
		Expect(st.MaxWrites).To(Equal(uint64(1)))
		Expect(st.AvgWrites).To(BeNumerically("~", 220.0/512))
		Expect(st.AvgFirstHalf).To(BeNumerically("~", 220.0/256))
		Expect(st.AvgSecondHalf).To(BeNumerically("~", 0))

		Expect(mem.AllocatedUnits()).To(Equal(220))

		data, err := mem.ReadAt(219*4096, 4096)
		Expect(err).NotTo(HaveOccurred())
		Expect(data[0]).To(Equal(byte(0xAB)))

		p, ok := state.Lookup(11)
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(219))
	})

	It("should be deterministic", func() {
		s1, r1, err := runner.Run(workload.Reference())
		Expect(err).NotTo(HaveOccurred())

		s2, r2, err := runner.Run(workload.Reference())
		Expect(err).NotTo(HaveOccurred())

		Expect(s2.Blocks()).To(Equal(s1.Blocks()))
		Expect(s2.L2P()).To(Equal(s1.L2P()))
		Expect(r2).To(Equal(r1))
	})
})
