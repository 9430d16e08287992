package ftl

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should default to the reference geometry", func() {
		cfg := DefaultConfig()

		Expect(cfg.NumBlocks).To(Equal(512))
		Expect(cfg.NumLogical).To(Equal(256))
		Expect(cfg.BlockSize).To(Equal(4096))
		Expect(cfg.Lifespan).To(Equal(5))
		Expect(cfg.FillByte).To(Equal(byte(0xAB)))
		Expect(cfg.Capacity()).To(Equal(uint64(2 * 1024 * 1024)))
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("should reject unusable values",
		func(mutate func(*Config), field string) {
			cfg := DefaultConfig()
			mutate(&cfg)

			err := cfg.Validate()

			Expect(err).To(MatchError(ErrInvalidConfig))
			Expect(err.Error()).To(ContainSubstring(field))
		},
		Entry("single block", func(c *Config) { c.NumBlocks = 1 }, "NumBlocks"),
		Entry("no logical space", func(c *Config) { c.NumLogical = 0 }, "NumLogical"),
		Entry("zero block size", func(c *Config) { c.BlockSize = 0 }, "BlockSize"),
		Entry("negative lifespan", func(c *Config) { c.Lifespan = -1 }, "Lifespan"),
	)

	Context("when loading from YAML", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should override only the given fields", func() {
			path := filepath.Join(dir, "ftl.yaml")
			Expect(os.WriteFile(path,
				[]byte("num_blocks: 64\nlifespan: 3\n"), 0o644)).To(Succeed())

			cfg, err := LoadConfig(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.NumBlocks).To(Equal(64))
			Expect(cfg.Lifespan).To(Equal(3))
			Expect(cfg.NumLogical).To(Equal(256))
			Expect(cfg.BlockSize).To(Equal(4096))
		})

		It("should validate the loaded values", func() {
			path := filepath.Join(dir, "ftl.yaml")
			Expect(os.WriteFile(path,
				[]byte("block_size: 0\n"), 0o644)).To(Succeed())

			_, err := LoadConfig(path)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should report malformed files", func() {
			path := filepath.Join(dir, "ftl.yaml")
			Expect(os.WriteFile(path,
				[]byte("num_blocks: [\n"), 0o644)).To(Succeed())

			_, err := LoadConfig(path)

			Expect(err).To(HaveOccurred())
		})

		It("should report missing files", func() {
			_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))

			Expect(err).To(HaveOccurred())
		})
	})
})
