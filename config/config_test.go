package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/xyproto/env/v2"

	"github.com/sarchlab/dpsim/config"
)

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("should run four lanes with coalesced warnings", func() {
			c := config.Default()
			Expect(c.Lanes).To(Equal(4))
			Expect(c.CoalesceWarnings).To(BeTrue())
			Expect(c.UnalignedPenalty).To(Equal(uint64(1)))
			Expect(c.DumpOnError).To(BeTrue())
			Expect(c.Validate()).To(Succeed())
		})

		It("should parse the default level", func() {
			level, err := config.Default().Level()
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(logrus.WarnLevel))
		})
	})

	Describe("Validate", func() {
		It("should reject lane counts other than 1, 2 and 4", func() {
			c := config.Default()
			for _, n := range []int{0, 3, 5, 8} {
				c.Lanes = n
				Expect(c.Validate()).NotTo(Succeed())
			}
			for _, n := range []int{1, 2, 4} {
				c.Lanes = n
				Expect(c.Validate()).To(Succeed())
			}
		})

		It("should reject unknown log levels", func() {
			c := config.Default()
			c.LogLevel = "chatty"
			Expect(c.Validate()).NotTo(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := config.Default()
			clone := original.Clone()

			clone.Lanes = 1

			Expect(original.Lanes).To(Equal(4))
			Expect(clone.Lanes).To(Equal(1))
		})
	})

	Describe("ApplyEnv", func() {
		It("should leave fields alone when no variable is set", func() {
			for _, name := range []string{
				config.EnvLanes, config.EnvLogLevel, config.EnvCoalesce,
				config.EnvInitMode, config.EnvUnalignedPenalty,
			} {
				if env.Has(name) {
					Skip(name + " is set in the test environment")
				}
			}

			c := config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c).To(Equal(config.Default()))
		})

		It("should take the unaligned penalty from the environment", func() {
			Expect(env.Set(config.EnvUnalignedPenalty, "3")).To(Succeed())
			DeferCleanup(env.Unset, config.EnvUnalignedPenalty)

			c := config.Default()
			Expect(c.ApplyEnv()).To(Succeed())
			Expect(c.UnalignedPenalty).To(Equal(uint64(3)))
		})

		It("should reject a negative unaligned penalty", func() {
			Expect(env.Set(config.EnvUnalignedPenalty, "-1")).To(Succeed())
			DeferCleanup(env.Unset, config.EnvUnalignedPenalty)

			c := config.Default()
			Expect(c.ApplyEnv()).To(MatchError(ContainSubstring("must not be negative")))
			Expect(c.UnalignedPenalty).To(Equal(uint64(1)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := config.Default()
			original.Lanes = 2
			original.InitMode = true

			path := filepath.Join(tempDir, "dpsim.json")
			Expect(original.Save(path)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"lanes": 1}`), 0644)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Lanes).To(Equal(1))
			Expect(loaded.CoalesceWarnings).To(BeTrue())
		})

		It("should return error for non-existent file", func() {
			_, err := config.Load("/nonexistent/path/dpsim.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
