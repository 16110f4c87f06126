package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dpsim/emu"
	"github.com/sarchlab/dpsim/insts"
)

var _ = Describe("Round", func() {
	It("should add half an LSB of the middle field", func() {
		Expect(emu.Round(0x801, false)).To(Equal(int32(0x1001)))
		Expect(emu.Round(0x800, false)).To(Equal(int32(0x1000)))
		Expect(emu.Round(0x7FF, false)).To(Equal(int32(0xFFF)))
	})

	It("should round exact midpoints to even when unbiased", func() {
		Expect(emu.Round(0x800, true)).To(Equal(int32(0)))
		Expect(emu.Round(0x1800, true)).To(Equal(int32(0x2000)))
		Expect(emu.Round(0x801, true)).To(Equal(int32(0x1001)))
	})
})

var _ = Describe("MAC", func() {
	var (
		mac *emu.MAC
		all emu.Mask
	)

	BeforeEach(func() {
		mac = emu.NewMAC(4)
		all = emu.AllLanes(4)
	})

	run := func(op insts.Op, x, y, acc int32, mode emu.MACMode) (int32, bool) {
		res, err := mac.Execute(op, emu.Splat(x), emu.Splat(y), emu.Splat(acc), mode, all)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Fields).To(Equal(emu.FieldMV))
		return res.Value[0], res.Flags[0].MV
	}

	It("should multiply signed operands", func() {
		r, _ := run(insts.OpMPY, 3, -4, 0, emu.MACMode{})
		Expect(r).To(Equal(int32(-12)))
	})

	It("should honor the operand qualifier", func() {
		r, _ := run(insts.OpMPY, -1, 2, 0, emu.MACMode{Qualifier: insts.QualUU})
		Expect(r).To(Equal(int32(0x1FFE)))
		r, _ = run(insts.OpMPY, -1, 2, 0, emu.MACMode{Qualifier: insts.QualSU})
		Expect(r).To(Equal(int32(-2)))
	})

	It("should double the product in fractional mode", func() {
		r, _ := run(insts.OpMPY, 3, 4, 0, emu.MACMode{Fractional: true})
		Expect(r).To(Equal(int32(24)))
	})

	It("should accumulate and subtract", func() {
		r, _ := run(insts.OpMAC, 3, 4, 10, emu.MACMode{})
		Expect(r).To(Equal(int32(22)))
		r, _ = run(insts.OpMAS, 3, 4, 10, emu.MACMode{})
		Expect(r).To(Equal(int32(-2)))
	})

	It("should flag and count overflow", func() {
		res, err := mac.Execute(insts.OpMAC, emu.Splat(1), emu.Splat(1), emu.Splat(0x7FFFFFFF),
			emu.MACMode{}, emu.MaskFromBits(0b0011))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value[0]).To(Equal(int32(-0x80000000)))
		Expect(res.Flags[0].MV).To(BeTrue())
		Expect(res.Overflow).To(Equal([emu.MaxLanes]int{1, 1, 0, 0}))
	})

	It("should round the result on request", func() {
		r, _ := run(insts.OpMPY, 1, 0x7FF, 0x801, emu.MACMode{Round: true})
		Expect(r).To(Equal(int32(0x7FF + 0x800)))
	})

	It("should round the accumulator for RNDACC", func() {
		r, ov := run(insts.OpRNDACC, 0, 0, 0x1234, emu.MACMode{})
		Expect(r).To(Equal(int32(0x1A34)))
		Expect(ov).To(BeFalse())

		_, ov = run(insts.OpRNDACC, 0, 0, 0x7FFFF800, emu.MACMode{})
		Expect(ov).To(BeTrue())
	})

	It("should clear the accumulator", func() {
		r, ov := run(insts.OpCLRACC, 5, 5, 0x1234, emu.MACMode{Round: true})
		Expect(r).To(BeZero())
		Expect(ov).To(BeFalse())
	})

	Describe("complex", func() {
		exec := func(op insts.Op, xr, xi, yr, yi, ar, ai int32) (int32, int32) {
			res, err := mac.ExecuteComplex(op, emu.Splat(xr), emu.Splat(xi), emu.Splat(yr), emu.Splat(yi),
				emu.Splat(ar), emu.Splat(ai), emu.MACMode{}, all)
			Expect(err).NotTo(HaveOccurred())
			return res.Value[0], res.Imag[0]
		}

		It("should multiply complex pairs", func() {
			re, im := exec(insts.OpCMPY, 1, 2, 3, 4, 0, 0)
			Expect([]int32{re, im}).To(Equal([]int32{-5, 10}))
		})

		It("should accumulate into both parts", func() {
			re, im := exec(insts.OpCMAC, 1, 2, 3, 4, 1, 1)
			Expect([]int32{re, im}).To(Equal([]int32{-4, 11}))
			re, im = exec(insts.OpCMAS, 1, 2, 3, 4, 1, 1)
			Expect([]int32{re, im}).To(Equal([]int32{6, -9}))
		})

		It("should scale a complex value by a real one", func() {
			re, im := exec(insts.OpRCMPY, 2, 99, 3, 4, 0, 0)
			Expect([]int32{re, im}).To(Equal([]int32{6, 8}))
		})

		It("should count an overflow per part", func() {
			res, err := mac.ExecuteComplex(insts.OpCMAC, emu.Splat(1), emu.Splat(0), emu.Splat(1), emu.Splat(1),
				emu.Splat(0x7FFFFFFF), emu.Splat(0x7FFFFFFF), emu.MACMode{}, emu.MaskFromBits(0b0001))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Flags[0].MV).To(BeTrue())
			Expect(res.ImagFlags[0].MV).To(BeTrue())
			Expect(res.Overflow[0]).To(Equal(2))
		})
	})
})
