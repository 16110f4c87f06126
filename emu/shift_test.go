package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/emu"
	"github.com/sarchlab/dpsim/insts"
)

var _ = Describe("Shifter", func() {
	var (
		sh  *emu.Shifter
		all emu.Mask
	)

	BeforeEach(func() {
		sh = emu.NewShifter(4)
		all = emu.AllLanes(4)
	})

	run := func(op insts.Op, src int32, width int, amount int32, mode emu.ShiftMode) (int32, emu.Flags) {
		res, err := sh.Execute(insts.TypeShift, op, emu.Splat(src), width, emu.Splat(amount), emu.Lanes{}, mode, all)
		Expect(err).NotTo(HaveOccurred())
		return res.Value[0], res.Flags[0]
	}

	It("should shift left for positive amounts", func() {
		r, f := run(insts.OpASHIFT, 1, 12, 3, emu.ShiftMode{})
		Expect(r).To(Equal(int32(8)))
		Expect(f.AV).To(BeFalse())
	})

	It("should sign-extend arithmetic right shifts", func() {
		r, f := run(insts.OpASHIFT, 0xFF8, 12, -2, emu.ShiftMode{})
		Expect(r).To(Equal(int32(-2)))
		Expect(f.AN).To(BeTrue())
		Expect(f.SS).To(BeTrue())
	})

	It("should zero-fill logical right shifts", func() {
		r, f := run(insts.OpLSHIFT, -8, 12, -2, emu.ShiftMode{})
		Expect(r).To(Equal(int32(1022)))
		Expect(f.SS).To(BeTrue())
		Expect(f.AN).To(BeFalse())
	})

	It("should round right shifts on request", func() {
		r, _ := run(insts.OpASHIFT, 3, 12, -1, emu.ShiftMode{})
		Expect(r).To(Equal(int32(1)))
		r, _ = run(insts.OpASHIFT, 3, 12, -1, emu.ShiftMode{Round: true})
		Expect(r).To(Equal(int32(2)))
	})

	It("should shift everything out at -32", func() {
		r, _ := run(insts.OpASHIFT, -5, 32, -32, emu.ShiftMode{})
		Expect(r).To(Equal(int32(-1)))
		r, f := run(insts.OpASHIFT, 5, 32, -40, emu.ShiftMode{})
		Expect(r).To(BeZero())
		Expect(f.AZ).To(BeTrue())
	})

	It("should flag left shifts out of 32 bits", func() {
		r, f := run(insts.OpASHIFT, 0x40000000, 32, 1, emu.ShiftMode{})
		Expect(r).To(Equal(int32(-0x80000000)))
		Expect(f.AV).To(BeTrue())

		_, f = run(insts.OpASHIFT, 1, 32, 40, emu.ShiftMode{})
		Expect(f.AV).To(BeTrue())
	})

	It("should place the source in the high field", func() {
		r, _ := run(insts.OpLSHIFT, 1, 12, 0, emu.ShiftMode{Field: insts.FieldHI})
		Expect(r).To(Equal(int32(0x1000)))
	})

	It("should OR into the destination", func() {
		res, err := sh.Execute(insts.TypeShift, insts.OpASHIFTOR, emu.Splat(1), 12, emu.Splat(4), emu.Splat(1), emu.ShiftMode{}, all)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value[0]).To(Equal(int32(17)))
		Expect(res.Flags[0].AZ).To(BeFalse())
	})

	It("should OR a logical shift into the destination", func() {
		res, err := sh.Execute(insts.TypeShift, insts.OpLSHIFTOR, emu.Splat(1), 12, emu.Splat(4), emu.Splat(3), emu.ShiftMode{}, all)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value[0]).To(Equal(int32(19)))
		Expect(res.Flags[0].AN).To(BeFalse())
	})

	It("should leave the source in place for the low field", func() {
		r, _ := run(insts.OpLSHIFT, 0x800, 12, -4, emu.ShiftMode{Field: insts.FieldLO})
		Expect(r).To(Equal(int32(0x80)))
		d, _ := run(insts.OpLSHIFT, 0x800, 12, -4, emu.ShiftMode{})
		Expect(d).To(Equal(r))
		h, _ := run(insts.OpLSHIFT, 0x800, 12, -4, emu.ShiftMode{Field: insts.FieldHI})
		Expect(h).To(Equal(int32(0x80000)))
	})

	It("should take flags from the 32-bit output", func() {
		r, f := run(insts.OpLSHIFT, 0x400, 12, 2, emu.ShiftMode{})
		Expect(r).To(Equal(int32(0x1000)))
		Expect(f.AZ).To(BeFalse())
		Expect(f.AV).To(BeFalse())
	})

	It("should refuse types outside the shift flag family", func() {
		_, err := sh.Execute(insts.TypeALU, insts.OpASHIFT, emu.Splat(1), 12, emu.Splat(1), emu.Lanes{}, emu.ShiftMode{}, all)
		Expect(err).To(MatchError(diag.ErrInvalidOperand))
		_, err = sh.ExecuteComplex(insts.TypeShift, insts.OpCASHIFT, emu.Splat(1), emu.Splat(1), 12,
			emu.Splat(1), emu.Splat(1), emu.ShiftMode{}, all)
		Expect(err).NotTo(HaveOccurred())
		_, err = sh.ExecuteComplex(insts.TypeMAC, insts.OpCASHIFT, emu.Splat(1), emu.Splat(1), 12,
			emu.Splat(1), emu.Splat(1), emu.ShiftMode{}, all)
		Expect(err).To(MatchError(diag.ErrInvalidOperand))
	})

	It("should shift each part of a complex value by its own amount", func() {
		res, err := sh.ExecuteComplex(insts.TypeComplexShift, insts.OpCASHIFT, emu.Splat(1), emu.Splat(2), 12,
			emu.Splat(1), emu.Splat(2), emu.ShiftMode{}, all)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value[0]).To(Equal(int32(2)))
		Expect(res.Imag[0]).To(Equal(int32(8)))
	})
})
