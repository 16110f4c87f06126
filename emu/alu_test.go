package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dpsim/diag"
	"github.com/sarchlab/dpsim/emu"
	"github.com/sarchlab/dpsim/insts"
)

var _ = Describe("ALU", func() {
	var (
		alu *emu.ALU
		all emu.Mask
	)

	BeforeEach(func() {
		alu = emu.NewALU(4)
		all = emu.AllLanes(4)
	})

	run := func(op insts.Op, x, y int32, saturate bool) (int32, emu.Flags) {
		res, err := alu.Execute(insts.TypeALU, op, emu.Splat(x), emu.Splat(y), emu.Mask{}, all, saturate)
		Expect(err).NotTo(HaveOccurred())
		return res.Value[0], res.Flags[0]
	}

	Describe("12-bit arithmetic", func() {
		It("should saturate an overflowing add when enabled", func() {
			r, f := run(insts.OpADD, 2047, 1, true)
			Expect(r).To(Equal(int32(2047)))
			Expect(f.AV).To(BeTrue())
			Expect(f.AN).To(BeFalse())
		})

		It("should wrap an overflowing add otherwise", func() {
			r, f := run(insts.OpADD, 2047, 1, false)
			Expect(r).To(Equal(int32(-2048)))
			Expect(f.AV).To(BeTrue())
			Expect(f.AN).To(BeTrue())
		})

		It("should saturate negative overflow to the minimum", func() {
			r, f := run(insts.OpSUB, -2048, 1, true)
			Expect(r).To(Equal(int32(-2048)))
			Expect(f.AV).To(BeTrue())
		})

		It("should set carry as no-borrow on subtraction", func() {
			r, f := run(insts.OpSUB, 7, 5, false)
			Expect(r).To(Equal(int32(2)))
			Expect(f.AC).To(BeTrue())

			r, f = run(insts.OpSUB, 5, 7, false)
			Expect(r).To(Equal(int32(-2)))
			Expect(f.AC).To(BeFalse())
			Expect(f.AN).To(BeTrue())
		})

		It("should subtract in reverse for SUBB", func() {
			r, _ := run(insts.OpSUBB, 5, 7, false)
			Expect(r).To(Equal(int32(2)))
		})

		It("should add the carry-in", func() {
			carry := emu.MaskFromBits(0b0010)
			res, err := alu.Execute(insts.TypeALU, insts.OpADDC, emu.Splat(1), emu.Splat(1), carry, all, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value).To(Equal(emu.Lanes{2, 3, 2, 2}))
		})

		It("should subtract with borrow", func() {
			runC := func(op insts.Op, x, y int32, cin, sat bool) (int32, emu.Flags) {
				var carry emu.Mask
				carry[0] = cin
				res, err := alu.Execute(insts.TypeALU, op, emu.Splat(x), emu.Splat(y), carry, all, sat)
				Expect(err).NotTo(HaveOccurred())
				return res.Value[0], res.Flags[0]
			}

			r, f := runC(insts.OpSUBC, 5, 3, true, false)
			Expect(r).To(Equal(int32(2)))
			Expect(f.AC).To(BeTrue())

			r, f = runC(insts.OpSUBC, 5, 3, false, false)
			Expect(r).To(Equal(int32(1)))
			Expect(f.AC).To(BeTrue())

			r, f = runC(insts.OpSUBBC, 5, 3, false, false)
			Expect(r).To(Equal(int32(-3)))
			Expect(f.AN).To(BeTrue())
			Expect(f.AC).To(BeFalse())

			r, _ = runC(insts.OpSUBBC, 5, 3, true, false)
			Expect(r).To(Equal(int32(-2)))
		})

		It("should saturate a borrow past the minimum", func() {
			var carry emu.Mask
			res, err := alu.Execute(insts.TypeALU, insts.OpSUBC, emu.Splat(-2048), emu.Splat(0), carry, all, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value[0]).To(Equal(int32(-2048)))
			f := res.Flags[0]
			Expect(f.AN).To(BeTrue())
			Expect(f.AV).To(BeTrue())
			Expect(f.AC).To(BeTrue())
		})

		It("should increment and decrement", func() {
			r, _ := run(insts.OpINC, 9, 0, false)
			Expect(r).To(Equal(int32(10)))
			r, f := run(insts.OpDEC, 1, 0, false)
			Expect(r).To(Equal(int32(0)))
			Expect(f.AZ).To(BeTrue())
		})

		It("should take absolute values and record the input sign", func() {
			r, f := run(insts.OpABS, -5, 0, false)
			Expect(r).To(Equal(int32(5)))
			Expect(f.AS).To(BeTrue())

			r, f = run(insts.OpABS, -2048, 0, true)
			Expect(r).To(Equal(int32(2047)))
			Expect(f.AV).To(BeTrue())
		})

		It("should conditionally negate for SCR", func() {
			r, _ := run(insts.OpSCR, 6, 1, false)
			Expect(r).To(Equal(int32(-6)))
			r, _ = run(insts.OpSCR, 6, 2, false)
			Expect(r).To(Equal(int32(6)))
		})
	})

	Describe("logic", func() {
		It("should operate on single bits", func() {
			r, f := run(insts.OpTSTBIT, 0b100, 2, false)
			Expect(r).To(Equal(int32(4)))
			Expect(f.AZ).To(BeFalse())

			_, f = run(insts.OpTSTBIT, 0b100, 1, false)
			Expect(f.AZ).To(BeTrue())

			r, _ = run(insts.OpSETBIT, 0, 3, false)
			Expect(r).To(Equal(int32(8)))
			r, _ = run(insts.OpCLRBIT, 0xF, 0, false)
			Expect(r).To(Equal(int32(0xE)))
			r, _ = run(insts.OpTGLBIT, 0x1, 0, false)
			Expect(r).To(Equal(int32(0)))
		})

		It("should complement within 12 bits", func() {
			r, f := run(insts.OpNOT, 0, 0, false)
			Expect(r).To(Equal(int32(-1)))
			Expect(f.AN).To(BeTrue())
		})

		It("should clear overflow and carry", func() {
			_, f := run(insts.OpAND, 0x0F0, 0x0FF, false)
			Expect(f).To(Equal(emu.Flags{}))
		})
	})

	Describe("accumulator arithmetic", func() {
		It("should wrap at 32 bits without saturating", func() {
			res, err := alu.Execute(insts.TypeALUAcc, insts.OpADD,
				emu.Splat(0x7FFFFFFF), emu.Splat(1), emu.Mask{}, all, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value[0]).To(Equal(int32(-0x80000000)))
			Expect(res.Flags[0].AV).To(BeTrue())
			Expect(res.Flags[0].AN).To(BeTrue())
		})

		It("should carry out of bit 31", func() {
			res, err := alu.Execute(insts.TypeALUAcc, insts.OpADD,
				emu.Splat(-1), emu.Splat(1), emu.Mask{}, all, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Value[0]).To(BeZero())
			Expect(res.Flags[0].AC).To(BeTrue())
			Expect(res.Flags[0].AV).To(BeFalse())
		})
	})

	It("should compute only masked lanes", func() {
		res, err := alu.Execute(insts.TypeALU, insts.OpADD, emu.Splat(1), emu.Splat(1),
			emu.Mask{}, emu.MaskFromBits(0b0101), false)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value).To(Equal(emu.Lanes{2, 0, 2, 0}))
	})

	It("should reject operations of another unit", func() {
		_, err := alu.Execute(insts.TypeALU, insts.OpMPY, emu.Lanes{}, emu.Lanes{}, emu.Mask{}, all, false)
		Expect(err).To(MatchError(diag.ErrInvalidOperand))
	})

	Describe("complex", func() {
		exec := func(op insts.Op, xr, xi, yr, yi int32) (int32, int32) {
			res, err := alu.ExecuteComplex(op, emu.Splat(xr), emu.Splat(xi), emu.Splat(yr), emu.Splat(yi), all, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Complex).To(BeTrue())
			return res.Value[0], res.Imag[0]
		}

		It("should add and subtract pairs", func() {
			re, im := exec(insts.OpCADD, 1, 2, 3, 4)
			Expect([]int32{re, im}).To(Equal([]int32{4, 6}))
			re, im = exec(insts.OpCSUB, 1, 2, 3, 4)
			Expect([]int32{re, im}).To(Equal([]int32{-2, -2}))
			re, im = exec(insts.OpCSUBB, 1, 2, 3, 4)
			Expect([]int32{re, im}).To(Equal([]int32{2, 2}))
		})

		It("should conjugate", func() {
			re, im := exec(insts.OpCCONJ, 3, 4, 0, 0)
			Expect([]int32{re, im}).To(Equal([]int32{3, -4}))
		})

		It("should rotate by quarter turns", func() {
			re, im := exec(insts.OpRCCW, 3, 4, 1, 0)
			Expect([]int32{re, im}).To(Equal([]int32{-4, 3}))
			re, im = exec(insts.OpRCCW, 3, 4, 2, 0)
			Expect([]int32{re, im}).To(Equal([]int32{-3, -4}))
			re, im = exec(insts.OpRCW, 3, 4, 1, 0)
			Expect([]int32{re, im}).To(Equal([]int32{4, -3}))
			re, im = exec(insts.OpRCW, 3, 4, 4, 0)
			Expect([]int32{re, im}).To(Equal([]int32{3, 4}))
		})

		It("should flag each part separately", func() {
			res, err := alu.ExecuteComplex(insts.OpCADD, emu.Splat(2047), emu.Splat(0),
				emu.Splat(1), emu.Splat(0), all, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Flags[0].AV).To(BeTrue())
			Expect(res.ImagFlags[0].AV).To(BeFalse())
			Expect(res.ImagFlags[0].AZ).To(BeTrue())
		})
	})
})
