package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dpsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have a zero Instruction", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
		Expect(i.Dst).To(Equal(insts.RegNone))
	})

	It("should render an instruction", func() {
		inst := &insts.Instruction{
			Type:        insts.TypeALU,
			Op:          insts.OpADD,
			Conditional: true,
			Cond:        insts.CondGT,
			Dst:         insts.R(2),
			SrcA:        insts.RegOperand(insts.R(0)),
			SrcB:        insts.ImmOperand(5),
		}
		Expect(inst.String()).To(Equal("IF GT ADD R2, R0, 5"))
	})

	Describe("FlagFamily", func() {
		It("should be defined for every instruction type", func() {
			for _, t := range insts.AllTypes() {
				Expect(func() { insts.FlagFamily(t) }).NotTo(Panic(), t.String())
			}
		})

		It("should panic for an unknown type", func() {
			Expect(func() { insts.FlagFamily(insts.TypeUnknown) }).To(Panic())
		})

		DescribeTable("family selection",
			func(t insts.InstType, want insts.Family) {
				Expect(insts.FlagFamily(t)).To(Equal(want))
			},
			Entry("ALU", insts.TypeALU, insts.Family12),
			Entry("ALU against accumulator", insts.TypeALUAcc, insts.FamilyAcc32),
			Entry("MAC", insts.TypeMAC, insts.FamilyAcc32),
			Entry("ALU half of a multifunction group", insts.TypeMultiALU, insts.Family12),
			Entry("MAC half of a multifunction group", insts.TypeMultiMAC, insts.FamilyAcc32),
			Entry("shift", insts.TypeShift, insts.FamilyShift),
			Entry("magnitude", insts.TypeMagnitude, insts.Family12),
			Entry("move", insts.TypeMove, insts.FamilyNone),
		)
	})

	Describe("Accepts", func() {
		It("should pair opcodes with their unit", func() {
			Expect(insts.TypeALU.Accepts(insts.OpADD)).To(BeTrue())
			Expect(insts.TypeALU.Accepts(insts.OpMAC)).To(BeFalse())
			Expect(insts.TypeComplexMAC.Accepts(insts.OpRCMAS)).To(BeTrue())
			Expect(insts.TypeShift.Accepts(insts.OpCASHIFT)).To(BeFalse())
			Expect(insts.TypeComplexShift.Accepts(insts.OpCASHIFT)).To(BeTrue())
			Expect(insts.TypeMagnitude.Accepts(insts.OpRECT)).To(BeTrue())
		})
	})

	Describe("LookupOp", func() {
		It("should resolve mnemonics case-insensitively", func() {
			op, ok := insts.LookupOp("mac.rc")
			Expect(ok).To(BeTrue())
			Expect(op).To(Equal(insts.OpRCMAC))

			_, ok = insts.LookupOp("DIVQ")
			Expect(ok).To(BeFalse())
		})

		It("should round-trip every named opcode", func() {
			for _, name := range []string{"ADD", "RCCW_C", "MPY.C", "LSHIFTOR", "XWRITE"} {
				op, ok := insts.LookupOp(name)
				Expect(ok).To(BeTrue())
				Expect(op.String()).To(Equal(name))
			}
		})
	})

	Describe("Cond", func() {
		It("should split real and complex banks", func() {
			Expect(insts.CondTRUE.Complex()).To(BeFalse())
			Expect(insts.CondEQC.Complex()).To(BeTrue())
			Expect(insts.CondNotUMC).To(Equal(insts.Cond(31)))
		})

		It("should look up spellings", func() {
			c, ok := insts.LookupCond("NOT AV.C")
			Expect(ok).To(BeTrue())
			Expect(c).To(Equal(insts.CondNotAVC))
		})
	})
	Describe("DefaultType", func() {
		It("should pick the unit of each operation", func() {
			Expect(insts.OpADD.DefaultType(insts.R(0))).To(Equal(insts.TypeALU))
			Expect(insts.OpADD.DefaultType(insts.ACC(0))).To(Equal(insts.TypeALUAcc))
			Expect(insts.OpMAG.DefaultType(insts.R(0))).To(Equal(insts.TypeMagnitude))
			Expect(insts.OpCMAC.DefaultType(insts.ACC(0))).To(Equal(insts.TypeComplexMAC))
			Expect(insts.OpSTORE.DefaultType(insts.RegNone)).To(Equal(insts.TypeMemory))
			Expect(insts.OpXREAD.DefaultType(insts.R(0))).To(Equal(insts.TypeCrossLane))
		})

		It("should agree with Accepts", func() {
			for _, name := range []string{"SUB", "CONJ.C", "RECT.C", "RNDACC", "MAS.RC", "ASHIFT", "LSHIFT.C", "MODIFY", "MOVE"} {
				op, ok := insts.LookupOp(name)
				Expect(ok).To(BeTrue())
				Expect(op.DefaultType(insts.R(0)).Accepts(op)).To(BeTrue(), name)
			}
		})
	})

	Describe("name lookups", func() {
		It("should resolve types, qualifiers and fields", func() {
			t, ok := insts.LookupType("alu_c")
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(insts.TypeComplexALU))
			_, ok = insts.LookupType("UNKNOWN")
			Expect(ok).To(BeFalse())

			q, ok := insts.LookupQualifier("us")
			Expect(ok).To(BeTrue())
			Expect(q).To(Equal(insts.QualUS))
			Expect(q.String()).To(Equal("US"))

			f, ok := insts.LookupField("hi")
			Expect(ok).To(BeTrue())
			Expect(f).To(Equal(insts.FieldHI))
			_, ok = insts.LookupField("MID")
			Expect(ok).To(BeFalse())
		})
	})
})
