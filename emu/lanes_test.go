package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dpsim/emu"
)

var _ = Describe("Lanes", func() {
	It("should sign-extend narrow fields", func() {
		Expect(emu.SignExtend(0xFFF, 12)).To(Equal(int32(-1)))
		Expect(emu.SignExtend(0x7FF, 12)).To(Equal(int32(2047)))
		Expect(emu.SignExtend(0x800, 12)).To(Equal(int32(-2048)))
		Expect(emu.SignExtend(-5, 32)).To(Equal(int32(-5)))
	})

	It("should truncate to the low bits", func() {
		Expect(emu.Truncate(-1, 12)).To(Equal(int32(0xFFF)))
		Expect(emu.Truncate(0x1234, 8)).To(Equal(int32(0x34)))
		Expect(emu.Truncate(-1, 32)).To(Equal(int32(-1)))
		Expect(emu.Truncate(7, 0)).To(Equal(int32(0)))
	})

	It("should combine masks", func() {
		m := emu.MaskFromBits(0b0101)
		Expect(m.Bits()).To(Equal(uint8(0b0101)))
		Expect(m.Count()).To(Equal(2))
		Expect(m.And(emu.MaskFromBits(0b0100)).Bits()).To(Equal(uint8(0b0100)))
		Expect(m.Or(emu.MaskFromBits(0b0010)).Bits()).To(Equal(uint8(0b0111)))
		Expect(m.String()).To(Equal("0101"))
		Expect(emu.AllLanes(2).Bits()).To(Equal(uint8(0b0011)))
		Expect(emu.Mask{}.Any()).To(BeFalse())
	})

	It("should render every lane", func() {
		Expect(emu.Lanes{1, 1, 2, 2}.String()).To(Equal("[1 1 2 2]"))
	})
})

var _ = Describe("Accumulator", func() {
	It("should compose and decompose the three fields", func() {
		v := emu.ComposeAcc(0x12, 0x345, 0x678)
		Expect(v).To(Equal(int32(0x12345678)))

		h, m, l := emu.DecomposeAcc(v)
		Expect([]int32{h, m, l}).To(Equal([]int32{0x12, 0x345, 0x678}))
	})

	It("should round-trip any value", func() {
		for _, v := range []int32{0, -1, 1, 0x7FFFFFFF, -0x80000000, 0x00800800, -0x123457} {
			h, m, l := emu.DecomposeAcc(v)
			Expect(emu.ComposeAcc(h, m, l)).To(Equal(v))
		}
	})

	It("should sign-extend field reads", func() {
		Expect(emu.AccH(emu.ComposeAcc(0xFF, 0, 0))).To(Equal(int32(-1)))
		Expect(emu.AccM(emu.ComposeAcc(0, 0x800, 0))).To(Equal(int32(-2048)))
		Expect(emu.AccL(emu.ComposeAcc(0, 0, 0x7FF))).To(Equal(int32(2047)))
	})

	It("should sign-extend a middle field write into the high field", func() {
		Expect(emu.WithAccM(0, 0x800)).To(Equal(emu.ComposeAcc(0xFF, 0x800, 0)))
		Expect(emu.WithAccM(emu.ComposeAcc(0xFF, 0x800, 0x123), 0x7FF)).
			To(Equal(emu.ComposeAcc(0, 0x7FF, 0x123)))
	})

	It("should leave the other fields alone on high and low writes", func() {
		v := emu.ComposeAcc(0x12, 0x345, 0x678)
		Expect(emu.WithAccH(v, 0x7F)).To(Equal(emu.ComposeAcc(0x7F, 0x345, 0x678)))
		Expect(emu.WithAccL(v, 0xABC)).To(Equal(emu.ComposeAcc(0x12, 0x345, 0xABC)))
	})
})

var _ = Describe("LaneState", func() {
	var s *emu.LaneState

	BeforeEach(func() {
		s = emu.NewLaneState(4)
	})

	It("should start with lane 0 enabled and master", func() {
		Expect(s.Enabled().Bits()).To(Equal(uint8(0b0001)))
		Expect(s.Master().Bits()).To(Equal(uint8(0b0001)))
	})

	It("should only ever add lanes on an enable write", func() {
		s.WriteEnable(0b0010)
		Expect(s.Enabled().Bits()).To(Equal(uint8(0b0011)))

		s.WriteEnable(0)
		Expect(s.Enabled().Bits()).To(Equal(uint8(0b0011)))
	})

	It("should ignore enable bits of unconfigured lanes", func() {
		s = emu.NewLaneState(2)
		s.WriteEnable(0xFF)
		Expect(s.Enabled().Bits()).To(Equal(uint8(0b0011)))
	})

	It("should pick the lowest set bit as master", func() {
		s.WriteMaster(0b0110)
		Expect(s.Master().Bits()).To(Equal(uint8(0b0010)))
		lane, ok := s.MasterLane()
		Expect(ok).To(BeTrue())
		Expect(lane).To(Equal(1))
	})

	It("should leave no master when no bit is set", func() {
		s.WriteMaster(0)
		Expect(s.Master().Any()).To(BeFalse())
		_, ok := s.MasterLane()
		Expect(ok).To(BeFalse())
	})

	It("should restrict masks to enabled lanes", func() {
		s.WriteEnable(0b0011)
		Expect(s.Active(emu.AllLanes(4)).Bits()).To(Equal(uint8(0b0011)))
	})

	It("should select the master lane for scalar writes", func() {
		s.WriteEnable(0b1111)
		s.WriteMaster(0b0100)

		lane, ok := s.ScalarWriter(emu.AllLanes(4))
		Expect(ok).To(BeTrue())
		Expect(lane).To(Equal(2))

		_, ok = s.ScalarWriter(emu.MaskFromBits(0b0011))
		Expect(ok).To(BeFalse())
	})

	It("should return to lane 0 on reset", func() {
		s.WriteEnable(0b1111)
		s.WriteMaster(0b1000)
		s.Reset()
		Expect(s.Enabled().Bits()).To(Equal(uint8(0b0001)))
		Expect(s.Master().Bits()).To(Equal(uint8(0b0001)))
	})
})
