package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
)

var _ = Describe("ALU", func() {
	var alu *emu.ALU

	BeforeEach(func() {
		alu = emu.NewALU()
	})

	Describe("arithmetic", func() {
		It("should wrap addition modulo 2^32", func() {
			res := alu.Execute(insts.ALUAdd, 0xFFFFFFFF, 1)

			Expect(res.Result).To(Equal(uint32(0)))
			Expect(res.Zero).To(BeTrue())
			Expect(res.LastBit).To(BeFalse())
		})

		It("should wrap subtraction modulo 2^32", func() {
			res := alu.Execute(insts.ALUSub, 0, 1)

			Expect(res.Result).To(Equal(uint32(0xFFFFFFFF)))
			Expect(res.Zero).To(BeFalse())
			Expect(res.LastBit).To(BeTrue())
		})

		It("should set zero on equal operands for subtraction", func() {
			Expect(alu.Execute(insts.ALUSub, 0xDEADBEEF, 0xDEADBEEF).Zero).To(BeTrue())
		})
	})

	Describe("logic", func() {
		It("should compute and, or and xor", func() {
			Expect(alu.Execute(insts.ALUAnd, 0xF0F0F0F0, 0xFF00FF00).Result).To(Equal(uint32(0xF000F000)))
			Expect(alu.Execute(insts.ALUOr, 0xF0F0F0F0, 0x0F000000).Result).To(Equal(uint32(0xFFF0F0F0)))
			Expect(alu.Execute(insts.ALUXor, 0xFFFF0000, 0x0FF00FF0).Result).To(Equal(uint32(0xF00F0FF0)))
		})
	})

	Describe("comparisons", func() {
		DescribeTable("set less than",
			func(ctrl insts.ALUControl, a, b uint32, expected uint32) {
				res := alu.Execute(ctrl, a, b)

				Expect(res.Result).To(Equal(expected))
				Expect(res.LastBit).To(Equal(expected == 1))
			},
			Entry("signed negative < positive", insts.ALUSlt, uint32(0xFFFFFFFF), uint32(1), uint32(1)),
			Entry("signed positive < negative", insts.ALUSlt, uint32(1), uint32(0xFFFFFFFF), uint32(0)),
			Entry("signed equal", insts.ALUSlt, uint32(5), uint32(5), uint32(0)),
			Entry("unsigned small < large", insts.ALUSltu, uint32(1), uint32(0xFFFFFFFF), uint32(1)),
			Entry("unsigned large < small", insts.ALUSltu, uint32(0xFFFFFFFF), uint32(1), uint32(0)),
		)
	})

	Describe("shifts", func() {
		It("should use only the low 5 bits of the shift amount", func() {
			Expect(alu.Execute(insts.ALUSll, 1, 33).Result).To(Equal(uint32(2)))
			Expect(alu.Execute(insts.ALUSrl, 0x80000000, 0x3F).Result).To(Equal(uint32(1)))
		})

		It("should sign-extend arithmetic right shifts", func() {
			Expect(alu.Execute(insts.ALUSra, 0x80000000, 4).Result).To(Equal(uint32(0xF8000000)))
			Expect(alu.Execute(insts.ALUSra, 0x40000000, 4).Result).To(Equal(uint32(0x04000000)))
		})

		It("should zero-fill logical right shifts", func() {
			Expect(alu.Execute(insts.ALUSrl, 0x80000000, 4).Result).To(Equal(uint32(0x08000000)))
		})
	})

	Describe("undefined codes", func() {
		It("should produce 0 for every unmapped code", func() {
			for code := insts.ALUControl(0b1010); code <= 0b1111; code++ {
				res := alu.Execute(code, 0xDEADBEEF, 0x12345678)

				Expect(res.Result).To(BeZero())
				Expect(res.Zero).To(BeTrue())
				Expect(res.LastBit).To(BeFalse())
			}
		})
	})
})
