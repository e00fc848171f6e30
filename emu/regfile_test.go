package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = &emu.RegFile{}
	})

	It("should start with every register at 0", func() {
		for i := uint8(0); i < 32; i++ {
			Expect(regFile.Read(i)).To(BeZero())
		}
	})

	It("should write when enabled", func() {
		regFile.Write(5, 0xCAFEBABE, true)
		Expect(regFile.Read(5)).To(Equal(uint32(0xCAFEBABE)))
	})

	It("should ignore writes when disabled", func() {
		regFile.Write(5, 0xCAFEBABE, false)
		Expect(regFile.Read(5)).To(BeZero())
	})

	It("should keep x0 at 0", func() {
		regFile.Write(0, 0xFFFFFFFF, true)

		Expect(regFile.Read(0)).To(BeZero())
		Expect(regFile.X[0]).To(BeZero())
	})

	It("should clear registers on reset", func() {
		regFile.Write(31, 7, true)
		regFile.Reset()
		Expect(regFile.Read(31)).To(BeZero())
	})
})
