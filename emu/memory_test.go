package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(16)
	})

	It("should use the default size for non-positive sizes", func() {
		Expect(emu.NewMemory(0).Size()).To(Equal(emu.DefaultMemoryWords))
	})

	It("should index words by address >> 2", func() {
		memory.Load(0, []uint32{0xAEAEAEAE, 0x11111111, 0xDEADBEEF})

		Expect(memory.ReadWord(8)).To(Equal(uint32(0xDEADBEEF)))
		Expect(memory.ReadWord(9)).To(Equal(uint32(0xDEADBEEF)))
		Expect(memory.ReadWord(4)).To(Equal(uint32(0x11111111)))
	})

	It("should write only the masked lanes", func() {
		memory.Load(0, []uint32{0xAEAEAEAE})
		memory.WriteMasked(0, 0b1100, 0xDEAD0000)

		Expect(memory.ReadWord(0)).To(Equal(uint32(0xDEADAEAE)))
	})

	It("should treat a zero mask as a no-op", func() {
		memory.Load(0, []uint32{0xAEAEAEAE})
		memory.WriteMasked(0, 0, 0)

		Expect(memory.ReadWord(0)).To(Equal(uint32(0xAEAEAEAE)))
	})

	It("should read 0 and drop writes out of range", func() {
		memory.WriteMasked(64, 0b1111, 0x12345678)

		Expect(memory.ReadWord(64)).To(BeZero())
		Expect(memory.ReadWord(0xFFFFFFFC)).To(BeZero())
	})

	It("should report which addresses it holds", func() {
		Expect(memory.Contains(0)).To(BeTrue())
		Expect(memory.Contains(63)).To(BeTrue())
		Expect(memory.Contains(64)).To(BeFalse())
		Expect(memory.Contains(0xFFFFFFFC)).To(BeFalse())
	})

	It("should drop words that do not fit when loading", func() {
		memory.Load(60, []uint32{1, 2, 3})

		Expect(memory.ReadWord(60)).To(Equal(uint32(1)))
		Expect(memory.Words()).To(HaveLen(16))
	})

	Describe("bus access", func() {
		It("should return the word before the write", func() {
			memory.Load(8, []uint32{0x11111111})

			old := memory.Access(emu.BusRequest{
				Enable:          true,
				Address:         8,
				ByteWriteEnable: 0b1111,
				WriteData:       0x22222222,
			})

			Expect(old).To(Equal(uint32(0x11111111)))
			Expect(memory.ReadWord(8)).To(Equal(uint32(0x22222222)))
		})

		It("should ignore disabled requests", func() {
			memory.Load(0, []uint32{0x11111111})

			data := memory.Access(emu.BusRequest{ByteWriteEnable: 0b1111, WriteData: 7})

			Expect(data).To(BeZero())
			Expect(memory.ReadWord(0)).To(Equal(uint32(0x11111111)))
		})
	})
})
