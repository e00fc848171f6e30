package pipeline_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
	"github.com/sarchlab/rv32core/timing/pipeline"
)

var _ = Describe("Datapath", func() {
	var (
		imem *emu.Memory
		dmem *emu.Memory
		dp   *pipeline.Datapath
	)

	load := func(program ...uint32) {
		imem.Load(0, program)
	}

	BeforeEach(func() {
		imem = emu.NewMemory(256)
		dmem = emu.NewMemory(256)
		dp = pipeline.NewDatapath(imem, dmem)
	})

	Describe("load/store/add sequence", func() {
		BeforeEach(func() {
			dmem.Load(8, []uint32{0xDEADBEEF, 0xF2F2F2F2, 0x00000AAA})
			load(
				insts.EncodeLW(18, 0, 8),
				insts.EncodeSW(18, 0, 12),
				insts.EncodeLW(19, 0, 16),
				insts.EncodeADD(20, 18, 19),
			)
		})

		It("should expose x20 = 0xDEADC999 after 4 edges", func() {
			dp.RunCycles(4)

			Expect(dp.ReadRegister(20)).To(Equal(uint32(0xDEADC999)))
			Expect(dmem.ReadWord(12)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should commit x20 to the register file one edge later", func() {
			dp.RunCycles(4)
			Expect(dp.RegFile().Read(20)).To(BeZero())

			dp.Tick()
			Expect(dp.RegFile().Read(20)).To(Equal(uint32(0xDEADC999)))
		})

		It("should follow the cycle-by-cycle timing", func() {
			Expect(dp.PC()).To(BeZero())
			Expect(dp.Instruction()).To(Equal(uint32(0x00802903)))
			Expect(dp.NextWriteback().DestReg).To(Equal(uint8(18)))

			dp.Tick() // lw x18
			Expect(dp.PC()).To(Equal(uint32(4)))
			Expect(dp.Instruction()).To(Equal(uint32(0x01202623)))
			Expect(dp.RegFile().Read(18)).To(BeZero())
			Expect(dp.ReadRegister(18)).To(Equal(uint32(0xDEADBEEF)))
			Expect(dp.Evaluate().MemRequest.WriteData).To(Equal(uint32(0xDEADBEEF)))
			Expect(dmem.ReadWord(12)).To(Equal(uint32(0xF2F2F2F2)))

			dp.Tick() // sw x18
			Expect(dp.RegFile().Read(18)).To(Equal(uint32(0xDEADBEEF)))
			Expect(dmem.ReadWord(12)).To(Equal(uint32(0xDEADBEEF)))
			Expect(dp.NextWriteback().DestReg).To(Equal(uint8(19)))

			dp.Tick() // lw x19
			Expect(dp.Writeback().DestReg).To(Equal(uint8(19)))
			Expect(dp.WritebackData()).To(Equal(uint32(0x00000AAA)))
			Expect(dp.WritebackEnable()).To(BeTrue())

			dp.Tick() // add x20
			Expect(dp.RegFile().Read(19)).To(Equal(uint32(0x00000AAA)))
		})
	})

	It("should keep a store followed by a load sequentially consistent", func() {
		dp = pipeline.NewDatapath(imem, dmem)
		load(
			insts.EncodeADDI(7, 0, 0x10),
			insts.EncodeADDI(3, 0, 256),
			insts.EncodeSW(3, 7, 8),
			insts.EncodeLW(4, 7, 8),
			insts.NOP,
			insts.NOP,
		)

		dp.RunCycles(4)
		Expect(dp.ReadRegister(4)).To(Equal(uint32(256)))

		dp.RunCycles(1)
		Expect(dp.RegFile().Read(4)).To(Equal(uint32(256)))
		Expect(dmem.ReadWord(0x18)).To(Equal(uint32(256)))
	})

	Describe("branches", func() {
		BeforeEach(func() {
			load(
				insts.EncodeADDI(1, 0, 5),     // 0x00
				insts.EncodeBEQ(1, 0, 8),      // 0x04 not taken
				insts.EncodeBEQ(1, 1, 8),      // 0x08 taken
				insts.EncodeADDI(2, 0, 0x111), // 0x0C skipped
				insts.EncodeADDI(3, 0, 0x222), // 0x10
			)
		})

		It("should advance by 4 when beq operands differ", func() {
			dp.Tick()

			Expect(dp.Control().Branch).To(BeTrue())
			Expect(dp.Evaluate().Execute.PCSource).To(BeFalse())
			Expect(dp.PCNext()).To(Equal(uint32(0x08)))
		})

		It("should fetch the target when beq operands are equal", func() {
			dp.RunCycles(2)
			Expect(dp.Evaluate().Execute.PCSource).To(BeTrue())
			Expect(dp.PCNext()).To(Equal(uint32(0x10)))

			dp.Tick()
			Expect(dp.PC()).To(Equal(uint32(0x10)))
			Expect(dp.Instruction()).To(Equal(insts.EncodeADDI(3, 0, 0x222)))

			dp.RunCycles(3)
			Expect(dp.RegFile().Read(2)).To(BeZero())
			Expect(dp.RegFile().Read(3)).To(Equal(uint32(0x222)))
		})

		It("should count taken branches", func() {
			dp.RunCycles(4)
			Expect(dp.Stats().BranchesTaken).To(Equal(uint64(1)))
		})
	})

	Describe("jumps", func() {
		It("should link PC+4 and jump", func() {
			imem.Load(0x44, []uint32{
				0x00C000EF, // 0x44 jal x1, 0xC
				insts.NOP,  // 0x48
				0x00C000EF, // 0x4C jal x1, 0xC
				0xFFDFF0EF, // 0x50 jal x1, -4
				insts.NOP,  // 0x54
				0x00C02383, // 0x58 lw x7, 0xC(x0)
			})
			dp = pipeline.NewDatapath(imem, dmem, pipeline.WithEntry(0x44))

			dp.Tick()
			Expect(dp.Writeback().DestReg).To(Equal(uint8(1)))
			Expect(dp.WritebackData()).To(Equal(uint32(0x48)))
			Expect(dp.PC()).To(Equal(uint32(0x50)))

			dp.Tick()
			Expect(dp.WritebackData()).To(Equal(uint32(0x54)))
			Expect(dp.PC()).To(Equal(uint32(0x4C)))

			dp.Tick()
			Expect(dp.WritebackData()).To(Equal(uint32(0x50)))
			Expect(dp.PC()).To(Equal(uint32(0x58)))
		})

		It("should jump to rs1 + imm for jalr", func() {
			load(
				insts.EncodeADDI(7, 0, 0x20),
				insts.EncodeJALR(1, 7, -4),
			)

			dp.Tick()
			Expect(dp.PCNext()).To(Equal(uint32(0x1C)))

			dp.Tick()
			Expect(dp.PC()).To(Equal(uint32(0x1C)))
			Expect(dp.WritebackData()).To(Equal(uint32(0x8)))
		})
	})

	It("should compute auipc relative to its own PC", func() {
		imem.Load(0x64, []uint32{0x1F1FA297, 0x2F2FA2B7})
		dp = pipeline.NewDatapath(imem, dmem, pipeline.WithEntry(0x64))

		dp.Tick()
		Expect(dp.WritebackData()).To(Equal(uint32(0x1F1FA064)))

		dp.Tick()
		Expect(dp.WritebackData()).To(Equal(uint32(0x2F2FA000)))
	})

	Describe("suppression", func() {
		It("should not write memory for a misaligned store", func() {
			dmem.Load(0, []uint32{0xAEAEAEAE})
			load(
				insts.EncodeADDI(8, 0, -1),
				insts.EncodeSW(8, 0, 1),
				insts.EncodeLoad(0b001, 9, 0, 3),
				insts.NOP,
				insts.NOP,
			)

			dp.RunCycles(2)
			Expect(dmem.ReadWord(0)).To(Equal(uint32(0xAEAEAEAE)))

			dp.Tick()
			Expect(dp.WritebackEnable()).To(BeFalse())

			dp.RunCycles(2)
			Expect(dp.RegFile().Read(9)).To(BeZero())
			Expect(dp.Stats().Suppressed).To(Equal(uint64(2)))
		})

		It("should write back sub-word loads at aligned offsets", func() {
			dmem.Load(0x10, []uint32{0xDEADBEEF})
			load(
				insts.EncodeLoad(0b000, 18, 0, 0x13), // lb, lane 3
				insts.EncodeLoad(0b100, 19, 0, 0x11), // lbu, lane 1
				insts.EncodeLoad(0b001, 20, 0, 0x12), // lh, upper half
				insts.EncodeLoad(0b101, 21, 0, 0x12), // lhu, upper half
				insts.NOP,
				insts.NOP,
			)

			dp.RunCycles(6)

			Expect(dp.RegFile().Read(18)).To(Equal(uint32(0xFFFFFFDE)))
			Expect(dp.RegFile().Read(19)).To(Equal(uint32(0x000000BE)))
			Expect(dp.RegFile().Read(20)).To(Equal(uint32(0xFFFFDEAD)))
			Expect(dp.RegFile().Read(21)).To(Equal(uint32(0x0000DEAD)))
		})

		It("should never write back shifts with an illegal funct7", func() {
			rng := rand.New(rand.NewSource(42))

			for i := 0; i < 1000; i++ {
				funct7 := uint8(rng.Intn(128))
				if funct7 == 0b0000000 || funct7 == 0b0100000 {
					continue
				}
				funct3 := []uint8{0b001, 0b101}[rng.Intn(2)]

				prog := emu.NewMemory(8)
				prog.Load(0, []uint32{
					insts.EncodeADDI(19, 0, 1),
					insts.EncodeR(insts.OpcodeIALU, 19, funct3, 19, 4, funct7),
					insts.NOP,
					insts.NOP,
				})
				dp = pipeline.NewDatapath(prog, dmem)
				dp.RunCycles(4)

				Expect(dp.RegFile().Read(19)).To(Equal(uint32(1)),
					"funct3=%03b funct7=%07b", funct3, funct7)
			}
		})

		It("should still advance the PC past an illegal instruction", func() {
			load(insts.EncodeSLLI(5, 0, 1, 0b1000000))

			dp.Tick()

			Expect(dp.PC()).To(Equal(uint32(4)))
			Expect(dp.WritebackEnable()).To(BeFalse())
		})
	})

	It("should keep x0 at zero", func() {
		load(insts.EncodeADDI(0, 0, 5), insts.EncodeADDI(1, 0, 0))

		dp.Tick()
		Expect(dp.ReadRegister(0)).To(BeZero())
		Expect(dp.Evaluate().Decode.Rs1Value).To(BeZero())

		dp.Tick()
		Expect(dp.RegFile().Read(0)).To(BeZero())
	})

	It("should commit a pending load on drain without advancing", func() {
		dmem.Load(8, []uint32{0xDEADBEEF})
		load(insts.EncodeLW(18, 0, 8), insts.NOP)
		dp.RunCycles(1)
		Expect(dp.RegFile().Read(18)).To(BeZero())

		dp.Drain()

		Expect(dp.RegFile().Read(18)).To(Equal(uint32(0xDEADBEEF)))
		Expect(dp.WritebackEnable()).To(BeFalse())
		Expect(dp.PC()).To(Equal(uint32(4)))
		Expect(dp.Stats().Cycles).To(Equal(uint64(1)))
	})

	It("should reset everything except memory", func() {
		dmem.Load(8, []uint32{0xDEADBEEF})
		load(insts.EncodeLW(18, 0, 8), insts.EncodeSW(18, 0, 12), insts.NOP)
		dp.RunCycles(3)

		dp.Reset()

		Expect(dp.PC()).To(BeZero())
		Expect(dp.RegFile().Read(18)).To(BeZero())
		Expect(dp.WritebackEnable()).To(BeFalse())
		Expect(dp.Stats()).To(Equal(pipeline.Statistics{}))
		Expect(dmem.ReadWord(12)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should collect statistics", func() {
		dmem.Load(8, []uint32{0xDEADBEEF})
		load(
			insts.EncodeLW(18, 0, 8),
			insts.EncodeSW(18, 0, 12),
			insts.NOP,
		)

		dp.RunCycles(3)
		stats := dp.Stats()

		Expect(stats.Cycles).To(Equal(uint64(3)))
		Expect(stats.Instructions).To(Equal(uint64(3)))
		Expect(stats.Loads).To(Equal(uint64(1)))
		Expect(stats.Stores).To(Equal(uint64(1)))
		Expect(stats.Forwards).To(Equal(uint64(1)))
		Expect(stats.RegisterWrites).To(Equal(uint64(1)))
		Expect(stats.CPI()).To(Equal(1.0))
	})
})
