package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
	"github.com/sarchlab/rv32core/timing/pipeline"
)

var _ = Describe("ForwardingUnit", func() {
	var (
		fu      *pipeline.ForwardingUnit
		wb      *pipeline.WritebackStage
		regFile *emu.RegFile
		inst    *insts.Instruction
	)

	BeforeEach(func() {
		fu = pipeline.NewForwardingUnit()
		wb = pipeline.NewWritebackStage()
		regFile = &emu.RegFile{}
		inst = insts.NewDecoder().Decode(insts.NOP)
	})

	It("should not forward from an empty writeback register", func() {
		fwd := fu.DetectForwarding(5, 6, wb)

		Expect(fwd.ForwardRs1).To(Equal(pipeline.ForwardNone))
		Expect(fwd.ForwardRs2).To(Equal(pipeline.ForwardNone))
	})

	It("should forward a matching destination", func() {
		regFile.Write(5, 1, true)
		wb.Latch(0, inst, pipeline.WritebackRecord{Data: 42, DestReg: 5, RegWrite: true}, 0)

		fwd := fu.DetectForwarding(5, 6, wb)

		Expect(fwd.ForwardRs1).To(Equal(pipeline.ForwardFromWB))
		Expect(fwd.ForwardRs2).To(Equal(pipeline.ForwardNone))
		Expect(fu.GetForwardedValue(fwd.ForwardRs1, regFile.Read(5), wb)).To(Equal(uint32(42)))
		Expect(fu.GetForwardedValue(fwd.ForwardRs2, 9, wb)).To(Equal(uint32(9)))
	})

	It("should never forward to x0", func() {
		wb.Latch(0, inst, pipeline.WritebackRecord{Data: 42, DestReg: 0, RegWrite: true}, 0)
		Expect(fu.DetectForwarding(0, 0, wb).ForwardRs1).To(Equal(pipeline.ForwardNone))
	})

	It("should not forward a disabled write", func() {
		wb.Latch(0, inst, pipeline.WritebackRecord{Data: 42, DestReg: 5}, 0)
		Expect(fu.DetectForwarding(5, 5, wb).ForwardRs2).To(Equal(pipeline.ForwardNone))
	})

	It("should forward decoded load data", func() {
		wb.Latch(0, inst, pipeline.WritebackRecord{
			Data:           8,
			DestReg:        18,
			ByteEnableMask: 0b1111,
			Funct3:         0b010,
			RegWrite:       true,
			IsMemRead:      true,
		}, 0xDEADBEEF)

		fwd := fu.DetectForwarding(0, 18, wb)

		Expect(fwd.ForwardRs2).To(Equal(pipeline.ForwardFromWB))
		Expect(fu.GetForwardedValue(fwd.ForwardRs2, 0, wb)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should not forward a misaligned load", func() {
		wb.Latch(0, inst, pipeline.WritebackRecord{
			Data:      2,
			DestReg:   18,
			Funct3:    0b010,
			RegWrite:  true,
			IsMemRead: true,
		}, 0xDEADBEEF)

		Expect(wb.Enable()).To(BeFalse())
		Expect(fu.DetectForwarding(18, 0, wb).ForwardRs1).To(Equal(pipeline.ForwardNone))
	})
})
