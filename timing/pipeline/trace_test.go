package pipeline_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
	"github.com/sarchlab/rv32core/timing/pipeline"
)

var _ = Describe("Tracer", func() {
	It("should write one entry per cycle", func() {
		imem := emu.NewMemory(16)
		imem.Load(0, []uint32{insts.EncodeADDI(1, 0, 5), insts.EncodeADDI(2, 1, 1)})
		buf := &bytes.Buffer{}
		tracer := pipeline.NewTracer(buf)

		dp := pipeline.NewDatapath(imem, emu.NewMemory(16), pipeline.WithTracer(tracer))
		dp.RunCycles(2)

		Expect(tracer.Err()).NotTo(HaveOccurred())

		entries, err := pipeline.ReadTrace(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))

		Expect(uint64(entries[1].Cycle)).To(Equal(uint64(2)))
		Expect(uint64(entries[1].PC)).To(Equal(uint64(4)))
		Expect(uint64(entries[1].PCNext)).To(Equal(uint64(8)))

		rec := entries[1].Record()
		Expect(rec.DestReg).To(Equal(uint8(2)))
		Expect(rec.Data).To(Equal(uint32(6)))
		Expect(rec.RegWrite).To(BeTrue())
	})

	It("should encode words as hex strings", func() {
		entries, err := pipeline.ReadTrace(strings.NewReader(
			`{"cycle":"0x1","pc":"0x0","instruction":"0x802903","writeback":"0x35f200000008","pcNext":"0x4"}` + "\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(uint64(entries[0].Instruction)).To(Equal(uint64(0x00802903)))
		Expect(entries[0].Record().DestReg).To(Equal(uint8(18)))
		Expect(entries[0].Record().IsMemRead).To(BeTrue())
		Expect(entries[0].Record().Data).To(Equal(uint32(8)))
	})

	It("should report malformed lines", func() {
		_, err := pipeline.ReadTrace(strings.NewReader("{}\nnot json\n"))
		Expect(err).To(MatchError(ContainSubstring("line 2")))
	})

	It("should format log words as fixed-width hex", func() {
		Expect(pipeline.HexU32(0x48).String()).To(Equal("00000048"))
	})
})
