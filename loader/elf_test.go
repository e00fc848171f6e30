package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
	"github.com/sarchlab/rv32core/loader"
)

const (
	emRISCV = 243
	emX8664 = 62

	pfX = 0x1
	pfW = 0x2
	pfR = 0x4
)

type testSegment struct {
	vaddr uint32
	data  []byte
	memsz uint32
	flags uint32
}

func le(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// writeELF32 writes a little-endian ELF32 executable with one PT_LOAD
// program header per segment.
func writeELF32(path string, machine uint16, entry uint32, segs ...testSegment) {
	const (
		ehsize    = 52
		phentsize = 32
	)

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // little endian
	header[6] = 1 // version

	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehsize) // phoff
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(header[46:48], 40) // shentsize

	offset := uint32(ehsize + phentsize*len(segs))
	var phdrs, payload []byte
	for _, seg := range segs {
		memsz := seg.memsz
		if memsz == 0 {
			memsz = uint32(len(seg.data))
		}

		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], seg.vaddr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(seg.data)))
		binary.LittleEndian.PutUint32(ph[20:24], memsz)
		binary.LittleEndian.PutUint32(ph[24:28], seg.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)

		phdrs = append(phdrs, ph...)
		payload = append(payload, seg.data...)
		offset += uint32(len(seg.data))
	}

	out := append(append(header, phdrs...), payload...)
	Expect(os.WriteFile(path, out, 0644)).To(Succeed())
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		Context("with a valid RV32 ELF binary", func() {
			var elfPath string
			code := le(insts.EncodeADDI(1, 0, 42), insts.Halt)

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeELF32(elfPath, emRISCV, 0x4,
					testSegment{vaddr: 0x0, data: code, flags: pfR | pfX})
			})

			It("should extract the entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x4)))
			})

			It("should load the segment contents and flags", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(BeZero())
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})
		})

		Context("with code and data segments", func() {
			It("should route segments to the right memory", func() {
				elfPath := filepath.Join(tempDir, "multi.elf")
				writeELF32(elfPath, emRISCV, 0,
					testSegment{vaddr: 0x0, data: le(insts.EncodeLW(5, 0, 0x20), insts.Halt), flags: pfR | pfX},
					testSegment{vaddr: 0x20, data: le(0xDEADBEEF), memsz: 64, flags: pfR | pfW},
				)

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(2))
				Expect(prog.Segments[1].MemSize).To(Equal(uint32(64)))

				imem := emu.NewMemory(64)
				dmem := emu.NewMemory(64)
				prog.LoadInto(imem, dmem)

				Expect(imem.ReadWord(0)).To(Equal(insts.EncodeLW(5, 0, 0x20)))
				Expect(imem.ReadWord(4)).To(Equal(insts.Halt))
				Expect(imem.ReadWord(0x20)).To(BeZero())
				Expect(dmem.ReadWord(0x20)).To(Equal(uint32(0xDEADBEEF)))
				Expect(dmem.ReadWord(0)).To(BeZero())
			})

			It("should place unaligned segments byte by byte", func() {
				elfPath := filepath.Join(tempDir, "bytes.elf")
				writeELF32(elfPath, emRISCV, 0,
					testSegment{vaddr: 0x6, data: []byte{0xEE, 0xFF}, flags: pfR | pfW})

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())

				dmem := emu.NewMemory(4)
				prog.LoadInto(emu.NewMemory(4), dmem)
				Expect(dmem.ReadWord(4)).To(Equal(uint32(0xFFEE0000)))
			})
		})

		Context("with zero file size", func() {
			It("should keep the memory size", func() {
				elfPath := filepath.Join(tempDir, "bss.elf")
				writeELF32(elfPath, emRISCV, 0,
					testSegment{vaddr: 0x100, memsz: 4096, flags: pfR | pfW})

				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments[0].Data).To(BeEmpty())
				Expect(prog.Segments[0].MemSize).To(Equal(uint32(4096)))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(MatchError(ContainSubstring("failed to open")))
			})

			It("should return error for non-ELF file", func() {
				path := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(path, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(path)
				Expect(err).To(MatchError(ContainSubstring("ELF")))
			})

			It("should reject other machines", func() {
				path := filepath.Join(tempDir, "x86.elf")
				writeELF32(path, emX8664, 0)

				_, err := loader.Load(path)
				Expect(err).To(MatchError(ContainSubstring("not a RISC-V")))
			})
		})
	})
})
