package benchmarks

import "github.com/sarchlab/rv32core/insts"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a specific datapath path and ends in a self-loop.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		selfTest(),
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchLoop(),
		byteCopy(),
		arraySum(),
		uartHello(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: the
// instruction self-test, a loop and a load-use chain.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		selfTest(),
		branchLoop(),
		byteCopy(),
	}
}

func encodeSB(rs2, rs1 uint8, imm int32) uint32 {
	return insts.EncodeS(0b000, rs1, rs2, imm)
}

func encodeLBU(rd, rs1 uint8, imm int32) uint32 {
	return insts.EncodeLoad(0b100, rd, rs1, imm)
}

func selfTest() Benchmark {
	return Benchmark{
		Name:              "self_test",
		Description:       "Every RV32I instruction class with suppressed encodings",
		Program:           SelfTestProgram,
		Data:              SelfTestData,
		ExpectedRegisters: SelfTestRegisters,
		ExpectedMemory:    SelfTestMemory,
	}
}

// Independent operations never forward.
func arithmeticSequential() Benchmark {
	program := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		rd := uint8(i%5 + 1)
		program = append(program, insts.EncodeADDI(rd, rd, 1))
	}
	program = append(program, insts.Halt)

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADDIs rotating over 5 registers - no back-to-back dependencies",
		Program:     program,
		ExpectedRegisters: map[uint8]uint32{
			1: 4, 2: 4, 3: 4, 4: 4, 5: 4,
		},
	}
}

// Every instruction reads the previous result through the forwarding path.
func dependencyChain() Benchmark {
	program := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		program = append(program, insts.EncodeADDI(1, 1, 1))
	}
	program = append(program, insts.Halt)

	return Benchmark{
		Name:              "dependency_chain",
		Description:       "20 dependent ADDIs (x1 = x1 + 1) - exercises writeback forwarding",
		Program:           program,
		ExpectedRegisters: map[uint8]uint32{1: 20},
	}
}

func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "4 stores followed by 4 loads of the same words",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 11),
			insts.EncodeADDI(2, 0, 22),
			insts.EncodeADDI(3, 0, 33),
			insts.EncodeADDI(4, 0, -44),
			insts.EncodeSW(1, 0, 0),
			insts.EncodeSW(2, 0, 4),
			insts.EncodeSW(3, 0, 8),
			insts.EncodeSW(4, 0, 12),
			insts.EncodeLW(5, 0, 0),
			insts.EncodeLW(6, 0, 4),
			insts.EncodeLW(7, 0, 8),
			insts.EncodeLW(8, 0, 12),
			insts.Halt,
		},
		ExpectedRegisters: map[uint8]uint32{
			5: 11, 6: 22, 7: 33, 8: 0xFFFFFFD4,
		},
		ExpectedMemory: []uint32{11, 22, 33, 0xFFFFFFD4},
	}
}

// Three calls to a leaf function that returns through jalr.
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 JAL/JALR call-return pairs",
		Program: []uint32{
			insts.EncodeJAL(1, 16), // 0x00: call f
			insts.EncodeJAL(1, 12), // 0x04: call f
			insts.EncodeJAL(1, 8),  // 0x08: call f
			insts.Halt,             // 0x0C
			insts.EncodeADDI(10, 10, 1),
			insts.EncodeJALR(0, 1, 0),
		},
		ExpectedRegisters: map[uint8]uint32{1: 0x0C, 10: 3},
	}
}

func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "10-iteration countdown loop closed by BNE",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 10),
			insts.EncodeADDI(2, 2, 3),
			insts.EncodeADDI(1, 1, -1),
			insts.EncodeBNE(1, 0, -8),
			insts.Halt,
		},
		ExpectedRegisters: map[uint8]uint32{1: 0, 2: 30},
	}
}

// Each SB stores the byte loaded by the LBU right before it.
func byteCopy() Benchmark {
	return Benchmark{
		Name:        "byte_copy",
		Description: "8-byte LBU/SB copy loop - load result forwarded into a store",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0),
			insts.EncodeADDI(2, 0, 0x20),
			insts.EncodeADDI(3, 0, 8),
			encodeLBU(4, 1, 0),
			encodeSB(4, 2, 0),
			insts.EncodeADDI(1, 1, 1),
			insts.EncodeADDI(2, 2, 1),
			insts.EncodeADDI(3, 3, -1),
			insts.EncodeBNE(3, 0, -20),
			insts.Halt,
		},
		Data: []uint32{0x44332211, 0x88776655},
		ExpectedRegisters: map[uint8]uint32{
			1: 8, 2: 0x28, 3: 0, 4: 0x88,
		},
		ExpectedMemory: []uint32{
			0x44332211, 0x88776655, 0, 0, 0, 0, 0, 0,
			0x44332211, 0x88776655,
		},
	}
}

func arraySum() Benchmark {
	return Benchmark{
		Name:        "array_sum",
		Description: "Sum of 8 words with an LW loop - load result used immediately",
		Program: []uint32{
			insts.EncodeADDI(1, 0, 0),
			insts.EncodeADDI(3, 0, 32),
			insts.EncodeLW(4, 1, 0),
			insts.EncodeADD(5, 5, 4),
			insts.EncodeADDI(1, 1, 4),
			insts.EncodeBNE(1, 3, -12),
			insts.EncodeSW(5, 0, 32),
			insts.Halt,
		},
		Data:              []uint32{1, 2, 3, 4, 5, 6, 7, 8},
		ExpectedRegisters: map[uint8]uint32{1: 32, 4: 8, 5: 36},
		ExpectedMemory:    []uint32{1, 2, 3, 4, 5, 6, 7, 8, 36},
	}
}

func uartHello() Benchmark {
	return Benchmark{
		Name:        "uart_hello",
		Description: "Transmit a string through the memory-mapped UART",
		Program: []uint32{
			insts.EncodeLUI(5, 0x80001),
			insts.EncodeADDI(6, 0, 'o'),
			encodeSB(6, 5, 0),
			insts.EncodeADDI(6, 0, 'k'),
			encodeSB(6, 5, 0),
			insts.EncodeADDI(6, 0, '\n'),
			encodeSB(6, 5, 0),
			insts.EncodeLW(7, 5, 4),
			insts.Halt,
		},
		ExpectedRegisters: map[uint8]uint32{5: 0x80001000, 7: 1},
		ExpectedUART:      "ok\n",
	}
}
