package benchmarks

import "github.com/sarchlab/rv32core/insts"

// SelfTestProgram exercises every RV32I instruction class, including
// illegal shift encodings and misaligned accesses that the core must
// suppress. It ends in a self-loop at SelfTestHaltPC.
var SelfTestProgram = []uint32{
	// load, store, add, and
	0x00802903,
	0x01202623,
	0x01002983,
	0x01390A33,
	0x01497AB3,

	// or
	0x01402283,
	0x01802303,
	0x0062E3B3,

	// beq
	0x00730663,
	0x00802B03,
	0x01690863,
	0x00000013,
	0x00000013,
	0x00000663,
	0x00002B03,
	0xFF6B0CE3,
	0x00000013,

	// jal
	0x00C000EF,
	0x00000013,
	0x00C000EF,
	0xFFDFF0EF,
	0x00000013,
	0x00C02383,

	// addi
	0x1AB38D13,
	0xF2130C93,

	// auipc at 0x64, lui
	0x1F1FA297,
	0x2F2FA2B7,

	// slti, sltiu
	0xFFF9AB93,
	0x001BAB93,
	0xFFF9BB13,
	0x0019BB13,

	// xori, ori, andi
	0xAAA94913,
	0x00094993,
	0xAAA9EA13,
	0x000A6A93,
	0x7FFA7913,
	0xFFFAF993,
	0x000AFA13,

	// shift immediates; every second one has an illegal funct7
	0x00499993,
	0x02499993,
	0x0049DA13,
	0x0249DA13,
	0x404ADA93,
	0x424ADA93,

	// register-register ALU
	0x412A8933,
	0x00800393,
	0x00791933,
	0x013928B3,
	0x013938B3,
	0x013948B3,
	0x0079D433,
	0x4079D433,

	// blt, bne, bge, bltu, bgeu
	0x0088C463,
	0x01144463,
	0x00C00413,
	0x00841463,
	0x01141463,
	0x00C00413,
	0x01145463,
	0x00845463,
	0x00C00413,
	0x01146463,
	0x0088E463,
	0x00C00413,
	0x0088F463,
	0x01147463,
	0x00C00413,

	// jalr
	0x00000397,
	0x01438393,
	0xFFC380E7,
	0x00C00413,

	// byte and halfword stores, some misaligned
	0x008020A3,
	0x00800323,
	0x008010A3,
	0x008011A3,
	0x00801323,

	// byte and halfword loads, some misaligned
	0x01000393,
	0xFFF3A903,
	0xFFF38903,
	0xFFD3C983,
	0xFFD39A03,
	0xFFA39A03,
	0xFFD3DA83,
	0xFFA3DA83,

	// store then load
	0x10000193,
	0x00302423,
	0x00802203,

	// padding
	0x00000013,
	0x00000013,
	0x00000013,
	0x00000013,
	0x00000013,

	insts.Halt,
}

// SelfTestData is the data memory image SelfTestProgram runs against.
var SelfTestData = []uint32{
	0xAEAEAEAE,
	0x00000000,
	0xDEADBEEF,
	0xF2F2F2F2,
	0x00000AAA,
	0x125F552D,
	0x7F4FD46A,
	0x00000000,
	0x00000000,
}

// SelfTestHaltPC is the address of the final self-loop.
const SelfTestHaltPC uint32 = 0x170

// SelfTestRegisters is the register file after SelfTestProgram halts.
// Registers not listed are zero.
var SelfTestRegisters = map[uint8]uint32{
	1:  0x00000118,
	3:  0x00000100,
	4:  0x00000100,
	5:  0x2F2FA000,
	6:  0x7F4FD46A,
	7:  0x00000010,
	8:  0xFFFFFFEE,
	17: 0x000711F0,
	18: 0xFFFFFFDE,
	19: 0x000000BE,
	20: 0xFFFFDEAD,
	21: 0x0000DEAD,
	23: 0x00000001,
	25: 0x7F4FD38B,
	26: 0xDEADC09A,
}

// SelfTestMemory is the start of data memory after SelfTestProgram halts.
var SelfTestMemory = []uint32{
	0xAEAEAEAE,
	0xFFEE0000,
	0x00000100,
	0xDEADBEEF,
	0x00000AAA,
	0x125F552D,
	0x7F4FD46A,
}
