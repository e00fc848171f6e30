package cmd

import "github.com/urfave/cli/v2"

var (
	HexFlag = &cli.PathFlag{
		Name:      "hex",
		Usage:     "instruction memory image in $readmemh format",
		TakesFile: true,
	}
	ELFFlag = &cli.PathFlag{
		Name:      "elf",
		Usage:     "RV32 ELF executable",
		TakesFile: true,
	}
	DataFlag = &cli.PathFlag{
		Name:      "dmem",
		Usage:     "data memory image in $readmemh format",
		TakesFile: true,
	}
	ConfigFlag = &cli.PathFlag{
		Name:      "config",
		Usage:     "simulator configuration JSON file",
		TakesFile: true,
	}
	EntryFlag = &cli.Uint64Flag{
		Name:  "entry",
		Usage: "reset PC for hex images (ELF images use their entry point)",
	}
	MaxCyclesFlag = &cli.Uint64Flag{
		Name:  "max-cycles",
		Usage: "stop after this many cycles (0: no limit); overrides the config file",
	}
	DCacheFlag = &cli.BoolFlag{
		Name:  "dcache",
		Usage: "place the L1 data cache in front of data memory; overrides the config file",
	}
	TraceFlag = &cli.PathFlag{
		Name:      "trace",
		Usage:     "write the writeback register of every cycle as JSON lines to this file",
		TakesFile: true,
	}
	DumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "dump the final machine state",
	}
	PProfCPUFlag = &cli.BoolFlag{
		Name:  "pprof.cpu",
		Usage: "enable pprof cpu profiling",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:  "log.level",
		Usage: "log level: trace, debug, info, warn, error, crit; overrides the config file",
	}
	FormatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "report format: text, csv or json",
		Value: "text",
	}
)
