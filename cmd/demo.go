package cmd

import (
	"fmt"

	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/rv32core/benchmarks"
)

// Demo runs the built-in instruction self-test and checks its final state.
func Demo(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	c := s.newCore()
	c.LoadProgram(0, benchmarks.SelfTestProgram)
	c.LoadData(0, benchmarks.SelfTestData)

	if err := s.finish(ctx, c); err != nil {
		return err
	}

	check := benchmarks.Benchmark{
		ExpectedRegisters: benchmarks.SelfTestRegisters,
		ExpectedMemory:    benchmarks.SelfTestMemory,
	}
	if err := check.Verify(c); err != nil {
		return fmt.Errorf("self-test failed: %w", err)
	}

	_, _ = fmt.Fprintln(ctx.App.Writer, "self-test passed")
	return nil
}

var DemoCommand = &cli.Command{
	Name:        "demo",
	Usage:       "Run the built-in instruction self-test",
	Description: "Run a program covering every RV32I instruction class and compare the final registers and memory with the expected values.",
	Action:      Demo,
	Flags: []cli.Flag{
		ConfigFlag,
		MaxCyclesFlag,
		DCacheFlag,
		TraceFlag,
		DumpFlag,
		PProfCPUFlag,
		LogLevelFlag,
	},
}

// Bench runs the microbenchmark suite and reports timing statistics.
func Bench(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	l, err := LoggerFromString(ctx.App.ErrWriter, cfg.LogLevel)
	if err != nil {
		return err
	}

	hc := benchmarks.DefaultConfig()
	hc.EnableDCache = cfg.DataCache.Enabled
	hc.MaxCycles = cfg.MaxCycles
	hc.Output = ctx.App.Writer
	hc.Logger = l

	harness := benchmarks.NewHarness(hc)
	harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	results := harness.RunAll()

	switch format := ctx.String(FormatFlag.Name); format {
	case "text":
		harness.PrintResults(results)
	case "csv":
		harness.PrintCSV(results)
	case "json":
		if err := harness.PrintJSON(results); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	for _, r := range results {
		if !r.Passed() {
			return fmt.Errorf("benchmark %s failed: %s", r.Name, r.Failure)
		}
	}
	return nil
}

var BenchCommand = &cli.Command{
	Name:   "bench",
	Usage:  "Run the microbenchmark suite",
	Action: Bench,
	Flags: []cli.Flag{
		ConfigFlag,
		MaxCyclesFlag,
		DCacheFlag,
		FormatFlag,
		LogLevelFlag,
	},
}
