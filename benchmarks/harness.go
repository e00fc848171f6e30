// Package benchmarks provides RV32I programs with known results and a
// harness that runs them on the core and reports timing statistics.
package benchmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/rv32core/config"
	"github.com/sarchlab/rv32core/timing/core"
)

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// SimulatedCycles is the total number of clock edges, including the
	// one that executed the halting self-loop.
	SimulatedCycles     uint64  `json:"simulated_cycles"`
	InstructionsRetired uint64  `json:"instructions_retired"`
	CPI                 float64 `json:"cpi"`

	Forwards      uint64 `json:"forwards"`
	Loads         uint64 `json:"loads"`
	Stores        uint64 `json:"stores"`
	BranchesTaken uint64 `json:"branches_taken"`
	Suppressed    uint64 `json:"suppressed"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	Halted bool `json:"halted"`

	// Failure describes why the final state did not match, if it didn't.
	Failure string `json:"failure,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the benchmark halted with the expected state.
func (r BenchmarkResult) Passed() bool {
	return r.Halted && r.Failure == ""
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	Name        string
	Description string

	// Program is loaded into instruction memory at address 0.
	Program []uint32

	// Data is loaded into data memory at address 0.
	Data []uint32

	// ExpectedRegisters lists registers checked after the run.
	ExpectedRegisters map[uint8]uint32

	// ExpectedMemory is compared against data memory from address 0.
	ExpectedMemory []uint32

	// ExpectedUART is the text the program should transmit.
	ExpectedUART string
}

// Verify compares the final state of c against the expectations.
func (b Benchmark) Verify(c *core.Core) error {
	var errs []error

	for reg := uint8(0); reg < 32; reg++ {
		want, ok := b.ExpectedRegisters[reg]
		if !ok {
			continue
		}
		if got := c.ReadRegister(reg); got != want {
			errs = append(errs, fmt.Errorf("x%d = 0x%08X, want 0x%08X", reg, got, want))
		}
	}

	for i, want := range b.ExpectedMemory {
		addr := uint32(i * 4)
		if got := c.DataMemory().ReadWord(addr); got != want {
			errs = append(errs, fmt.Errorf("mem[0x%X] = 0x%08X, want 0x%08X", addr, got, want))
		}
	}

	if b.ExpectedUART != "" {
		if got := string(c.UART().Sent()); got != b.ExpectedUART {
			errs = append(errs, fmt.Errorf("uart sent %q, want %q", got, b.ExpectedUART))
		}
	}

	return errors.Join(errs...)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// MaxCycles bounds each run.
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger is passed to the core. Defaults to the root logger.
	Logger log.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: false,
		MaxCycles:    100_000,
		Output:       os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = log.Root()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.RunBenchmark(bench))
	}

	return results
}

// NewCore builds a core for bench with its program and data loaded.
func (h *Harness) NewCore(bench Benchmark) *core.Core {
	cfg := config.Default()
	cfg.MaxCycles = h.config.MaxCycles
	cfg.DataCache.Enabled = h.config.EnableDCache

	c := core.NewCore(core.WithConfig(cfg), core.WithLogger(h.config.Logger))
	c.LoadProgram(0, bench.Program)
	c.LoadData(0, bench.Data)

	return c
}

// RunBenchmark executes a single benchmark on a fresh core.
func (h *Harness) RunBenchmark(bench Benchmark) BenchmarkResult {
	c := h.NewCore(bench)

	start := time.Now()
	runErr := c.Run()
	wallTime := time.Since(start)

	stats := c.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		Forwards:            stats.Forwards,
		Loads:               stats.Loads,
		Stores:              stats.Stores,
		BranchesTaken:       stats.BranchesTaken,
		Suppressed:          stats.Suppressed,
		Halted:              c.Halted(),
		WallTime:            wallTime,
	}

	if stats.CacheEnabled {
		result.DCacheHits = stats.Cache.Hits
		result.DCacheMisses = stats.Cache.Misses
	}

	switch {
	case runErr != nil:
		result.Failure = runErr.Error()
	default:
		if err := bench.Verify(c); err != nil {
			result.Failure = err.Error()
		}
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== RV32 Core Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}

		_, _ = fmt.Fprintf(out, "Benchmark: %s [%s]\n", r.Name, status)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		if r.Failure != "" {
			_, _ = fmt.Fprintf(out, "  Failure: %s\n", r.Failure)
		}
		_, _ = fmt.Fprintf(out, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(out, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Forwards:             %d\n", r.Forwards)
		_, _ = fmt.Fprintf(out, "  Loads/Stores:         %d/%d\n", r.Loads, r.Stores)
		_, _ = fmt.Fprintf(out, "  Branches Taken:       %d\n", r.BranchesTaken)
		_, _ = fmt.Fprintf(out, "  Suppressed:           %d\n", r.Suppressed)

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,forwards,loads,stores,branches_taken,suppressed,dcache_hits,dcache_misses,passed")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.Forwards,
			r.Loads,
			r.Stores,
			r.BranchesTaken,
			r.Suppressed,
			r.DCacheHits,
			r.DCacheMisses,
			r.Passed(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp     string `json:"timestamp"`
	DCacheEnabled bool   `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Passed            int           `json:"passed"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var summary ReportSummary
	summary.TotalBenchmarks = len(results)
	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if r.Passed() {
			summary.Passed++
		}
	}
	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			DCacheEnabled: h.config.EnableDCache,
		},
		Results: results,
		Summary: summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
