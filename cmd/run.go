package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/sarchlab/rv32core/config"
	"github.com/sarchlab/rv32core/loader"
	"github.com/sarchlab/rv32core/timing/core"
	"github.com/sarchlab/rv32core/timing/pipeline"
)

var OutFilePerm = os.FileMode(0o644)

// FinalState is the machine state reported after a run.
type FinalState struct {
	PC        uint32
	Halted    bool
	Registers [32]uint32
	Stats     core.Stats
	LEDs      uint8
	UART      string
}

func captureState(c *core.Core) FinalState {
	s := FinalState{
		PC:     c.PC(),
		Halted: c.Halted(),
		Stats:  c.Stats(),
		LEDs:   c.LED().Outputs(),
		UART:   string(c.UART().Sent()),
	}
	for i := range s.Registers {
		s.Registers[i] = c.ReadRegister(uint8(i))
	}
	return s
}

// loadConfig reads --config, if given, and applies flag overrides.
func loadConfig(ctx *cli.Context) (*config.SimConfig, error) {
	cfg := config.Default()
	if path := ctx.Path(ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(MaxCyclesFlag.Name) {
		cfg.MaxCycles = ctx.Uint64(MaxCyclesFlag.Name)
	}
	if ctx.IsSet(DCacheFlag.Name) {
		cfg.DataCache.Enabled = ctx.Bool(DCacheFlag.Name)
	}
	if ctx.IsSet(LogLevelFlag.Name) {
		cfg.LogLevel = ctx.String(LogLevelFlag.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session holds what a command needs to build and report on a core.
type session struct {
	cfg    *config.SimConfig
	logger log.Logger
	out    io.Writer

	traceFile *os.File
	tracer    *pipeline.Tracer
}

func newSession(ctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	l, err := LoggerFromString(ctx.App.ErrWriter, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, logger: l, out: ctx.App.Writer}

	if path := ctx.Path(TraceFlag.Name); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, OutFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		s.traceFile = f
		s.tracer = pipeline.NewTracer(f)
	}

	return s, nil
}

func (s *session) newCore(extra ...core.Option) *core.Core {
	opts := []core.Option{
		core.WithConfig(s.cfg),
		core.WithLogger(s.logger),
		core.WithUARTOutput(s.out),
	}
	if s.tracer != nil {
		opts = append(opts, core.WithTracer(s.tracer))
	}
	return core.NewCore(append(opts, extra...)...)
}

// close flushes the trace file. It is safe to call more than once.
func (s *session) close() error {
	if s.traceFile == nil {
		return nil
	}
	f := s.traceFile
	s.traceFile = nil

	if err := s.tracer.Err(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return f.Close()
}

// finish runs c to completion and prints the report.
func (s *session) finish(ctx *cli.Context, c *core.Core) error {
	runErr := c.RunContext(ctx.Context)
	if errors.Is(runErr, core.ErrCycleLimit) {
		s.logger.Warn("Program did not halt", "cycles", c.Stats().Cycles)
	} else if runErr != nil {
		return runErr
	}

	state := captureState(c)
	printState(s.out, state)
	if ctx.Bool(DumpFlag.Name) {
		_, _ = fmt.Fprint(s.out, spew.Sdump(state))
	}

	if err := s.close(); err != nil {
		return err
	}
	return runErr
}

func printState(w io.Writer, s FinalState) {
	status := "halted"
	if !s.Halted {
		status = "running"
	}
	_, _ = fmt.Fprintf(w, "pc=0x%08x (%s)\n", s.PC, status)

	for i := 0; i < 32; i += 4 {
		_, _ = fmt.Fprintf(w, "x%-2d=0x%08x x%-2d=0x%08x x%-2d=0x%08x x%-2d=0x%08x\n",
			i, s.Registers[i], i+1, s.Registers[i+1],
			i+2, s.Registers[i+2], i+3, s.Registers[i+3])
	}

	st := s.Stats
	_, _ = fmt.Fprintf(w, "cycles=%d instructions=%d cpi=%.3f forwards=%d loads=%d stores=%d taken=%d suppressed=%d\n",
		st.Cycles, st.Instructions, st.CPI(), st.Forwards, st.Loads, st.Stores,
		st.BranchesTaken, st.Suppressed)
	if st.CacheEnabled {
		_, _ = fmt.Fprintf(w, "dcache hits=%d misses=%d hit_rate=%.3f writebacks=%d\n",
			st.Cache.Hits, st.Cache.Misses, st.Cache.HitRate(), st.Cache.Writebacks)
	}
	_, _ = fmt.Fprintf(w, "leds=%07b\n", s.LEDs)
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(PProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	hexPath, elfPath := ctx.Path(HexFlag.Name), ctx.Path(ELFFlag.Name)
	if (hexPath == "") == (elfPath == "") {
		return fmt.Errorf("exactly one of --%s and --%s is required", HexFlag.Name, ELFFlag.Name)
	}

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	var c *core.Core
	if elfPath != "" {
		prog, err := loader.Load(elfPath)
		if err != nil {
			return fmt.Errorf("failed to load program: %w", err)
		}
		c = s.newCore(core.WithEntry(prog.EntryPoint))
		prog.LoadInto(c.InstructionMemory(), c.DataMemory())
		s.logger.Info("Loaded ELF", "path", elfPath, "entry", pipeline.HexU32(prog.EntryPoint),
			"segments", len(prog.Segments))
	} else {
		words, err := loader.LoadHexFile(hexPath)
		if err != nil {
			return fmt.Errorf("failed to load program: %w", err)
		}
		c = s.newCore(core.WithEntry(uint32(ctx.Uint64(EntryFlag.Name))))
		c.LoadProgram(0, words)
		s.logger.Info("Loaded hex image", "path", hexPath, "words", len(words))
	}

	if path := ctx.Path(DataFlag.Name); path != "" {
		words, err := loader.LoadHexFile(path)
		if err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
		c.LoadData(0, words)
	}

	return s.finish(ctx, c)
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a program on the cycle-accurate core",
	Description: "Load a hex or ELF image, run it until it jumps to itself or hits the cycle limit, and print the final state.",
	Action:      Run,
	Flags: []cli.Flag{
		HexFlag,
		ELFFlag,
		DataFlag,
		EntryFlag,
		ConfigFlag,
		MaxCyclesFlag,
		DCacheFlag,
		TraceFlag,
		DumpFlag,
		PProfCPUFlag,
		LogLevelFlag,
	},
}
