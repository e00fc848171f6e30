// Package core provides the simulated system around the RV32I datapath.
// It owns the instruction and data memories, the peripheral bus and the
// optional data cache, and decides when a program has finished.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32core/config"
	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/timing/cache"
	"github.com/sarchlab/rv32core/timing/pipeline"
)

// ErrCycleLimit is returned when a program does not halt within the
// configured cycle budget.
var ErrCycleLimit = errors.New("cycle limit reached")

// Stats holds performance statistics for the core.
type Stats struct {
	pipeline.Statistics

	// Cache holds data cache statistics when the cache is enabled.
	Cache        cache.Statistics
	CacheEnabled bool
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.SimConfig) Option {
	return func(c *Core) {
		c.cfg = cfg.Clone()
	}
}

// WithUARTOutput sends bytes transmitted by the UART to w.
func WithUARTOutput(w io.Writer) Option {
	return func(c *Core) {
		c.uartOut = w
	}
}

// WithLogger sets the logger for the core and its datapath.
func WithLogger(logger log.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithTracer records the writeback register of every cycle to t.
func WithTracer(t *pipeline.Tracer) Option {
	return func(c *Core) {
		c.tracer = t
	}
}

// WithEntry sets the reset PC.
func WithEntry(pc uint32) Option {
	return func(c *Core) {
		c.entry = pc
	}
}

// Core is a complete single-core system: a datapath fetching from its own
// instruction RAM, and a data bus that routes to data RAM (optionally
// through a cache) or to the LED and UART peripherals.
type Core struct {
	cfg     *config.SimConfig
	logger  log.Logger
	tracer  *pipeline.Tracer
	uartOut io.Writer
	entry   uint32

	imem   *emu.Memory
	dmem   *emu.Memory
	dcache *cache.Cache
	router *emu.Router
	led    *emu.LED
	uart   *emu.UART

	datapath *pipeline.Datapath
	halted   bool
}

// NewCore builds a core from the given options.
func NewCore(opts ...Option) *Core {
	c := &Core{
		cfg:    config.Default(),
		logger: log.Root(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.imem = emu.NewMemory(c.cfg.MemoryWords)
	c.dmem = emu.NewMemory(c.cfg.MemoryWords)

	var ram emu.Bus = c.dmem
	if c.cfg.DataCache.Enabled {
		c.dcache = cache.New(cacheConfig(c.cfg.DataCache), cache.NewMemoryBacking(c.dmem))
		ram = c.dcache
	}

	c.led = emu.NewLED(func(outputs uint8) {
		c.logger.Debug("LED outputs changed", "leds", fmt.Sprintf("%07b", outputs))
	})
	c.uart = emu.NewUART(c.cfg.UARTBase, c.uartOut)

	c.router = emu.NewRouter(ram, c.cfg.PeripheralBase)
	c.router.Attach(c.cfg.LEDBase, emu.LEDSpan, c.led)
	c.router.Attach(c.cfg.UARTBase, emu.UARTSpan, c.uart)

	dpOpts := []pipeline.DatapathOption{
		pipeline.WithLogger(c.logger),
		pipeline.WithEntry(c.entry),
	}
	if c.tracer != nil {
		dpOpts = append(dpOpts, pipeline.WithTracer(c.tracer))
	}
	c.datapath = pipeline.NewDatapath(c.imem, c.router, dpOpts...)

	return c
}

func cacheConfig(dc config.CacheConfig) cache.Config {
	return cache.Config{
		Size:          dc.Size,
		Associativity: dc.Associativity,
		BlockSize:     dc.BlockSize,
		HitLatency:    dc.HitLatency,
		MissLatency:   dc.MissLatency,
	}
}

// Config returns a copy of the configuration the core was built with.
func (c *Core) Config() *config.SimConfig {
	return c.cfg.Clone()
}

// Datapath returns the underlying datapath.
func (c *Core) Datapath() *pipeline.Datapath {
	return c.datapath
}

// InstructionMemory returns the instruction RAM.
func (c *Core) InstructionMemory() *emu.Memory {
	return c.imem
}

// DataMemory returns the data RAM. With the cache enabled, its content
// is only current after Run returns or FlushCache is called.
func (c *Core) DataMemory() *emu.Memory {
	return c.dmem
}

// LED returns the LED peripheral.
func (c *Core) LED() *emu.LED {
	return c.led
}

// UART returns the UART peripheral.
func (c *Core) UART() *emu.UART {
	return c.uart
}

// LoadProgram copies words into instruction memory at base.
func (c *Core) LoadProgram(base uint32, words []uint32) {
	c.imem.Load(base, words)
}

// LoadData copies words into data memory at base.
func (c *Core) LoadData(base uint32, words []uint32) {
	c.dmem.Load(base, words)
}

// PC returns the address of the instruction in the current cycle.
func (c *Core) PC() uint32 {
	return c.datapath.PC()
}

// ReadRegister returns the architectural value of a register.
func (c *Core) ReadRegister(addr uint8) uint32 {
	return c.datapath.ReadRegister(addr)
}

// Halted reports whether the core reached a self-loop.
func (c *Core) Halted() bool {
	return c.halted
}

// Tick applies one clock edge. It returns false, without ticking, once
// the core has halted or used up its cycle budget. Core satisfies the
// akita sim.Ticker interface through this method.
func (c *Core) Tick() bool {
	if c.halted || c.outOfCycles() {
		return false
	}

	selfLoop := c.cfg.HaltOnSelfLoop && c.datapath.PCNext() == c.datapath.PC()
	c.datapath.Tick()

	if selfLoop {
		// The halting instruction may itself write a register (jal x1, 0).
		c.datapath.Drain()
		c.halted = true
		c.logger.Debug("Core halted",
			"pc", pipeline.HexU32(c.datapath.PC()),
			"cycles", c.datapath.Stats().Cycles)
	}

	return !c.halted
}

func (c *Core) outOfCycles() bool {
	return c.cfg.MaxCycles > 0 && c.datapath.Stats().Cycles >= c.cfg.MaxCycles
}

// RunCycles applies up to n clock edges. It returns true if the core is
// still running.
func (c *Core) RunCycles(n uint64) bool {
	for i := uint64(0); i < n; i++ {
		if !c.Tick() {
			return false
		}
	}
	return !c.halted
}

// Run ticks the core until it halts. The edge that executes the halting
// instruction also commits the last pending register write and the
// halting instruction's own write, so the register file is final when
// Run returns. The data cache is flushed
// before returning.
func (c *Core) Run() error {
	return c.RunContext(context.Background())
}

// ctxCheckInterval is how many cycles run between cancellation checks.
const ctxCheckInterval = 4096

// RunContext is like Run but stops early, returning ctx.Err(), when ctx is
// cancelled.
func (c *Core) RunContext(ctx context.Context) error {
	for n := uint64(1); c.Tick(); n++ {
		if n%ctxCheckInterval == 0 && ctx.Err() != nil {
			c.FlushCache()
			return ctx.Err()
		}
	}

	return c.finish()
}

// RunOnEngine drives the core from an akita ticking component registered
// on engine, at the configured clock frequency.
func (c *Core) RunOnEngine(engine sim.Engine) error {
	clock := sim.NewTickingComponent("RV32Core", engine,
		sim.Freq(c.cfg.ClockMHz)*sim.MHz, c)
	clock.TickLater()

	if err := engine.Run(); err != nil {
		return fmt.Errorf("failed to run engine: %w", err)
	}

	return c.finish()
}

func (c *Core) finish() error {
	c.FlushCache()

	if !c.halted {
		return fmt.Errorf("failed to halt after %d cycles: %w",
			c.datapath.Stats().Cycles, ErrCycleLimit)
	}

	return nil
}

// FlushCache writes dirty cache lines back to data memory. It does
// nothing when the cache is disabled.
func (c *Core) FlushCache() {
	if c.dcache != nil {
		c.dcache.Flush()
	}
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := Stats{Statistics: c.datapath.Stats()}
	if c.dcache != nil {
		s.CacheEnabled = true
		s.Cache = c.dcache.Stats()
	}
	return s
}

// Reset returns the core to its power-on state. Memory contents survive;
// dirty cache lines are written back first.
func (c *Core) Reset() {
	if c.dcache != nil {
		c.dcache.Flush()
		c.dcache.Reset()
	}
	c.datapath.Reset()
	c.halted = false
}
