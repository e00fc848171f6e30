// Package config holds the simulator configuration and its JSON form.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/rv32core/emu"
)

// CacheConfig describes the optional L1 data cache.
type CacheConfig struct {
	// Enabled puts the cache between the core and data RAM.
	Enabled bool `json:"enabled"`

	// Size in bytes. Default: 1024.
	Size int `json:"size"`

	// Associativity is the number of ways. Default: 2.
	Associativity int `json:"associativity"`

	// BlockSize is the line size in bytes. Default: 16.
	BlockSize int `json:"block_size"`

	HitLatency  uint64 `json:"hit_latency"`
	MissLatency uint64 `json:"miss_latency"`
}

// SimConfig holds the parameters of one simulation.
type SimConfig struct {
	// MemoryWords is the size of each of the instruction and data RAMs in
	// 32-bit words. Default: 4096 (16 KiB).
	MemoryWords int `json:"memory_words"`

	// PeripheralBase is the lowest address routed to peripherals.
	// Default: 0x80000000.
	PeripheralBase uint32 `json:"peripheral_base"`

	// LEDBase and UARTBase place the devices. Both must be at or above
	// PeripheralBase.
	LEDBase  uint32 `json:"led_base"`
	UARTBase uint32 `json:"uart_base"`

	// MaxCycles bounds Run. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`

	// HaltOnSelfLoop stops Run when an instruction jumps to itself.
	HaltOnSelfLoop bool `json:"halt_on_self_loop"`

	// ClockMHz is the clock frequency used when driven by an event engine.
	ClockMHz uint64 `json:"clock_mhz"`

	DataCache CacheConfig `json:"data_cache"`

	// LogLevel is one of trace, debug, info, warn, error, crit.
	LogLevel string `json:"log_level"`
}

// Default returns a SimConfig with default values.
func Default() *SimConfig {
	return &SimConfig{
		MemoryWords:    4096,
		PeripheralBase: 0x80000000,
		LEDBase:        0x80000000,
		UARTBase:       0x80001000,
		MaxCycles:      1_000_000,
		HaltOnSelfLoop: true,
		ClockMHz:       100,
		DataCache: CacheConfig{
			Size:          1024,
			Associativity: 2,
			BlockSize:     16,
			HitLatency:    1,
			MissLatency:   10,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads a SimConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a SimConfig to a JSON file.
func (c *SimConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a runnable system.
func (c *SimConfig) Validate() error {
	if c.MemoryWords <= 0 {
		return fmt.Errorf("memory_words must be > 0")
	}
	if uint64(c.MemoryWords)*4 > uint64(c.PeripheralBase) {
		return fmt.Errorf("memory_words overlaps peripheral_base 0x%08x", c.PeripheralBase)
	}
	if c.LEDBase < c.PeripheralBase || c.UARTBase < c.PeripheralBase {
		return fmt.Errorf("led_base and uart_base must be >= peripheral_base")
	}
	if overlaps(c.LEDBase, emu.LEDSpan, c.UARTBase, emu.UARTSpan) {
		return fmt.Errorf("led_base and uart_base ranges overlap")
	}
	if c.ClockMHz == 0 {
		return fmt.Errorf("clock_mhz must be > 0")
	}
	if c.DataCache.Enabled {
		dc := c.DataCache
		if dc.Associativity <= 0 || dc.BlockSize < 4 || dc.BlockSize%4 != 0 {
			return fmt.Errorf("data_cache geometry is invalid")
		}
		if dc.Size%(dc.Associativity*dc.BlockSize) != 0 || dc.Size == 0 {
			return fmt.Errorf("data_cache size must be a multiple of associativity*block_size")
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ParseLogLevel maps a level name (trace, debug, info, warn, error, crit)
// to its slog level. Names are case-insensitive.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "trce":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func overlaps(aBase, aSize, bBase, bSize uint32) bool {
	return uint64(aBase) < uint64(bBase)+uint64(bSize) &&
		uint64(bBase) < uint64(aBase)+uint64(aSize)
}

// Clone returns a deep copy of the SimConfig.
func (c *SimConfig) Clone() *SimConfig {
	clone := *c
	return &clone
}
