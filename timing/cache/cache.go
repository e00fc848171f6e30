// Package cache provides an optional L1 data cache built on Akita cache
// components. It sits between the core and RAM and is functionally
// transparent: the core observes the same values with or without it.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rv32core/emu"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size), a multiple of 4
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64
}

// DefaultL1DConfig returns a small direct-to-RAM data cache: 1KB, 2-way,
// 16B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// Validate checks that the geometry describes at least one set.
func (c Config) Validate() error {
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", c.Associativity)
	}
	if c.BlockSize < 4 || c.BlockSize%4 != 0 {
		return fmt.Errorf("block size must be a positive multiple of 4, got %d", c.BlockSize)
	}
	if c.Size < c.Associativity*c.BlockSize || c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of associativity*block size (%d)",
			c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the word read, or for writes the word before the write.
	Data uint32
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
	// Uncached counts accesses outside the backing store's range.
	Uncached uint64
	// Cycles is the total latency of all accesses.
	Cycles uint64
}

// HitRate returns the fraction of accesses that hit.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore interface for the next level in the memory hierarchy.
type BackingStore interface {
	// ReadBlock fetches words starting at a block-aligned address.
	ReadBlock(addr uint32, words int) []uint32
	// WriteBlock stores words starting at a block-aligned address.
	WriteBlock(addr uint32, data []uint32)
}

// boundedStore is implemented by backing stores that only hold part of the
// address space. Words outside it are never allocated in the cache.
type boundedStore interface {
	Contains(addr uint32) bool
}

// Cache is a write-back, write-allocate cache of 32-bit words.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]uint32

	stats   Statistics
	backing BackingStore
}

// New creates a new cache with the given configuration. The configuration
// must pass Validate.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]uint32, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint32, config.BlockSize/4)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint32 {
	size := uint32(c.config.BlockSize)
	return addr / size * size
}

func (c *Cache) wordOffset(addr uint32) int {
	return int(addr%uint32(c.config.BlockSize)) / 4
}

// Read performs a cache read of the word containing addr.
func (c *Cache) Read(addr uint32) AccessResult {
	c.stats.Reads++

	block, result := c.lookup(addr)
	result.Data = c.dataStore[c.blockIndex(block)][c.wordOffset(addr)]

	return result
}

// Write overwrites the lanes selected by mask of the word containing
// addr. A zero mask writes nothing but still counts as an access.
func (c *Cache) Write(addr uint32, mask uint8, data uint32) AccessResult {
	c.stats.Writes++

	block, result := c.lookup(addr)
	words := c.dataStore[c.blockIndex(block)]
	off := c.wordOffset(addr)

	result.Data = words[off]
	if mask&0xF != 0 {
		words[off] = emu.MergeLanes(words[off], data, mask)
		block.IsDirty = true
	}

	return result
}

// lookup returns the block holding addr, filling it on a miss.
func (c *Cache) lookup(addr uint32) (*akitacache.Block, AccessResult) {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, uint64(blockAddr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.stats.Cycles += c.config.HitLatency
		c.directory.Visit(block)

		return block, AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	c.stats.Cycles += c.config.MissLatency

	return c.fill(blockAddr)
}

// fill evicts a victim and loads blockAddr into it.
func (c *Cache) fill(blockAddr uint32) (*akitacache.Block, AccessResult) {
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(uint64(blockAddr))
	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.WriteBlock(uint32(victim.Tag), victimData)
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.ReadBlock(blockAddr, len(victimData)))
	} else {
		clear(victimData)
	}

	// Tag stores the block-aligned address
	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return victim, result
}

// Access serves a data bus transaction, returning the word before any
// write carried by the request. Addresses the backing store does not hold
// bypass the cache.
func (c *Cache) Access(req emu.BusRequest) uint32 {
	if !req.Enable {
		return 0
	}

	if !c.cacheable(req.Address) {
		return c.accessUncached(req)
	}

	if req.ByteWriteEnable&0xF == 0 {
		return c.Read(req.Address).Data
	}

	return c.Write(req.Address, req.ByteWriteEnable, req.WriteData).Data
}

func (c *Cache) cacheable(addr uint32) bool {
	bounded, ok := c.backing.(boundedStore)
	return !ok || bounded.Contains(addr)
}

// accessUncached passes a word access straight to the backing store.
func (c *Cache) accessUncached(req emu.BusRequest) uint32 {
	c.stats.Uncached++

	addr := req.Address &^ 0x3
	old := c.backing.ReadBlock(addr, 1)[0]
	if req.ByteWriteEnable&0xF != 0 {
		c.backing.WriteBlock(addr, []uint32{emu.MergeLanes(old, req.WriteData, req.ByteWriteEnable)})
	}

	return old
}

// Invalidate marks a cache line as invalid without writing it back.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.WriteBlock(uint32(block.Tag), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
