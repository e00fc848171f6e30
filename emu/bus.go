package emu

import "sort"

// DefaultPeripheralBase is the lowest address decoded to a peripheral.
const DefaultPeripheralBase uint32 = 0x80000000

// BusRequest is one transaction on the instruction or data memory bus.
type BusRequest struct {
	Enable          bool
	Address         uint32 // byte address
	ByteWriteEnable uint8  // lane mask; zero means read
	WriteData       uint32
}

// Bus is a word-wide memory port. Access returns the addressed word as it
// was before any write carried by the request.
type Bus interface {
	Access(req BusRequest) uint32
}

type region struct {
	base uint32
	size uint32
	dev  Bus
}

func (r region) contains(addr uint32) bool {
	return addr >= r.base && addr-r.base < r.size
}

// Router decodes bus addresses: everything below the peripheral base goes
// to RAM, and attached devices claim ranges above it. Unclaimed
// peripheral addresses read as 0 and ignore writes.
type Router struct {
	ram     Bus
	base    uint32
	regions []region
}

// NewRouter creates a router in front of ram with peripherals starting at
// base.
func NewRouter(ram Bus, base uint32) *Router {
	return &Router{ram: ram, base: base}
}

// Attach maps dev at [base, base+size). Devices see absolute addresses.
func (r *Router) Attach(base, size uint32, dev Bus) {
	r.regions = append(r.regions, region{base: base, size: size, dev: dev})
	sort.Slice(r.regions, func(i, j int) bool {
		return r.regions[i].base < r.regions[j].base
	})
}

// Access routes req to RAM or to the device owning its address.
func (r *Router) Access(req BusRequest) uint32 {
	if req.Address < r.base {
		return r.ram.Access(req)
	}

	for _, reg := range r.regions {
		if reg.contains(req.Address) {
			return reg.dev.Access(req)
		}
	}

	return 0
}
