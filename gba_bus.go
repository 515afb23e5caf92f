// gba_bus.go - system bus adapter wiring membus.Bus + Scheduler + APU +
// PPU stub + cartridge into the ArmBus interface the ARM CPU drives

/*
The ARM CPU (cpu_arm.go) is written against the ArmBus interface, and
membus.Bus's own Read8/Write8 family carries no seq/non-seq distinction
and no wait-state or peripheral-tick bookkeeping - that timing
responsibility belongs one layer up, in the split between the page-table
resolver and its caller. GBASystemBus is that layer for the 32-bit
handheld: every access charges Bus.WaitStates, then advances the
scheduler/APU/PPU stub by the elapsed cycle count, with a single type
owning both the address decode and the cycle-accounting side effects of
an access.
*/

package main

const (
	gbaPageBits = 14
	gbaPageSize = 1 << gbaPageBits
)

type GBASystemBus struct {
	bus   *Bus
	sched *Scheduler
	apu   *APU
	ppu   *gbaPPUStub
	cart  *GBACart

	bios  []byte
	ewram []byte
	iwram []byte
	vram  []byte

	palette [1024]byte
	oam     [1024]byte

	ie, ifReg uint16
	ime       bool

	cycles uint64
}

func NewGBASystemBus(cart *GBACart, sched *Scheduler, apu *APU) *GBASystemBus {
	g := &GBASystemBus{
		cart:  cart,
		sched: sched,
		apu:   apu,
		bios:  make([]byte, gbaBIOSEnd-gbaBIOSStart+1),
		ewram: make([]byte, gbaEWRAMEnd-gbaEWRAMStart+1),
		iwram: make([]byte, gbaIWRAMEnd-gbaIWRAMStart+1),
		vram:  make([]byte, gbaVRAMEnd-gbaVRAMStart+1),
	}
	g.ppu = newGBAPPUStub(g.raiseIRQ)
	g.bus = NewBus(32, gbaPageBits, gbaPageBits, 1, g)

	biosIdx := g.bus.AddRegion("bios", g.bios)
	g.bus.MapPages(gbaBIOSStart>>gbaPageBits, uint32(len(g.bios))/gbaPageSize, biosIdx, 0, true)

	ewramIdx := g.bus.AddRegion("ewram", g.ewram)
	g.bus.MapPages(gbaEWRAMStart>>gbaPageBits, uint32(len(g.ewram))/gbaPageSize, ewramIdx, 0, false)

	iwramIdx := g.bus.AddRegion("iwram", g.iwram)
	g.bus.MapPages(gbaIWRAMStart>>gbaPageBits, uint32(len(g.iwram))/gbaPageSize, iwramIdx, 0, false)

	vramIdx := g.bus.AddRegion("vram", g.vram)
	g.bus.MapPages(gbaVRAMStart>>gbaPageBits, uint32(len(g.vram))/gbaPageSize, vramIdx, 0, false)

	if romPages := uint32(len(cart.rom)) / gbaPageSize; romPages > 0 {
		romIdx := g.bus.AddRegion("rom", cart.rom)
		g.bus.MapPages(gbaROMStart>>gbaPageBits, romPages, romIdx, 0, true)
	}

	return g
}

func (g *GBASystemBus) raiseIRQ(bit uint32) { g.ifReg |= 1 << bit }

// PendingIRQ reports whether the CPU's IRQ line should currently be
// asserted - polled by GBAMachine.Step before each CPU step, since the
// bus has no direct handle on the CPU and this core follows a
// single-threaded, no-callback-across-components convention.
func (g *GBASystemBus) PendingIRQ() bool {
	return g.ime && g.ifReg&g.ie != 0
}

func (g *GBASystemBus) charge(addr uint32, width int, seq bool) {
	g.advance(uint64(g.bus.WaitStates(addr, width, seq)))
}

func (g *GBASystemBus) advance(n uint64) {
	g.cycles += n
	g.apu.TickCycles(int(n))
	g.ppu.Tick(int(n))
	g.sched.PopDue(g.cycles)
}

func (g *GBASystemBus) Read8(addr uint32, seq bool) uint8 {
	g.charge(addr, 1, seq)
	return g.bus.Read8(addr)
}

func (g *GBASystemBus) Read16(addr uint32, seq bool) uint16 {
	g.charge(addr, 2, seq)
	return g.bus.Read16(addr)
}

func (g *GBASystemBus) Read32(addr uint32, seq bool) uint32 {
	g.charge(addr, 4, seq)
	return g.bus.Read32(addr)
}

func (g *GBASystemBus) Write8(addr uint32, value uint8, seq bool) {
	g.charge(addr, 1, seq)
	g.bus.Write8(addr, value)
}

func (g *GBASystemBus) Write16(addr uint32, value uint16, seq bool) {
	g.charge(addr, 2, seq)
	g.bus.Write16(addr, value)
}

func (g *GBASystemBus) Write32(addr uint32, value uint32, seq bool) {
	g.charge(addr, 4, seq)
	g.bus.Write32(addr, value)
}

func (g *GBASystemBus) Idle(cycles int) { g.advance(uint64(cycles)) }

// SlowRead/SlowWrite service every address the page table doesn't map
// directly: the I/O register window, palette/OAM (backed but never
// rendered, since rendering is excluded from this core), the
// cartridge's mirrored wait-state windows, and the save-device window.
func (g *GBASystemBus) SlowRead(addr uint32, width int) uint32 {
	switch addr >> 24 {
	case 0x04:
		return g.ioRead(addr&0xFFFFFF, width)
	case 0x05:
		return readWidth(g.palette[:], addr&0x3FF, width)
	case 0x07:
		return readWidth(g.oam[:], addr&0x3FF, width)
	case 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D:
		return romReadWidth(g.cart, addr&0x01FFFFFF, width)
	case 0x0E, 0x0F:
		return uint32(g.cart.SaveRead(addr & 0xFFFF))
	default:
		return 0
	}
}

func (g *GBASystemBus) SlowWrite(addr uint32, width int, value uint32) {
	switch addr >> 24 {
	case 0x04:
		g.ioWrite(addr&0xFFFFFF, width, value)
	case 0x05:
		writeWidth(g.palette[:], addr&0x3FF, width, value)
	case 0x07:
		writeWidth(g.oam[:], addr&0x3FF, width, value)
	case 0x0E, 0x0F:
		g.cart.SaveWrite(addr&0xFFFF, uint8(value))
	default:
		// BIOS and cartridge ROM are read-only; writes are discarded.
	}
}

func (g *GBASystemBus) ioRead(off uint32, width int) uint32 {
	switch off {
	case gbaRegDISPCNT, gbaRegDISPSTAT, gbaRegVCOUNT:
		return uint32(g.ppu.Read16(off))
	case gbaRegIE:
		return uint32(g.ie)
	case gbaRegIF:
		return uint32(g.ifReg)
	case gbaRegIME:
		if g.ime {
			return 1
		}
		return 0
	default:
		if apuOff, ok := gbaAPURegisterOffset(off); ok {
			return g.apu.HandleRead(apuOff)
		}
		return 0
	}
}

func (g *GBASystemBus) ioWrite(off uint32, width int, value uint32) {
	switch off {
	case gbaRegDISPCNT, gbaRegDISPSTAT:
		g.ppu.Write16(off, uint16(value))
	case gbaRegIE:
		g.ie = uint16(value)
	case gbaRegIF:
		g.ifReg &^= uint16(value) // write-1-to-acknowledge
	case gbaRegIME:
		g.ime = value&1 != 0
	default:
		if apuOff, ok := gbaAPURegisterOffset(off); ok {
			// the 32-bit core has no GB-style DIV register feeding
			// this APU's frame sequencer, so the power-on skew quirk
			// never applies here.
			g.apu.HandleWrite(apuOff, value, false)
		}
	}
}

// readWidth/writeWidth/romReadWidth implement little-endian multi-byte
// access over a small backing array (or the cartridge's own byte-at-a-
// time Read8), wrapping indices modulo the array length - palette/OAM
// mirror across their documented window on real hardware, and this is
// close enough for a component the PPU exclusion already scopes down to
// MMIO-surface-only.
func readWidth(data []byte, offset uint32, width int) uint32 {
	n := uint32(len(data))
	v := uint32(0)
	for i := 0; i < width; i++ {
		v |= uint32(data[(offset+uint32(i))%n]) << uint(8*i)
	}
	return v
}

func writeWidth(data []byte, offset uint32, width int, value uint32) {
	n := uint32(len(data))
	for i := 0; i < width; i++ {
		data[(offset+uint32(i))%n] = uint8(value >> uint(8*i))
	}
}

func romReadWidth(cart *GBACart, off uint32, width int) uint32 {
	v := uint32(0)
	for i := 0; i < width; i++ {
		v |= uint32(cart.Read8(off+uint32(i))) << uint(8*i)
	}
	return v
}
