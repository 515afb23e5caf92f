// ppu_stub.go - PPU interface boundary, scanline/VBlank timing only

/*
The pixel-pusher/PPU is a deliberately excluded external collaborator:
this repo models its MMIO-facing timing surface (scanline
counter, VBlank/HBlank interrupt lines, the status/control registers
other components read and write) and nothing of its actual rendering
pipeline - no framebuffer, no tile/sprite fetch, no pixel FIFO. Two small
variants cover the two families' differing register layouts and line
counts; both advance their scanline from Tick, which the owning bus
calls with each access's elapsed cycles, not from Scheduler events.
*/

package main

const (
	gbCyclesPerLine  = 456
	gbVisibleLines   = 144
	gbLinesPerFrame  = 154

	gbaCyclesPerLine = 1232
	gbaVisibleLines  = 160
	gbaLinesPerFrame = 228
)

// gbPPUStub tracks LY/STAT/LCDC for the 8-bit family and raises the
// VBlank (bit 0) and LCD STAT (bit 1) interrupt lines on the owning
// GBCPU at the documented line boundaries.
type gbPPUStub struct {
	lcdc, stat, scy, scx, lyc, bgp, obp0, obp1, wy, wx byte
	ly           byte
	lineCycles   int
	cpu          *GBCPU
}

func newGBPPUStub(cpu *GBCPU) *gbPPUStub {
	return &gbPPUStub{cpu: cpu}
}

// Tick advances the scanline state machine by cycles system clocks,
// called from the owning GBSystemBus alongside its APU/CPU tick.
func (p *gbPPUStub) Tick(cycles int) {
	if p.lcdc&0x80 == 0 {
		return
	}
	p.lineCycles += cycles
	for p.lineCycles >= gbCyclesPerLine {
		p.lineCycles -= gbCyclesPerLine
		p.advanceLine()
	}
}

func (p *gbPPUStub) advanceLine() {
	prevLY := p.ly
	p.ly++
	if p.ly >= gbLinesPerFrame {
		p.ly = 0
	}
	if prevLY < gbVisibleLines && p.ly == gbVisibleLines {
		p.cpu.RequestInterrupt(0) // VBlank
		p.stat = p.stat&^0x03 | 0x01
	} else if p.ly < gbVisibleLines {
		p.stat = p.stat &^ 0x03
	}
	if p.stat&0x40 != 0 && p.ly == p.lyc {
		p.stat |= 0x04
		p.cpu.RequestInterrupt(1) // LCD STAT
	} else {
		p.stat &^= 0x04
	}
}

func (p *gbPPUStub) Read(addr uint16) byte {
	switch addr {
	case gbRegLCDC:
		return p.lcdc
	case gbRegSTAT:
		return p.stat
	case gbRegSCY:
		return p.scy
	case gbRegSCX:
		return p.scx
	case gbRegLY:
		return p.ly
	case gbRegLYC:
		return p.lyc
	case gbRegBGP:
		return p.bgp
	case gbRegOBP0:
		return p.obp0
	case gbRegOBP1:
		return p.obp1
	case gbRegWY:
		return p.wy
	case gbRegWX:
		return p.wx
	default:
		return 0xFF
	}
}

func (p *gbPPUStub) Write(addr uint16, value byte) {
	switch addr {
	case gbRegLCDC:
		if value&0x80 == 0 {
			p.ly, p.lineCycles = 0, 0
		}
		p.lcdc = value
	case gbRegSTAT:
		p.stat = p.stat&0x07 | value&0x78
	case gbRegSCY:
		p.scy = value
	case gbRegSCX:
		p.scx = value
	case gbRegLY:
		// Real hardware ignores writes to LY; matched here.
	case gbRegLYC:
		p.lyc = value
	case gbRegBGP:
		p.bgp = value
	case gbRegOBP0:
		p.obp0 = value
	case gbRegOBP1:
		p.obp1 = value
	case gbRegWY:
		p.wy = value
	case gbRegWX:
		p.wx = value
	}
}

// gbaPPUStub tracks DISPCNT/DISPSTAT/VCOUNT for the 32-bit handheld and
// raises its VBlank and V-counter-match interrupt lines (IF bits 0 and 2)
// through the owning GBASystemBus's IF register, mirroring gbPPUStub's
// role; no HBlank interrupt is raised.
type gbaPPUStub struct {
	dispcnt, dispstat uint16
	vcount            uint16
	lineCycles        int

	raiseIRQ func(bit uint32)
}

func newGBAPPUStub(raiseIRQ func(bit uint32)) *gbaPPUStub {
	return &gbaPPUStub{raiseIRQ: raiseIRQ}
}

func (p *gbaPPUStub) Tick(cycles int) {
	if p.dispcnt&0x80 != 0 { // forced blank
		return
	}
	p.lineCycles += cycles
	for p.lineCycles >= gbaCyclesPerLine {
		p.lineCycles -= gbaCyclesPerLine
		p.advanceLine()
	}
}

func (p *gbaPPUStub) advanceLine() {
	prev := p.vcount
	p.vcount++
	if p.vcount >= gbaLinesPerFrame {
		p.vcount = 0
	}
	if prev < gbaVisibleLines && p.vcount == gbaVisibleLines {
		p.dispstat |= 0x01
		if p.dispstat&0x08 != 0 {
			p.raiseIRQ(0)
		}
	}
	if p.vcount == 0 {
		p.dispstat &^= 0x01
	}
	if p.vcount == gbaVisibleLines-1 {
		p.dispstat |= 0x02
	} else {
		p.dispstat &^= 0x02
	}
	lyc := byte(p.dispstat >> 8)
	if uint16(lyc) == p.vcount {
		p.dispstat |= 0x04
		if p.dispstat&0x20 != 0 {
			p.raiseIRQ(2)
		}
	} else {
		p.dispstat &^= 0x04
	}
}

func (p *gbaPPUStub) Read16(ioOffset uint32) uint16 {
	switch ioOffset {
	case gbaRegDISPCNT:
		return p.dispcnt
	case gbaRegDISPSTAT:
		return p.dispstat
	case gbaRegVCOUNT:
		return p.vcount
	default:
		return 0
	}
}

func (p *gbaPPUStub) Write16(ioOffset uint32, value uint16) {
	switch ioOffset {
	case gbaRegDISPCNT:
		p.dispcnt = value
	case gbaRegDISPSTAT:
		p.dispstat = p.dispstat&0x0007 | value&^0x0007
	}
}
