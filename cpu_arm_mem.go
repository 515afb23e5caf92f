// cpu_arm_mem.go - single/block data transfer and atomic swap

/*
Implements single/block data transfer and atomic swap: LDR/STR with the
unaligned-word rotate quirk, LDM/STM's ascending-register-order iteration
and its empty-list/base-in-list edge cases, and SWP/SWPB. Seq/non-seq
access-type threading matches membus.go's Read/Write split.
*/

package main

import "math/bits"

// rotateReadWord implements the ARM7TDMI's documented unaligned-word-load
// quirk: a misaligned LDR reads the aligned word containing the address
// and rotates it right by 8*(addr&3), rather than faulting.
func rotateReadWord(addr uint32, word uint32) uint32 {
	rot := (addr & 3) * 8
	if rot == 0 {
		return word
	}
	return bits.RotateLeft32(word, -int(rot))
}

func (c *ARMCPU) loadWord(addr uint32, seq bool) uint32 {
	word := c.bus.Read32(addr&^3, seq)
	return rotateReadWord(addr, word)
}

// loadSignedHalf implements the degrade-to-signed-byte quirk: a signed
// halfword load from an odd address instead loads a single signed byte
// from that address.
func (c *ARMCPU) loadSignedHalf(addr uint32, seq bool) uint32 {
	if addr&1 != 0 {
		b := c.bus.Read8(addr, seq)
		return uint32(int32(int8(b)))
	}
	h := c.bus.Read16(addr, seq)
	return uint32(int32(int16(h)))
}

func (c *ARMCPU) loadHalf(addr uint32, seq bool) uint32 {
	h := c.bus.Read16(addr&^1, seq)
	if addr&1 != 0 {
		h = uint16(bits.RotateLeft32(uint32(h), -8))
	}
	return uint32(h)
}

// singleTransfer executes one LDR/STR/LDRB/STRB/LDRH/STRH/LDRSB/LDRSH.
// offset has already been computed by the decode-table handler (immediate
// or shifted-register form); up selects add vs subtract, pre selects
// pre- vs post-indexing, writeback requests base update even on pre-index.
func (c *ARMCPU) singleTransfer(rn, rd int, offset uint32, load, byteWidth, up, pre, writeback bool, halfKind byte) {
	base := c.R[rn]
	var effective uint32
	if up {
		effective = base + offset
	} else {
		effective = base - offset
	}

	addr := base
	if pre {
		addr = effective
	}

	if load {
		var value uint32
		switch {
		case halfKind == 'H':
			value = c.loadHalf(addr, false)
		case halfKind == 'S': // LDRSH
			value = c.loadSignedHalf(addr, false)
		case halfKind == 'B' && byteWidth:
			value = uint32(int32(int8(c.bus.Read8(addr, false))))
		case byteWidth:
			value = uint32(c.bus.Read8(addr, false))
		default:
			value = c.loadWord(addr, false)
		}
		if rd == 15 {
			c.R[15] = value &^ 3
			c.resetSequential()
		} else {
			c.R[rd] = value
		}
		c.bus.Idle(1)
	} else {
		value := c.R[rd]
		if rd == 15 {
			value += 4 // PC read during STR is pipeline-ahead by one word
		}
		switch {
		case halfKind == 'H':
			c.bus.Write16(addr&^1, uint16(value), false)
		case byteWidth:
			c.bus.Write8(addr, uint8(value), false)
		default:
			c.bus.Write32(addr&^3, value, false)
		}
	}

	if load && rn == rd {
		return // the loaded value wins over writeback when Rn is also the destination
	}
	if !pre {
		c.R[rn] = effective
	} else if writeback {
		c.R[rn] = effective
	}
}

// blockTransfer executes LDM/STM. registerList is the 16-bit register
// mask; iteration is always in ascending register order regardless of
// the up/down direction flag. Handles the empty-list edge case
// (transfers R15, adjusts base by +-0x40) and the base-register-in-list
// edge cases for both STM (writes the original base when Rn is first in
// the list) and LDM (the loaded value wins and base writeback is
// suppressed: on ARMv4T whenever Rn is in the list, on ARMv5 only when
// Rn is the last register in the list). sBit
// selects the CPSR-transfer variant: an LDM that loads R15 with S set
// also restores CPSR from the current mode's SPSR, matching an
// exception return.
func (c *ARMCPU) blockTransfer(rn int, registerList uint16, load, up, pre, writeback, sBit bool) {
	base := c.R[rn]

	if registerList == 0 {
		addr := base
		if !up {
			addr -= 0x40
		}
		if pre == up {
			addr += 4
		}
		if load {
			c.R[15] = c.loadWord(addr, false) &^ 3
			c.resetSequential()
		} else {
			c.bus.Write32(addr, c.R[15]+4, false)
		}
		if up {
			c.R[rn] = base + 0x40
		} else {
			c.R[rn] = base - 0x40
		}
		return
	}

	count := bits.OnesCount16(registerList)
	start := base
	if !up {
		start = base - uint32(count)*4
	}

	finalBase := base
	if up {
		finalBase = base + uint32(count)*4
	} else {
		finalBase = start
	}

	addr := start
	firstTransfer := true
	lastReg := -1
	for reg := 0; reg < 16; reg++ {
		if registerList&(1<<uint(reg)) == 0 {
			continue
		}
		lastReg = reg
		xferAddr := addr
		if pre {
			xferAddr += 4
		}

		if load {
			value := c.loadWord(xferAddr, false)
			if reg == 15 {
				if sBit && c.HasSPSR() {
					c.exceptionReturn(value &^ 3)
				} else {
					c.R[15] = value &^ 3
					c.resetSequential()
				}
			} else {
				c.R[reg] = value
			}
		} else {
			value := c.R[reg]
			if reg == 15 {
				value += 4
			}
			switch {
			case reg == rn && firstTransfer:
				c.bus.Write32(xferAddr, base, false)
			case reg == rn:
				// a later occurrence of the base register stores the
				// already-updated base, not its original value
				c.bus.Write32(xferAddr, finalBase, false)
			default:
				c.bus.Write32(xferAddr, value, false)
			}
		}
		firstTransfer = false
		addr += 4
	}

	if load {
		c.bus.Idle(1)
	}

	if !writeback {
		return
	}
	if load && registerList&(1<<uint(rn)) != 0 && (!c.IsV5 || lastReg == rn) {
		return // loaded value wins: base write-back suppressed (v5: only when Rn is loaded last)
	}
	c.R[rn] = finalBase
}

// swap executes SWP/SWPB: an atomic read-then-write exchange between a
// memory location and a register.
func (c *ARMCPU) swap(rn, rd, rm int, byteWidth bool) {
	addr := c.R[rn]
	if byteWidth {
		old := c.bus.Read8(addr, false)
		c.bus.Write8(addr, uint8(c.R[rm]), false)
		c.R[rd] = uint32(old)
	} else {
		old := c.loadWord(addr, false)
		c.bus.Write32(addr&^3, c.R[rm], false)
		c.R[rd] = old
	}
	c.bus.Idle(1)
}
