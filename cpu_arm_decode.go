// cpu_arm_decode.go - ARM instruction decode table and category handlers

/*
Builds the 4096-entry ARM decode table, indexed by bits{27:20,7:4} of the
instruction word - the same two fields the ARM7TDMI's own instruction
decoder keys off, since together they fully determine an ARM
instruction's category. Each table slot holds a handler that re-parses
the full 32-bit word for its operand fields; the category split below
follows the standard ARMv4T/ARMv5TE encoding.
*/

package main

import "math/bits"

func buildArmDecodeTable() [4096]func(*ARMCPU, uint32) {
	var table [4096]func(*ARMCPU, uint32)
	for op1 := 0; op1 < 256; op1++ {
		for op2 := 0; op2 < 16; op2++ {
			index := op1<<4 | op2
			table[index] = classifyArm(byte(op1), byte(op2))
		}
	}
	return table
}

// classifyArm picks the category handler for the 8-bit "bits 27:20" and
// 4-bit "bits 7:4" fields. Each handler below re-derives every other
// field it needs directly from the 32-bit instruction word it's handed.
func classifyArm(op1 byte, op2 byte) func(*ARMCPU, uint32) {
	switch op1 >> 6 { // bits 27:26
	case 0b00:
		immOperand := op1&0x20 != 0 // bit 25
		if !immOperand && op2&0x9 == 0x9 {
			switch {
			case op1&0xFC == 0x00:
				return armMultiply
			case op1&0xF8 == 0x08:
				return armMultiplyLong
			case op1&0xF8 == 0x10 && op1&0x03 == 0 && op2 == 0x9:
				return armSwap
			case op2 != 0x9:
				return armHalfwordTransfer
			default:
				return armUndefined
			}
		}
		if op1&0x19 == 0x10 {
			return armMiscOrPSR
		}
		return armDataProcessing
	case 0b01:
		if op1&0x20 != 0 && op2&0x1 != 0 {
			return armUndefined
		}
		return armSingleDataTransfer
	case 0b10:
		if op1&0x20 != 0 {
			return armBranch
		}
		return armBlockDataTransfer
	default: // 0b11
		if op1&0x20 != 0 {
			if op1&0x10 != 0 {
				return armSWI
			}
			return armCoprocessorRegisterTransfer
		}
		return armCoprocessorDataTransfer
	}
}

func (c *ARMCPU) readOperandReg(reg int, pcBonus uint32) uint32 {
	if reg == 15 {
		return c.R[15] + pcBonus
	}
	return c.R[reg]
}

// armDataProcessing handles the sixteen ALU opcodes (AND..MVN) in both
// the immediate-operand2 and shifted-register-operand2 forms.
func armDataProcessing(c *ARMCPU, word uint32) {
	op := dpOp((word >> 21) & 0xF)
	setFlags := word&(1<<20) != 0
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)

	pcBonus := uint32(4)
	var operand2 uint32
	var shifterCarry bool

	if word&(1<<25) != 0 {
		imm8 := word & 0xFF
		rotate := ((word >> 8) & 0xF) * 2
		res := bits.RotateLeft32(imm8, -int(rotate))
		operand2 = res
		if rotate == 0 {
			shifterCarry = c.Flag(FlagC)
		} else {
			shifterCarry = res&(1<<31) != 0
		}
	} else {
		rm := int(word & 0xF)
		kind := shiftType((word >> 5) & 0x3)
		fromImmediate := true
		var amount uint32
		if word&(1<<4) != 0 {
			rs := int((word >> 8) & 0xF)
			amount = c.R[rs] & 0xFF
			fromImmediate = false
			pcBonus = 8
			c.bus.Idle(1)
		} else {
			amount = (word >> 7) & 0x1F
		}
		rmVal := c.readOperandReg(rm, pcBonus)
		res := barrelShift(kind, rmVal, amount, fromImmediate, c.Flag(FlagC))
		operand2 = res.value
		shifterCarry = res.carry
	}

	operand1 := c.readOperandReg(rn, pcBonus)
	c.execDataProcessing(op, rd, operand1, operand2, shifterCarry, setFlags)
}

// armMiscOrPSR covers the instruction space that data-processing's S=0,
// op-in-{TST,TEQ,CMP,CMN} forms would otherwise occupy: MRS, MSR
// (register and immediate), BX, BLX(register, v5), and CLZ (v5).
func armMiscOrPSR(c *ARMCPU, word uint32) {
	if word&(1<<25) != 0 {
		armMSRExec(c, word)
		return
	}

	op2 := (word >> 4) & 0xF
	bit21 := word&(1<<21) != 0
	bit22 := word&(1<<22) != 0

	switch op2 {
	case 0x1:
		if bit22 && c.IsV5 {
			armCLZExec(c, word)
			return
		}
		armBXExec(c, word)
		return
	case 0x3:
		if c.IsV5 {
			armBLXRegisterExec(c, word)
			return
		}
	}

	if !bit21 {
		armMRSExec(c, word)
		return
	}
	armMSRExec(c, word)
}

func armMRSExec(c *ARMCPU, word uint32) {
	rd := int((word >> 12) & 0xF)
	useSPSR := word&(1<<22) != 0
	value := c.CPSR
	if useSPSR && c.HasSPSR() {
		value = c.CurrentSPSR()
	}
	if rd != 15 {
		c.R[rd] = value
	}
}

// psrWriteMask decodes the fsxc field-mask bits (19:16) of an MSR
// instruction into the byte lanes of CPSR/SPSR it's allowed to touch.
func psrWriteMask(word uint32) uint32 {
	var mask uint32
	if word&(1<<19) != 0 {
		mask |= 0xFF000000
	}
	if word&(1<<18) != 0 {
		mask |= 0x00FF0000
	}
	if word&(1<<17) != 0 {
		mask |= 0x0000FF00
	}
	if word&(1<<16) != 0 {
		mask |= 0x000000FF
	}
	return mask
}

func armMSRExec(c *ARMCPU, word uint32) {
	useSPSR := word&(1<<22) != 0
	mask := psrWriteMask(word)

	var value uint32
	if word&(1<<25) != 0 {
		imm8 := word & 0xFF
		rotate := ((word >> 8) & 0xF) * 2
		value = bits.RotateLeft32(imm8, -int(rotate))
	} else {
		rm := int(word & 0xF)
		value = c.R[rm]
	}

	if useSPSR {
		if !c.HasSPSR() {
			return
		}
		slot := spsrSlot(c.Mode())
		c.SPSR[slot] = (c.SPSR[slot] &^ mask) | (value & mask)
		return
	}

	// User mode may only update the flag byte; the mode/control bits are
	// not writable from there.
	if c.Mode() == ModeUser {
		mask &= 0xFF000000
	}

	newCPSR := (c.CPSR &^ mask) | (value & mask)
	newMode := CPUMode(newCPSR & modeFieldMask)
	if newMode != c.Mode() {
		c.switchMode(newMode)
	}
	c.CPSR = newCPSR
}

func armBXExec(c *ARMCPU, word uint32) {
	rm := int(word & 0xF)
	target := c.R[rm]
	c.SetFlag(FlagT, target&1 != 0)
	c.R[15] = target &^ 1
	c.resetSequential()
}

func armBLXRegisterExec(c *ARMCPU, word uint32) {
	rm := int(word & 0xF)
	target := c.R[rm]
	c.R[14] = c.R[15]
	c.SetFlag(FlagT, target&1 != 0)
	c.R[15] = target &^ 1
	c.resetSequential()
}

func armCLZExec(c *ARMCPU, word uint32) {
	rd := int((word >> 12) & 0xF)
	rm := int(word & 0xF)
	c.R[rd] = uint32(bits.LeadingZeros32(c.R[rm]))
}

func armMultiply(c *ARMCPU, word uint32) {
	rd := int((word >> 16) & 0xF)
	rn := int((word >> 12) & 0xF)
	rs := int((word >> 8) & 0xF)
	rm := int(word & 0xF)
	accumulate := word&(1<<21) != 0
	setFlags := word&(1<<20) != 0

	result := c.R[rm] * c.R[rs]
	if accumulate {
		result += c.R[rn]
	}
	c.R[rd] = result

	if setFlags {
		c.SetFlag(FlagN, result&(1<<31) != 0)
		c.SetFlag(FlagZ, result == 0)
	}

	stall := mulStallCycles(c.R[rs])
	if accumulate {
		stall++
	}
	c.bus.Idle(stall)
}

func armMultiplyLong(c *ARMCPU, word uint32) {
	rdHi := int((word >> 16) & 0xF)
	rdLo := int((word >> 12) & 0xF)
	rs := int((word >> 8) & 0xF)
	rm := int(word & 0xF)
	signed := word&(1<<22) != 0
	accumulate := word&(1<<21) != 0
	setFlags := word&(1<<20) != 0

	var result uint64
	if signed {
		result = uint64(int64(int32(c.R[rm])) * int64(int32(c.R[rs])))
	} else {
		result = uint64(c.R[rm]) * uint64(c.R[rs])
	}
	if accumulate {
		result += uint64(c.R[rdHi])<<32 | uint64(c.R[rdLo])
	}
	c.R[rdLo] = uint32(result)
	c.R[rdHi] = uint32(result >> 32)

	if setFlags {
		c.SetFlag(FlagN, result&(1<<63) != 0)
		c.SetFlag(FlagZ, result == 0)
	}

	stall := mulStallCycles(c.R[rs]) + 1
	if accumulate {
		stall++
	}
	c.bus.Idle(stall)
}

func armSwap(c *ARMCPU, word uint32) {
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)
	rm := int(word & 0xF)
	byteWidth := word&(1<<22) != 0
	c.swap(rn, rd, rm, byteWidth)
}

func armHalfwordTransfer(c *ARMCPU, word uint32) {
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)
	load := word&(1<<20) != 0
	up := word&(1<<23) != 0
	pre := word&(1<<24) != 0
	immOffset := word&(1<<22) != 0
	sh := (word >> 5) & 0x3
	writeback := word&(1<<21) != 0 || !pre

	var offset uint32
	if immOffset {
		offset = (word>>8)&0xF<<4 | (word & 0xF)
	} else {
		offset = c.R[int(word&0xF)]
	}

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
		switch sh {
		case 0x1:
			value = c.loadHalf(addr, false)
		case 0x2:
			value = uint32(int32(int8(c.bus.Read8(addr, false))))
		case 0x3:
			value = c.loadSignedHalf(addr, false)
		}
		if rd == 15 {
			c.R[15] = value &^ 1
			c.resetSequential()
		} else {
			c.R[rd] = value
		}
		c.bus.Idle(1)
	} else {
		c.bus.Write16(addr&^1, uint16(c.R[rd]), false)
	}

	if writeback {
		c.R[rn] = effective
	}
}

func armSingleDataTransfer(c *ARMCPU, word uint32) {
	rn := int((word >> 16) & 0xF)
	rd := int((word >> 12) & 0xF)
	load := word&(1<<20) != 0
	writebackBit := word&(1<<21) != 0
	byteWidth := word&(1<<22) != 0
	up := word&(1<<23) != 0
	pre := word&(1<<24) != 0
	immOffset := word&(1<<25) == 0

	var offset uint32
	if immOffset {
		offset = word & 0xFFF
	} else {
		rm := int(word & 0xF)
		kind := shiftType((word >> 5) & 0x3)
		amount := (word >> 7) & 0x1F
		offset = barrelShift(kind, c.R[rm], amount, true, c.Flag(FlagC)).value
	}

	writeback := writebackBit || !pre
	c.singleTransfer(rn, rd, offset, load, byteWidth, up, pre, writeback, 0)
}

func armBlockDataTransfer(c *ARMCPU, word uint32) {
	rn := int((word >> 16) & 0xF)
	load := word&(1<<20) != 0
	writeback := word&(1<<21) != 0
	sBit := word&(1<<22) != 0
	up := word&(1<<23) != 0
	pre := word&(1<<24) != 0
	registerList := uint16(word & 0xFFFF)

	c.blockTransfer(rn, registerList, load, up, pre, writeback, sBit)
}

func armBranch(c *ARMCPU, word uint32) {
	link := word&(1<<24) != 0
	offset24 := word & 0xFFFFFF
	offset := uint32(int32(offset24<<8) >> 8 << 2) // sign-extend 24-bit word offset, then scale by 4

	if link {
		c.R[14] = c.R[15]
	}
	c.R[15] = c.R[15] + 4 + offset
	c.resetSequential()
}

func armSWI(c *ARMCPU, word uint32) {
	c.raiseException(ExceptionSoftwareInterrupt)
}

func armUndefined(c *ARMCPU, word uint32) {
	c.raiseException(ExceptionUndefined)
}

// Neither handheld this core targets exposes a coprocessor bus, so
// these decode slots can only be reached by genuinely malformed code;
// they fault the same way real silicon without a coprocessor does.
func armCoprocessorDataTransfer(c *ARMCPU, word uint32)    { c.raiseException(ExceptionUndefined) }
func armCoprocessorRegisterTransfer(c *ARMCPU, word uint32) { c.raiseException(ExceptionUndefined) }
