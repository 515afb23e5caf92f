// cpu_arm_alu.go - barrel shifter, data-processing ALU, and multiply group

/*
Implements the barrel shifter, data-processing ALU, and multiply group.
The shift family tracks whether the shifter carry-out should update the
flag, and whether the shift amount came from an immediate (which selects
the "shift by zero" special forms), expressed as plain runtime branches:
the shifter is hot enough to special-case immediate-zero inline, but not
duplicated per S-bit/operand-source combination, trading a small branch
cost for far less generated code than a fully specialized handler per
flag combination would need.
*/

package main

type shiftType uint32

const (
	shiftLSL shiftType = iota
	shiftLSR
	shiftASR
	shiftROR
)

// shifterResult carries the shifted value and the carry-out the S-bit
// (when set) writes into CPSR.
type shifterResult struct {
	value uint32
	carry bool
}

// barrelShift applies one of the four shift types. fromImmediate
// distinguishes the "shift amount encoded as an immediate" case, which
// has special zero-amount forms; a register-sourced amount of zero is
// never special. LSL/LSR/ASR compare the amount directly against 32 and
// beyond, matching real silicon; ROR reduces a nonzero amount modulo 32.
func barrelShift(kind shiftType, value uint32, amount uint32, fromImmediate bool, carryIn bool) shifterResult {
	if fromImmediate && amount == 0 {
		switch kind {
		case shiftLSL:
			return shifterResult{value, carryIn}
		case shiftLSR:
			return shifterResult{0, value&(1<<31) != 0}
		case shiftASR:
			if value&(1<<31) != 0 {
				return shifterResult{0xFFFFFFFF, true}
			}
			return shifterResult{0, false}
		default: // ROR #0 is RRX: rotate right through carry by one bit
			carryOut := value&1 != 0
			result := value >> 1
			if carryIn {
				result |= 1 << 31
			}
			return shifterResult{result, carryOut}
		}
	}

	switch kind {
	case shiftLSL:
		switch {
		case amount == 0:
			return shifterResult{value, carryIn}
		case amount < 32:
			return shifterResult{value << amount, value&(1<<(32-amount)) != 0}
		case amount == 32:
			return shifterResult{0, value&1 != 0}
		default:
			return shifterResult{0, false}
		}
	case shiftLSR:
		switch {
		case amount == 0:
			return shifterResult{value, carryIn}
		case amount < 32:
			return shifterResult{value >> amount, value&(1<<(amount-1)) != 0}
		case amount == 32:
			return shifterResult{0, value&(1<<31) != 0}
		default:
			return shifterResult{0, false}
		}
	case shiftASR:
		sval := int32(value)
		switch {
		case amount == 0:
			return shifterResult{value, carryIn}
		case amount < 32:
			return shifterResult{uint32(sval >> amount), value&(1<<(amount-1)) != 0}
		default:
			if value&(1<<31) != 0 {
				return shifterResult{0xFFFFFFFF, true}
			}
			return shifterResult{0, false}
		}
	default: // ROR
		if amount == 0 {
			return shifterResult{value, carryIn}
		}
		amount &= 31
		if amount == 0 {
			return shifterResult{value, value&(1<<31) != 0}
		}
		result := value>>amount | value<<(32-amount)
		return shifterResult{result, value&(1<<(amount-1)) != 0}
	}
}

// dpOp is the 4-bit data-processing opcode field.
type dpOp uint32

const (
	dpAND dpOp = iota
	dpEOR
	dpSUB
	dpRSB
	dpADD
	dpADC
	dpSBC
	dpRSC
	dpTST
	dpTEQ
	dpCMP
	dpCMN
	dpORR
	dpMOV
	dpBIC
	dpMVN
)

func isLogicalOp(op dpOp) bool {
	switch op {
	case dpAND, dpEOR, dpTST, dpTEQ, dpORR, dpMOV, dpBIC, dpMVN:
		return true
	default:
		return false
	}
}

func isTestOp(op dpOp) bool {
	return op == dpTST || op == dpTEQ || op == dpCMP || op == dpCMN
}

// addWithFlags computes a+b+carryIn and reports the NZCV outcome, shared
// by ADD/ADC/CMN and (negated) SUB/SBC/CMP/RSB/RSC.
func addWithFlags(a, b uint32, carryIn bool) (result uint32, n, z, cy, v bool) {
	c := uint64(0)
	if carryIn {
		c = 1
	}
	wide := uint64(a) + uint64(b) + c
	result = uint32(wide)
	n = result&(1<<31) != 0
	z = result == 0
	cy = wide > 0xFFFFFFFF
	v = (a^result)&(b^result)&(1<<31) != 0
	return
}

// execDataProcessing performs the operation selected by op on operand1/
// operand2 (shifter already applied), writing to destReg unless it is a
// compare/test op, and updating flags when setFlags is set.
func (c *ARMCPU) execDataProcessing(op dpOp, destReg int, operand1, operand2 uint32, shifterCarry bool, setFlags bool) {
	var result uint32
	var n, z, cy, v bool
	cy = c.Flag(FlagC)
	v = c.Flag(FlagV)

	switch op {
	case dpAND, dpTST:
		result = operand1 & operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpEOR, dpTEQ:
		result = operand1 ^ operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpORR:
		result = operand1 | operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpMOV:
		result = operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpBIC:
		result = operand1 &^ operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpMVN:
		result = ^operand2
		n, z, cy = result&(1<<31) != 0, result == 0, shifterCarry
	case dpADD, dpCMN:
		result, n, z, cy, v = addWithFlags(operand1, operand2, false)
	case dpADC:
		result, n, z, cy, v = addWithFlags(operand1, operand2, c.Flag(FlagC))
	case dpSUB, dpCMP:
		result, n, z, cy, v = addWithFlags(operand1, ^operand2, true)
	case dpSBC:
		carryIn := byte(0)
		if c.Flag(FlagC) {
			carryIn = 1
		}
		result, n, z, cy, v = addWithFlags(operand1, ^operand2, carryIn != 0)
	case dpRSB:
		result, n, z, cy, v = addWithFlags(operand2, ^operand1, true)
	case dpRSC:
		carryIn := byte(0)
		if c.Flag(FlagC) {
			carryIn = 1
		}
		result, n, z, cy, v = addWithFlags(operand2, ^operand1, carryIn != 0)
	}

	if !isTestOp(op) {
		if destReg == 15 {
			if setFlags && c.HasSPSR() {
				c.exceptionReturn(result &^ 3)
				return
			}
			c.R[15] = result
			c.resetSequential()
			return
		}
		c.R[destReg] = result
	}

	if setFlags {
		c.SetFlag(FlagN, n)
		c.SetFlag(FlagZ, z)
		c.SetFlag(FlagC, cy)
		if !isLogicalOp(op) {
			c.SetFlag(FlagV, v)
		}
	}
}

// mulStallCycles implements the data-dependent multiply stall: 1-4 idle
// cycles based on how many of the top bytes of the multiplier are
// all-zero or all-one (signed-aware early termination), per the
// ARM7TDMI datasheet's documented behaviour - the magnitude-based rule
// rather than a flat worst-case stall.
func mulStallCycles(multiplier uint32) int {
	m := multiplier
	if m>>24 == 0 || m>>24 == 0xFF {
		if m>>16 == 0 || m>>16 == 0xFFFF {
			if m>>8 == 0 || m>>8 == 0xFFFFFF {
				return 1
			}
			return 2
		}
		return 3
	}
	return 4
}
