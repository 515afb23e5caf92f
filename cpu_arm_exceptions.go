// cpu_arm_exceptions.go - seven-exception vectoring model

package main

// Exception vector offsets and target modes, indexed by ExceptionKind. Offsets
// are from the architecture's vector base (0x0 here; the high-vector
// remap some hardware variants support is out of scope).
var exceptionVectors = [...]struct {
	offset   uint32
	mode     CPUMode
	disableF bool
}{
	ExceptionReset:             {0x00, ModeSupervisor, true},
	ExceptionUndefined:         {0x04, ModeUndefined, false},
	ExceptionSoftwareInterrupt: {0x08, ModeSupervisor, false},
	ExceptionPrefetchAbort:     {0x0C, ModeAbort, false},
	ExceptionDataAbort:         {0x10, ModeAbort, false},
	ExceptionIRQ:               {0x18, ModeIRQ, false},
	ExceptionFIQ:               {0x1C, ModeFIQ, true},
}

// returnOffset is added to R15, which already holds the address of the
// next instruction, to form the LR value the handler's return sequence
// expects, per kind and current instruction set width: the next
// instruction for SWI/Undefined (`MOVS PC, LR`), the faulting
// instruction+4 for prefetch abort and next+4 for IRQ/FIQ
// (`SUBS PC, LR, #4`), the faulting instruction+8 for data abort
// (`SUBS PC, LR, #8`).
func (c *ARMCPU) returnOffset(kind ExceptionKind) uint32 {
	thumb := c.Thumb()
	switch kind {
	case ExceptionSoftwareInterrupt, ExceptionUndefined:
		return 0
	case ExceptionPrefetchAbort:
		if thumb {
			return 2
		}
		return 0
	case ExceptionDataAbort:
		if thumb {
			return 6
		}
		return 4
	case ExceptionIRQ, ExceptionFIQ:
		if thumb {
			return 4
		}
		return 4
	default:
		return 0
	}
}

// raiseException implements the four-step exception entry sequence
// exactly: save CPSR to the target SPSR, set target-mode LR to the
// return address, clear T and set I (and F for FIQ/reset), branch to
// the fixed vector.
func (c *ARMCPU) raiseException(kind ExceptionKind) {
	v := exceptionVectors[kind]

	savedCPSR := c.CPSR
	returnPC := c.R[15] + c.returnOffset(kind)
	// R[15] already points at the next fetch (stepArm/stepThumb
	// pre-increment it), so returnOffset only adds each kind's distance
	// from there to the LR value its handler expects.

	c.switchMode(v.mode)
	c.SetCurrentSPSR(savedCPSR)
	c.R[14] = returnPC

	c.SetFlag(FlagT, false)
	c.SetFlag(FlagI, true)
	if v.disableF {
		c.SetFlag(FlagF, true)
	}

	c.R[15] = v.offset
	c.resetSequential()
	c.bus.Idle(2)
}

// exceptionReturn restores CPSR from the current mode's SPSR and resumes
// at the given address - used by data-processing/LDM handlers whose
// S-bit is set and whose destination is R15 in a privileged mode.
func (c *ARMCPU) exceptionReturn(addr uint32) {
	restored := c.CurrentSPSR()
	targetMode := CPUMode(restored & modeFieldMask)
	c.switchMode(targetMode)
	c.CPSR = restored
	c.R[15] = addr
	c.resetSequential()
}
