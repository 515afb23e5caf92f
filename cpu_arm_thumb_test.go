package main

import "testing"

// TestThumbLSRImmediateZeroMeansShiftBy32 exercises the Thumb "move
// shifted register" quirk: an encoded immediate shift amount of 0 on
// LSR means shift-by-32, not a no-op, because the 5-bit immediate field
// cannot itself represent 32. cpu_arm_thumb.go's thumbMoveShifted relies
// on barrelShift's fromImmediate special case for this.
func TestThumbLSRImmediateZeroMeansShiftBy32(t *testing.T) {
	c := newTestARMCPU()
	c.R[1] = 0x80000001 // top bit set, so LSR #32 carries out the top bit

	// LSR Rd=R0, Rs=R1, immediate amount field = 0: 0b000_01_00000_001_000
	word := uint16(1<<11) | uint16(0<<6) | uint16(1<<3) | uint16(0)
	thumbMoveShifted(c, word)

	if c.R[0] != 0 {
		t.Fatalf("R0 = 0x%08X, want 0 (LSR #32 of any value shifts every bit out)", c.R[0])
	}
	if !c.Flag(FlagC) {
		t.Fatal("carry flag should carry out bit 31 of the source for LSR #32")
	}
	if !c.Flag(FlagZ) {
		t.Fatal("zero flag should be set, result is 0")
	}
}

// TestThumbLSLImmediateZeroIsNoop confirms LSL's immediate-zero case is
// the ordinary no-shift identity, unlike LSR/ASR's shift-by-32 reading -
// guards against a copy-paste of the LSR special case into LSL.
func TestThumbLSLImmediateZeroIsNoop(t *testing.T) {
	c := newTestARMCPU()
	c.R[1] = 0x12345678
	c.SetFlag(FlagC, true)

	// LSL Rd=R0, Rs=R1, immediate amount field = 0.
	word := uint16(0<<11) | uint16(0<<6) | uint16(1<<3) | uint16(0)
	thumbMoveShifted(c, word)

	if c.R[0] != 0x12345678 {
		t.Fatalf("R0 = 0x%08X, want unchanged 0x12345678", c.R[0])
	}
	if !c.Flag(FlagC) {
		t.Fatal("LSL #0 must preserve the existing carry flag, not recompute it")
	}
}
