package main

import "testing"

type stubSlowPath struct {
	reads  map[uint32]uint32
	writes map[uint32]uint32
}

func newStubSlowPath() *stubSlowPath {
	return &stubSlowPath{reads: map[uint32]uint32{}, writes: map[uint32]uint32{}}
}

func (s *stubSlowPath) SlowRead(addr uint32, width int) uint32 { return s.reads[addr] }
func (s *stubSlowPath) SlowWrite(addr uint32, width int, value uint32) {
	s.writes[addr] = value
}

// TestBusFastPathReadWrite verifies a mapped page is served directly from
// its backing region without touching the slow path.
func TestBusFastPathReadWrite(t *testing.T) {
	slow := newStubSlowPath()
	b := NewBus(16, 8, 8, 1, slow) // 256-byte pages over a 64KB space

	ram := make([]byte, 256)
	idx := b.AddRegion("ram", ram)
	b.MapPages(0, 1, idx, 0, false)

	b.Write32(0x10, 0xCAFEBABE)
	if got := b.Read32(0x10); got != 0xCAFEBABE {
		t.Fatalf("Read32(0x10) = 0x%08X, want 0xCAFEBABE", got)
	}
	if len(slow.writes) != 0 {
		t.Fatal("a mapped page's write should never reach the slow path")
	}
}

// TestBusUnmappedFallsToSlowPath verifies an address with no page mapping
// dispatches through SlowRead/SlowWrite.
func TestBusUnmappedFallsToSlowPath(t *testing.T) {
	slow := newStubSlowPath()
	b := NewBus(16, 8, 8, 1, slow)

	b.Write8(0x2000, 0x42)
	if slow.writes[0x2000] != 0x42 {
		t.Fatalf("unmapped write did not reach SlowWrite: %v", slow.writes)
	}

	slow.reads[0x2000] = 0x99
	if got := b.Read8(0x2000); got != 0x99 {
		t.Fatalf("Read8(0x2000) = 0x%02X, want 0x99", got)
	}
}

// TestBusReadOnlyRegionFallsToSlowPathOnWrite verifies a read-only
// mapping (e.g. ROM) serves reads from the fast path but routes writes
// to the slow path instead of corrupting the backing buffer.
func TestBusReadOnlyRegionFallsToSlowPathOnWrite(t *testing.T) {
	slow := newStubSlowPath()
	b := NewBus(16, 8, 8, 1, slow)

	rom := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	idx := b.AddRegion("rom", rom)
	b.MapPages(0, 1, idx, 0, true)

	if got := b.Read8(0x00); got != 0xAA {
		t.Fatalf("Read8(0x00) = 0x%02X, want 0xAA", got)
	}
	b.Write8(0x00, 0xFF)
	if rom[0] != 0xAA {
		t.Fatal("write to a read-only region must not mutate the backing buffer")
	}
	if slow.writes[0x00] != 0xFF {
		t.Fatal("write to a read-only region should fall through to SlowWrite")
	}
}

// TestBusRemapPagesForBankSwitch exercises the page-table re-mapping
// pattern a cartridge bank switch relies on: MapPages onto a different
// region changes what a fixed address range resolves to without
// any per-access branching in the caller.
func TestBusRemapPagesForBankSwitch(t *testing.T) {
	slow := newStubSlowPath()
	b := NewBus(16, 8, 8, 1, slow)

	bank0 := make([]byte, 256)
	bank1 := make([]byte, 256)
	bank0[0] = 0x11
	bank1[0] = 0x22

	idx0 := b.AddRegion("bank0", bank0)
	idx1 := b.AddRegion("bank1", bank1)

	b.MapPages(0, 1, idx0, 0, false)
	if got := b.Read8(0x00); got != 0x11 {
		t.Fatalf("bank 0 mapped: Read8(0x00) = 0x%02X, want 0x11", got)
	}

	b.MapPages(0, 1, idx1, 0, false)
	if got := b.Read8(0x00); got != 0x22 {
		t.Fatalf("after bank switch: Read8(0x00) = 0x%02X, want 0x22", got)
	}
}

// TestBusUnmapPagesRevertsToSlowPath verifies UnmapPages hands a
// previously fast-mapped range back to the slow path on both tables.
func TestBusUnmapPagesRevertsToSlowPath(t *testing.T) {
	slow := newStubSlowPath()
	b := NewBus(16, 8, 8, 1, slow)

	ram := make([]byte, 256)
	idx := b.AddRegion("ram", ram)
	b.MapPages(0, 1, idx, 0, false)
	b.UnmapPages(0, 1)

	slow.reads[0x00] = 0x77
	if got := b.Read8(0x00); got != 0x77 {
		t.Fatalf("Read8(0x00) after UnmapPages = 0x%02X, want slow-path value 0x77", got)
	}
}
