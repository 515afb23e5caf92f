// savestate.go - save-state serialization for both machine families
//
// A magic/version/gzip-compressed-payload framing built around the real
// component types this repo builds, rather than a register-name/value
// debug-snapshot abstraction. The scheduler's pending-event list and
// full APU channel state are serialized alongside CPU registers and RAM.
// Page tables are excluded and are not rebuilt on load - a restore
// overwrites the byte slices a GBASystemBus/GBSystemBus already owns and
// leaves its Bus/MapPages wiring untouched; only the 8-bit cartridge's
// RAM, which no page maps, is replaced by a freshly read slice.
//
// encoding/binary.Write rejects platform-sized int/uint fields, and most
// of the structs here are full of plain int - so every field is written
// through small fixed-width helpers rather than a single binary.Write
// over the struct value.

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	saveStateMagic   = "ECSS"
	saveStateVersion = 1

	systemKindGB  = 0
	systemKindGBA = 1
)

func wU8(w io.Writer, v uint8)   { w.Write([]byte{v}) }
func wBool(w io.Writer, v bool) {
	if v {
		wU8(w, 1)
	} else {
		wU8(w, 0)
	}
}
func wU16(w io.Writer, v uint16) { binary.Write(w, binary.LittleEndian, v) }
func wU32(w io.Writer, v uint32) { binary.Write(w, binary.LittleEndian, v) }
func wU64(w io.Writer, v uint64) { binary.Write(w, binary.LittleEndian, v) }
func wI32(w io.Writer, v int)    { binary.Write(w, binary.LittleEndian, int32(v)) }
func wI8(w io.Writer, v int8)    { binary.Write(w, binary.LittleEndian, v) }
func wBytes(w io.Writer, b []byte) { w.Write(b) }

func rU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
func rBool(r io.Reader) (bool, error) {
	v, err := rU8(r)
	return v != 0, err
}
func rU16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
func rU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
func rU64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
func rI32(r io.Reader) (int, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return int(v), err
}
func rI8(r io.Reader) (int8, error) {
	var v int8
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}
func rBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(r, b)
	return b, err
}

// --- shared APU internals ---

func writeLengthCounter(w io.Writer, l *lengthCounter) {
	wI32(w, l.counter)
	wI32(w, l.max)
	wBool(w, l.enabled)
}

func readLengthCounter(r io.Reader, l *lengthCounter) error {
	var err error
	if l.counter, err = rI32(r); err != nil {
		return err
	}
	if l.max, err = rI32(r); err != nil {
		return err
	}
	if l.enabled, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeEnvelope(w io.Writer, e *envelopeGenerator) {
	wI32(w, e.volume)
	wI32(w, e.startVolume)
	wBool(w, e.directionUp)
	wI32(w, e.period)
	wI32(w, e.divider)
	wBool(w, e.running)
}

func readEnvelope(r io.Reader, e *envelopeGenerator) error {
	var err error
	if e.volume, err = rI32(r); err != nil {
		return err
	}
	if e.startVolume, err = rI32(r); err != nil {
		return err
	}
	if e.directionUp, err = rBool(r); err != nil {
		return err
	}
	if e.period, err = rI32(r); err != nil {
		return err
	}
	if e.divider, err = rI32(r); err != nil {
		return err
	}
	if e.running, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeSweep(w io.Writer, s *sweepUnit) {
	wU16(w, s.shadowFreq)
	wU32(w, uint32(s.shift))
	wBool(w, s.negate)
	wI32(w, s.period)
	wI32(w, s.divider)
	wBool(w, s.internalEnable)
	wBool(w, s.calcSinceTrigger)
}

func readSweep(r io.Reader, s *sweepUnit) error {
	var err error
	if s.shadowFreq, err = rU16(r); err != nil {
		return err
	}
	shift, err := rU32(r)
	if err != nil {
		return err
	}
	s.shift = uint(shift)
	if s.negate, err = rBool(r); err != nil {
		return err
	}
	if s.period, err = rI32(r); err != nil {
		return err
	}
	if s.divider, err = rI32(r); err != nil {
		return err
	}
	if s.internalEnable, err = rBool(r); err != nil {
		return err
	}
	if s.calcSinceTrigger, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writePulse(w io.Writer, p *pulseChannel) {
	wI32(w, p.dutyIndex)
	wI32(w, p.seqPos)
	wU16(w, p.frequency)
	wI32(w, p.timer)
	writeLengthCounter(w, &p.length)
	writeEnvelope(w, &p.envelope)
	wBool(w, p.sweep != nil)
	if p.sweep != nil {
		writeSweep(w, p.sweep)
	}
	wBool(w, p.enabled)
}

func readPulse(r io.Reader, p *pulseChannel) error {
	var err error
	if p.dutyIndex, err = rI32(r); err != nil {
		return err
	}
	if p.seqPos, err = rI32(r); err != nil {
		return err
	}
	if p.frequency, err = rU16(r); err != nil {
		return err
	}
	if p.timer, err = rI32(r); err != nil {
		return err
	}
	if err = readLengthCounter(r, &p.length); err != nil {
		return err
	}
	if err = readEnvelope(r, &p.envelope); err != nil {
		return err
	}
	hasSweep, err := rBool(r)
	if err != nil {
		return err
	}
	if hasSweep {
		if p.sweep == nil {
			p.sweep = &sweepUnit{}
		}
		if err = readSweep(r, p.sweep); err != nil {
			return err
		}
	} else {
		p.sweep = nil
	}
	if p.enabled, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeWave(w io.Writer, c *waveChannel) {
	wBytes(w, c.buffer[:])
	wI32(w, c.volumeShift)
	wU16(w, c.frequency)
	wI32(w, c.position)
	wI32(w, c.timer)
	writeLengthCounter(w, &c.length)
	wBool(w, c.dacEnable)
	wBool(w, c.enabled)
}

func readWave(r io.Reader, c *waveChannel) error {
	buf, err := rBytes(r, len(c.buffer))
	if err != nil {
		return err
	}
	copy(c.buffer[:], buf)
	if c.volumeShift, err = rI32(r); err != nil {
		return err
	}
	if c.frequency, err = rU16(r); err != nil {
		return err
	}
	if c.position, err = rI32(r); err != nil {
		return err
	}
	if c.timer, err = rI32(r); err != nil {
		return err
	}
	if err = readLengthCounter(r, &c.length); err != nil {
		return err
	}
	if c.dacEnable, err = rBool(r); err != nil {
		return err
	}
	if c.enabled, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeNoise(w io.Writer, c *noiseChannel) {
	wU16(w, c.lfsr)
	wI32(w, c.divisorCode)
	wBool(w, c.widthMode7)
	wI32(w, c.clockShift)
	wI32(w, c.timer)
	writeLengthCounter(w, &c.length)
	writeEnvelope(w, &c.envelope)
	wBool(w, c.enabled)
}

func readNoise(r io.Reader, c *noiseChannel) error {
	var err error
	if c.lfsr, err = rU16(r); err != nil {
		return err
	}
	if c.divisorCode, err = rI32(r); err != nil {
		return err
	}
	if c.widthMode7, err = rBool(r); err != nil {
		return err
	}
	if c.clockShift, err = rI32(r); err != nil {
		return err
	}
	if c.timer, err = rI32(r); err != nil {
		return err
	}
	if err = readLengthCounter(r, &c.length); err != nil {
		return err
	}
	if err = readEnvelope(r, &c.envelope); err != nil {
		return err
	}
	if c.enabled, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeMixer(w io.Writer, m *mixer) {
	for _, v := range m.leftEnable {
		wBool(w, v)
	}
	for _, v := range m.rightEnable {
		wBool(w, v)
	}
	wI32(w, m.leftVolume)
	wI32(w, m.rightVolume)
}

func readMixer(r io.Reader, m *mixer) error {
	for i := range m.leftEnable {
		v, err := rBool(r)
		if err != nil {
			return err
		}
		m.leftEnable[i] = v
	}
	for i := range m.rightEnable {
		v, err := rBool(r)
		if err != nil {
			return err
		}
		m.rightEnable[i] = v
	}
	var err error
	if m.leftVolume, err = rI32(r); err != nil {
		return err
	}
	if m.rightVolume, err = rI32(r); err != nil {
		return err
	}
	return nil
}

// writeAPU/readAPU cover every channel plus the frame sequencer's phase
// and the sample-rate divider's accumulators. The ring buffer of not-yet-
// consumed output samples is deliberately excluded: it is a few
// milliseconds of pending audio, not emulated state a restored run needs
// to reproduce correctly.
func writeAPU(w io.Writer, a *APU) {
	a.mu.Lock()
	defer a.mu.Unlock()
	wBool(w, a.powered)
	writePulse(w, a.pulse1)
	writePulse(w, a.pulse2)
	writeWave(w, a.wave)
	writeNoise(w, a.noise)
	wI8(w, a.fseq.phase)
	writeMixer(w, &a.mixer)
	wI32(w, a.fseqCycleAccum)
	wI32(w, a.sampleAccum)
	wI32(w, a.sampleDivisor)
}

func readAPU(r io.Reader, a *APU) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.powered, err = rBool(r); err != nil {
		return err
	}
	if err = readPulse(r, a.pulse1); err != nil {
		return err
	}
	if err = readPulse(r, a.pulse2); err != nil {
		return err
	}
	if err = readWave(r, a.wave); err != nil {
		return err
	}
	if err = readNoise(r, a.noise); err != nil {
		return err
	}
	if a.fseq.phase, err = rI8(r); err != nil {
		return err
	}
	if err = readMixer(r, &a.mixer); err != nil {
		return err
	}
	if a.fseqCycleAccum, err = rI32(r); err != nil {
		return err
	}
	if a.sampleAccum, err = rI32(r); err != nil {
		return err
	}
	if a.sampleDivisor, err = rI32(r); err != nil {
		return err
	}
	return nil
}

func writeScheduler(w io.Writer, s *Scheduler) {
	snaps := s.snapshot()
	wU32(w, uint32(len(snaps)))
	for _, sn := range snaps {
		wU32(w, uint32(sn.Kind))
		wU64(w, sn.Deadline)
	}
}

func readScheduler(r io.Reader, s *Scheduler) error {
	n, err := rU32(r)
	if err != nil {
		return err
	}
	snaps := make([]schedulerSnapshot, n)
	for i := range snaps {
		kind, err := rU32(r)
		if err != nil {
			return err
		}
		deadline, err := rU64(r)
		if err != nil {
			return err
		}
		snaps[i] = schedulerSnapshot{Kind: EventKind(kind), Deadline: deadline}
	}
	s.restore(snaps)
	return nil
}

// --- ARM (32-bit handheld) CPU + bus ---

func writeARMCPU(w io.Writer, c *ARMCPU) {
	for _, v := range c.R {
		wU32(w, v)
	}
	wU32(w, c.CPSR)
	for _, v := range c.SPSR {
		wU32(w, v)
	}
	for _, v := range c.bankedR13 {
		wU32(w, v)
	}
	for _, v := range c.bankedR14 {
		wU32(w, v)
	}
	for _, v := range c.bankedFIQ {
		wU32(w, v)
	}
	wBool(w, c.sequential)
	wU64(w, c.Cycles)
	wBool(w, c.irqLine)
	wBool(w, c.fiqLine)
}

func readARMCPU(r io.Reader, c *ARMCPU) error {
	for i := range c.R {
		v, err := rU32(r)
		if err != nil {
			return err
		}
		c.R[i] = v
	}
	cpsr, err := rU32(r)
	if err != nil {
		return err
	}
	c.CPSR = cpsr
	for i := range c.SPSR {
		v, err := rU32(r)
		if err != nil {
			return err
		}
		c.SPSR[i] = v
	}
	for i := range c.bankedR13 {
		v, err := rU32(r)
		if err != nil {
			return err
		}
		c.bankedR13[i] = v
	}
	for i := range c.bankedR14 {
		v, err := rU32(r)
		if err != nil {
			return err
		}
		c.bankedR14[i] = v
	}
	for i := range c.bankedFIQ {
		v, err := rU32(r)
		if err != nil {
			return err
		}
		c.bankedFIQ[i] = v
	}
	if c.sequential, err = rBool(r); err != nil {
		return err
	}
	if c.Cycles, err = rU64(r); err != nil {
		return err
	}
	if c.irqLine, err = rBool(r); err != nil {
		return err
	}
	if c.fiqLine, err = rBool(r); err != nil {
		return err
	}
	return nil
}

func writeGBABus(w io.Writer, b *GBASystemBus) {
	wBytes(w, b.ewram)
	wBytes(w, b.iwram)
	wBytes(w, b.vram)
	wBytes(w, b.palette[:])
	wBytes(w, b.oam[:])
	wU16(w, b.ie)
	wU16(w, b.ifReg)
	wBool(w, b.ime)
	wU64(w, b.cycles)
	wBytes(w, b.cart.save)
}

func readGBABus(r io.Reader, b *GBASystemBus) error {
	if _, err := io.ReadFull(r, b.ewram); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.iwram); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.vram); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.palette[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.oam[:]); err != nil {
		return err
	}
	var err error
	if b.ie, err = rU16(r); err != nil {
		return err
	}
	if b.ifReg, err = rU16(r); err != nil {
		return err
	}
	if b.ime, err = rBool(r); err != nil {
		return err
	}
	if b.cycles, err = rU64(r); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.cart.save); err != nil {
		return err
	}
	return nil
}

// SaveGBAMachine captures m's CPU, bus RAM, cartridge save RAM, APU and
// scheduler state. Page tables are not part of the payload; restoring
// only ever overwrites m's already-allocated backing arrays.
func SaveGBAMachine(m *GBAMachine) ([]byte, error) {
	var payload bytes.Buffer
	writeARMCPU(&payload, m.CPU)
	writeGBABus(&payload, m.Bus)
	writeAPU(&payload, m.APU)
	writeScheduler(&payload, m.Sched)
	return encodeSaveState(systemKindGBA, payload.Bytes())
}

// LoadGBAMachine restores a snapshot produced by SaveGBAMachine into m.
func LoadGBAMachine(m *GBAMachine, data []byte) error {
	payload, err := decodeSaveState(systemKindGBA, data)
	if err != nil {
		return err
	}
	r := bytes.NewReader(payload)
	if err := readARMCPU(r, m.CPU); err != nil {
		return fmt.Errorf("reading CPU state: %w", err)
	}
	if err := readGBABus(r, m.Bus); err != nil {
		return fmt.Errorf("reading bus state: %w", err)
	}
	if err := readAPU(r, m.APU); err != nil {
		return fmt.Errorf("reading APU state: %w", err)
	}
	if err := readScheduler(r, m.Sched); err != nil {
		return fmt.Errorf("reading scheduler state: %w", err)
	}
	return nil
}

// --- LR35902 (8-bit family) CPU + bus ---

func writeGBCPU(w io.Writer, c *GBCPU) {
	wU8(w, c.A)
	wU8(w, c.F)
	wU8(w, c.B)
	wU8(w, c.C)
	wU8(w, c.D)
	wU8(w, c.E)
	wU8(w, c.H)
	wU8(w, c.L)
	wU16(w, c.SP)
	wU16(w, c.PC)
	wBool(w, c.ime)
	wI32(w, c.imeDelay)
	wBool(w, c.Halted)
	wBool(w, c.Stopped)
	wU64(w, c.Cycles)
	wBool(w, c.irqLine)
	wU8(w, c.irqMask)
	wU8(w, c.irqFlags)
}

func readGBCPU(r io.Reader, c *GBCPU) error {
	var err error
	if c.A, err = rU8(r); err != nil {
		return err
	}
	if c.F, err = rU8(r); err != nil {
		return err
	}
	if c.B, err = rU8(r); err != nil {
		return err
	}
	if c.C, err = rU8(r); err != nil {
		return err
	}
	if c.D, err = rU8(r); err != nil {
		return err
	}
	if c.E, err = rU8(r); err != nil {
		return err
	}
	if c.H, err = rU8(r); err != nil {
		return err
	}
	if c.L, err = rU8(r); err != nil {
		return err
	}
	if c.SP, err = rU16(r); err != nil {
		return err
	}
	if c.PC, err = rU16(r); err != nil {
		return err
	}
	if c.ime, err = rBool(r); err != nil {
		return err
	}
	if c.imeDelay, err = rI32(r); err != nil {
		return err
	}
	if c.Halted, err = rBool(r); err != nil {
		return err
	}
	if c.Stopped, err = rBool(r); err != nil {
		return err
	}
	if c.Cycles, err = rU64(r); err != nil {
		return err
	}
	if c.irqLine, err = rBool(r); err != nil {
		return err
	}
	if c.irqMask, err = rU8(r); err != nil {
		return err
	}
	if c.irqFlags, err = rU8(r); err != nil {
		return err
	}
	return nil
}

func writeGBBus(w io.Writer, b *GBSystemBus) {
	wBytes(w, b.vram[:])
	wBytes(w, b.wram[:])
	wBytes(w, b.oam[:])
	wBytes(w, b.hram[:])
	wU8(w, b.joyp)
	wU16(w, b.div)
	wU8(w, b.tima)
	wU8(w, b.tma)
	wU8(w, b.tac)
	wI32(w, b.divAccum)
	wI32(w, b.timaAccum)
	wU64(w, b.cycles)

	wBool(w, b.cart.ramEnable)
	wU16(w, b.cart.rom0Bank)
	wU16(w, b.cart.rom1Bank)
	wU8(w, b.cart.ramBank)
	wBool(w, b.cart.mbc1RAMMode)
	wU8(w, b.cart.mbc1Bank2)
	wU32(w, uint32(len(b.cart.ram)))
	wBytes(w, b.cart.ram)
}

func readGBBus(r io.Reader, b *GBSystemBus) error {
	if _, err := io.ReadFull(r, b.vram[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.wram[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.oam[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, b.hram[:]); err != nil {
		return err
	}
	var err error
	if b.joyp, err = rU8(r); err != nil {
		return err
	}
	if b.div, err = rU16(r); err != nil {
		return err
	}
	if b.tima, err = rU8(r); err != nil {
		return err
	}
	if b.tma, err = rU8(r); err != nil {
		return err
	}
	if b.tac, err = rU8(r); err != nil {
		return err
	}
	if b.divAccum, err = rI32(r); err != nil {
		return err
	}
	if b.timaAccum, err = rI32(r); err != nil {
		return err
	}
	if b.cycles, err = rU64(r); err != nil {
		return err
	}
	if b.cart.ramEnable, err = rBool(r); err != nil {
		return err
	}
	if b.cart.rom0Bank, err = rU16(r); err != nil {
		return err
	}
	if b.cart.rom1Bank, err = rU16(r); err != nil {
		return err
	}
	if b.cart.ramBank, err = rU8(r); err != nil {
		return err
	}
	if b.cart.mbc1RAMMode, err = rBool(r); err != nil {
		return err
	}
	if b.cart.mbc1Bank2, err = rU8(r); err != nil {
		return err
	}
	ramLen, err := rU32(r)
	if err != nil {
		return err
	}
	ram, err := rBytes(r, int(ramLen))
	if err != nil {
		return err
	}
	b.cart.ram = ram
	return nil
}

// SaveGBMachine captures m's CPU, bus RAM, cartridge RAM/banking state,
// APU and scheduler state.
func SaveGBMachine(m *GBMachine) ([]byte, error) {
	var payload bytes.Buffer
	writeGBCPU(&payload, m.CPU)
	writeGBBus(&payload, m.Bus)
	writeAPU(&payload, m.APU)
	writeScheduler(&payload, m.Sched)
	return encodeSaveState(systemKindGB, payload.Bytes())
}

// LoadGBMachine restores a snapshot produced by SaveGBMachine into m.
func LoadGBMachine(m *GBMachine, data []byte) error {
	payload, err := decodeSaveState(systemKindGB, data)
	if err != nil {
		return err
	}
	r := bytes.NewReader(payload)
	if err := readGBCPU(r, m.CPU); err != nil {
		return fmt.Errorf("reading CPU state: %w", err)
	}
	if err := readGBBus(r, m.Bus); err != nil {
		return fmt.Errorf("reading bus state: %w", err)
	}
	if err := readAPU(r, m.APU); err != nil {
		return fmt.Errorf("reading APU state: %w", err)
	}
	if err := readScheduler(r, m.Sched); err != nil {
		return fmt.Errorf("reading scheduler state: %w", err)
	}
	return nil
}

// --- framing shared by both families ---

// encodeSaveState writes the magic, version and system-kind byte
// uncompressed, then gzips the component payload - a magic/version/
// gzip-blob layout narrowed to one system-kind byte instead of a
// length-prefixed CPU-type string.
func encodeSaveState(kind byte, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(saveStateMagic)
	wU32(&buf, saveStateVersion)
	wU8(&buf, kind)
	wU32(&buf, uint32(len(payload)))

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing save state: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeSaveState(wantKind byte, data []byte) ([]byte, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(saveStateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != saveStateMagic {
		return nil, fmt.Errorf("invalid save state magic: %q", string(magic))
	}

	version, err := rU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != saveStateVersion {
		return nil, fmt.Errorf("unsupported save state version: %d", version)
	}

	kind, err := rU8(r)
	if err != nil {
		return nil, fmt.Errorf("reading system kind: %w", err)
	}
	if kind != wantKind {
		return nil, fmt.Errorf("save state is for a different system (kind %d, want %d)", kind, wantKind)
	}

	uncompressedLen, err := rU32(r)
	if err != nil {
		return nil, fmt.Errorf("reading payload length: %w", err)
	}

	remaining := data[len(data)-r.Len():]
	gz, err := gzip.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	payload := make([]byte, uncompressedLen)
	if _, err := io.ReadFull(gz, payload); err != nil {
		return nil, fmt.Errorf("decompressing save state: %w", err)
	}
	return payload, nil
}
