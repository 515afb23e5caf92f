// apu_pulse.go - square-wave channels with programmable duty and (channel 1 only) frequency sweep

package main

// dutyTables holds the four quantised duty-cycle patterns (12.5/25/50/75%)
// as an 8-step high/low sequence.
var dutyTables = [4][8]int{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

type pulseChannel struct {
	dutyIndex int
	seqPos    int
	frequency uint16 // 11-bit

	timer int // cycles remaining until the next sequencer step

	length   lengthCounter
	envelope envelopeGenerator
	sweep    *sweepUnit // nil for pulse channel 2, which has no sweep

	enabled bool
}

func newPulseChannel(withSweep bool) *pulseChannel {
	p := &pulseChannel{length: newLengthCounter(64)}
	if withSweep {
		p.sweep = &sweepUnit{}
	}
	return p
}

func (p *pulseChannel) period() int {
	return (2048 - int(p.frequency)) * 4
}

// trigger implements a write to NRx4 with bit 7 set, including the sweep
// unit's own trigger (p.sweep.trigger), which disables the channel at
// once when its initial calculation overflows.
func (p *pulseChannel) trigger() {
	p.enabled = true
	p.length.trigger()
	p.envelope.trigger()
	p.timer = p.period()
	if p.sweep != nil {
		if disable := p.sweep.trigger(p.frequency); disable {
			p.enabled = false
		}
	}
	if !p.envelope.dacEnabled() {
		p.enabled = false
	}
}

// stepCycles advances the duty sequencer by the given number of elapsed
// system cycles.
func (p *pulseChannel) stepCycles(cycles int) {
	p.timer -= cycles
	for p.timer <= 0 {
		per := p.period()
		if per == 0 {
			p.timer += 1
			continue
		}
		p.timer += per
		p.seqPos = (p.seqPos + 1) & 7
	}
}

func (p *pulseChannel) clockLength() {
	if p.length.clock() {
		p.enabled = false
	}
}

func (p *pulseChannel) clockSweep() {
	if p.sweep == nil {
		return
	}
	newFreq, disable, changed := p.sweep.clock()
	if changed {
		p.frequency = newFreq
	}
	if disable {
		p.enabled = false
	}
}

func (p *pulseChannel) clockEnvelope() {
	p.envelope.clock()
}

func (p *pulseChannel) output() int {
	if !p.enabled || !p.envelope.dacEnabled() {
		return 0
	}
	if dutyTables[p.dutyIndex][p.seqPos] == 0 {
		return 0
	}
	return p.envelope.volume
}

// sweepUnit implements the pulse-1-only frequency sweep, including the
// negate-after-calculation disable quirk.
type sweepUnit struct {
	shadowFreq      uint16
	shift           uint
	negate          bool
	period          int
	divider         int
	internalEnable  bool
	calcSinceTrigger bool
}

func (s *sweepUnit) reloadDivider() {
	if s.period == 0 {
		s.divider = 8
	} else {
		s.divider = s.period
	}
}

// trigger returns true if the channel must be disabled immediately
// because the initial calculation overflows.
func (s *sweepUnit) trigger(freq uint16) (disableChannel bool) {
	s.shadowFreq = freq
	s.reloadDivider()
	s.internalEnable = s.period != 0 || s.shift != 0
	s.calcSinceTrigger = false
	if s.shift != 0 {
		_, overflow := s.calculate()
		return overflow
	}
	return false
}

func (s *sweepUnit) calculate() (newFreq uint16, overflow bool) {
	delta := s.shadowFreq >> s.shift
	var computed int
	if s.negate {
		s.calcSinceTrigger = true
		computed = int(s.shadowFreq) - int(delta)
	} else {
		computed = int(s.shadowFreq) + int(delta)
	}
	if computed > 2047 || computed < 0 {
		return 0, true
	}
	return uint16(computed), false
}

// clock runs one sweep-clock tick (called from frame-sequencer phases 2
// and 6). Returns the new frequency (valid only when changed=true) and
// whether the channel must be disabled.
func (s *sweepUnit) clock() (newFreq uint16, disable bool, changed bool) {
	if s.divider > 0 {
		s.divider--
	}
	if s.divider != 0 {
		return 0, false, false
	}
	s.reloadDivider()
	if !s.internalEnable || s.period == 0 {
		return 0, false, false
	}
	computed, overflow := s.calculate()
	if overflow {
		return 0, true, false
	}
	if s.shift == 0 {
		return 0, false, false
	}
	s.shadowFreq = computed
	// Recompute once more purely for the overflow check - the real
	// hardware writes both frequency register and shadow then
	// recomputes, and a second overflow here disables the channel
	// without writing back a second time.
	if _, overflow2 := s.calculate(); overflow2 {
		return computed, true, true
	}
	return computed, false, true
}

// setNegate applies a write to the sweep register's negate bit, applying
// the documented quirk: clearing negate after at least one subtractive
// calculation since the last trigger disables the channel immediately.
func (s *sweepUnit) setNegate(negate bool) (disableChannel bool) {
	wasNegate := s.negate
	s.negate = negate
	if wasNegate && !negate && s.calcSinceTrigger {
		return true
	}
	return false
}
