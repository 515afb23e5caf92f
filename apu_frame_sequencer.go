// apu_frame_sequencer.go - 512 Hz frame sequencer driving length/sweep/envelope

package main

// frameSequencer is an 8-phase counter advanced externally at 512 Hz.
// Phases {0,2,4,6} clock length counters, {2,6} additionally clock the
// sweep unit, and {7} clocks envelopes.
//
// reset's skewFirst flag models the power-on quirk where the host
// divider's frame-sequencer tap bit being set at the moment the
// sequencer is (re)started shifts the very first event one step
// earlier: skewFirst starts the phase at
// -1, so the first Step() call wraps straight to phase 0 and fires a
// length clock immediately. The unskewed case starts at 0, so the
// first Step() call only advances to phase 1 and fires nothing - the
// first real event doesn't land until the following Step().
type frameSequencer struct {
	phase int8
}

func (fs *frameSequencer) reset(skewFirst bool) {
	if skewFirst {
		fs.phase = -1
	} else {
		fs.phase = 0
	}
}

type frameSequencerEvents struct {
	length   bool
	sweep    bool
	envelope bool
}

// Step advances the phase by one and reports which units clock this tick.
func (fs *frameSequencer) Step() frameSequencerEvents {
	fs.phase = (fs.phase + 1) & 7
	switch fs.phase {
	case 0, 2, 4, 6:
		return frameSequencerEvents{length: true, sweep: fs.phase == 2 || fs.phase == 6}
	case 7:
		return frameSequencerEvents{envelope: true}
	default:
		return frameSequencerEvents{}
	}
}
