// machine.go - top-level library constructors wiring CPU + bus + APU +
// scheduler + cartridge into a runnable machine

/*
This core has no CLI/front-end surface, leaving main.go with only a
minimal library-style entry point. GBAMachine and GBMachine are that
entry point: each bundles exactly the components this core implements
(CPU interpreter, page-table bus, APU) behind a constructor and a
Step/RunFrame pair, the way a caller (a future frontend, or a test) is
meant to drive this core. The wiring sequence - construct bus,
construct chips, construct CPU, loop - is the same one a top-level
program would use, generalized into a reusable constructor instead of
inline program flow.
*/

package main

// GBAMachine is the 32-bit handheld: ARMv4T/ARMv5TE CPU plus its system
// bus, APU and scheduler.
type GBAMachine struct {
	CPU   *ARMCPU
	Bus   *GBASystemBus
	APU   *APU
	Sched *Scheduler
	Cart  *GBACart
	Audio *OtoPlayer
}

// NewGBAMachine constructs a 32-bit handheld machine around rom. isV5
// selects ARMv5TE's extra instructions (BLX, CLZ) over plain ARMv4T.
func NewGBAMachine(rom []byte, isV5 bool) (*GBAMachine, error) {
	cart, err := LoadGBACart(rom)
	if err != nil {
		return nil, err
	}

	sched := NewScheduler()
	apu := NewAPU(APUConfig{ColourSupport: false})
	bus := NewGBASystemBus(cart, sched, apu)
	cpu := NewARMCPU(bus, isV5)

	return &GBAMachine{CPU: cpu, Bus: bus, APU: apu, Sched: sched, Cart: cart}, nil
}

// Step executes exactly one CPU instruction, servicing the bus's pending
// IRQ line first (the bus has no direct handle on the CPU, so this is
// the one place the two are reconciled, following this core's
// single-threaded, no-cross-component-callback convention).
func (m *GBAMachine) Step() {
	m.CPU.SetIRQLine(m.Bus.PendingIRQ())
	m.CPU.Step()
}

// RunFrame steps the CPU until the bus has advanced by at least one
// 160x228-line frame's worth of cycles.
func (m *GBAMachine) RunFrame() {
	target := m.Bus.cycles + gbaCyclesPerLine*gbaLinesPerFrame
	for m.Bus.cycles < target {
		m.Step()
	}
}

// AttachAudioOutput wires a host audio sink to m's APU: the player's
// Read callback drains the APU's ring buffer on its own goroutine once
// Start is called. Returns the player so the caller controls Start/Stop
// lifetime; m.Audio also keeps a reference for Close on shutdown.
func (m *GBAMachine) AttachAudioOutput(sampleRate int) (*OtoPlayer, error) {
	player, err := NewOtoPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	player.SetupPlayer(m.APU)
	m.Audio = player
	return player, nil
}

// GBMachine is the 8-bit family: LR35902/SM83 peripheral-collaborator
// CPU plus its system bus and APU.
type GBMachine struct {
	CPU   *GBCPU
	Bus   *GBSystemBus
	APU   *APU
	Sched *Scheduler
	Cart  *Cartridge
	Audio *OtoPlayer
}

// NewGBMachine constructs an 8-bit family machine around rom. colour
// selects CGB-specific APU power-on behaviour.
func NewGBMachine(rom []byte, colour bool) (*GBMachine, error) {
	cart, err := LoadCartridge(rom)
	if err != nil {
		return nil, err
	}

	sched := NewScheduler()
	apu := NewAPU(APUConfig{ColourSupport: colour})
	bus := NewGBSystemBus(cart, sched, apu)
	cpu := NewGBCPU(bus)
	bus.AttachCPU(cpu)

	return &GBMachine{CPU: cpu, Bus: bus, APU: apu, Sched: sched, Cart: cart}, nil
}

func (m *GBMachine) Step() {
	m.CPU.Step()
}

func (m *GBMachine) RunFrame() {
	target := m.Bus.cycles + gbCyclesPerLine*gbLinesPerFrame
	for m.Bus.cycles < target {
		m.Step()
	}
}

// AttachAudioOutput wires a host audio sink to m's APU, mirroring
// GBAMachine's AttachAudioOutput.
func (m *GBMachine) AttachAudioOutput(sampleRate int) (*OtoPlayer, error) {
	player, err := NewOtoPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	player.SetupPlayer(m.APU)
	m.Audio = player
	return player, nil
}
