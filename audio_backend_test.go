//go:build headless

package main

import "testing"

// TestAttachAudioOutputDrainsAPU verifies AttachAudioOutput wires a
// machine's APU into the player's ring-buffer-draining Read callback,
// using the headless no-op backend so the test never touches a real
// audio device.
func TestAttachAudioOutputDrainsAPU(t *testing.T) {
	rom := makeTestROM(0x00, 2)
	m, err := NewGBMachine(rom, false)
	if err != nil {
		t.Fatalf("NewGBMachine: %v", err)
	}

	player, err := m.AttachAudioOutput(DefaultSampleRate)
	if err != nil {
		t.Fatalf("AttachAudioOutput: %v", err)
	}
	if m.Audio != player {
		t.Fatal("m.Audio should hold the attached player")
	}

	player.Start()
	if !player.IsStarted() {
		t.Fatal("Start should mark the player as started")
	}

	buf := make([]byte, 256)
	n, err := player.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read returned %d bytes, want %d", n, len(buf))
	}

	player.Stop()
	if player.IsStarted() {
		t.Fatal("Stop should clear the started flag")
	}
	player.Close()
}
