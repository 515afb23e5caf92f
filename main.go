// main.go - build metadata and the minimal library entry point

/*
This core has no CLI or front-end surface: no GUI, no terminal host, no
asset pipeline. What main() keeps is the version/feature banner
(features.go's printFeatures) and a worked example, in a doc comment
rather than executable flow, of the one thing a real caller needs -
constructing a GBAMachine or GBMachine (machine.go) and driving it with
Step/RunFrame:

	rom, _ := os.ReadFile("game.gba")
	m, err := NewGBAMachine(rom, true)
	if err != nil {
		log.Fatal(err)
	}
	for {
		m.RunFrame()
		samples := make([]float32, 1024)
		n := m.APU.ReadSamples(samples)
		_ = samples[:n*2]
	}

main itself only prints the build banner; it takes no ROM argument and
runs no machine.
*/

package main

// Version is the build-identifying string features.go's banner reports;
// savestate.go's snapshot header carries its own numeric saveStateVersion.
const Version = "0.1.0-dev"

func main() {
	printFeatures()
}
