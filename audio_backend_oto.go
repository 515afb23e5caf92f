//go:build !headless

// audio_backend_oto.go - oto v3 audio output backend

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives the host's audio device from an APU's ring buffer.
// A Read callback pulls interleaved samples on oto's own goroutine,
// guarded by an atomic pointer so the hot path never blocks on
// setup/control operations.
type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	apu       atomic.Pointer[APU]
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{
		ctx:     ctx,
		started: false,
	}, nil
}

func (op *OtoPlayer) SetupPlayer(apu *APU) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.apu.Store(apu)
	op.player = op.ctx.NewPlayer(op)
	op.sampleBuf = make([]float32, 4096)
}

// Read implements io.Reader for oto.Player, draining stereo frames from
// the APU's ring buffer and filling any shortfall with silence rather
// than blocking - the buffer is the backpressure mechanism, not this
// callback.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	apu := op.apu.Load()
	if apu == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	framesGot := apu.ReadSamples(samples)
	for i := framesGot * 2; i < numSamples; i++ {
		samples[i] = 0
	}

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Close()
		op.started = false
	}
}

func (op *OtoPlayer) Close() {
	op.Stop()
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Close()
		op.player = nil
	}
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
