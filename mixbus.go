package ambimix

import (
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/core"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// MixBus sums the processed output of every node for one block at a time.
// Contributions may arrive concurrently; each is added under the bus lock.
type MixBus struct {
	mu       sync.Mutex
	channels int
	buf      [][]float64
	n        int
	pos      int64
	contribs int
}

// NewMixBus returns a bus with capacity for blocks of up to maxFrames frames
func NewMixBus(channels, maxFrames int) *MixBus {
	b := &MixBus{
		channels: channels,
		buf:      make([][]float64, channels),
	}
	for c := range b.buf {
		b.buf[c] = make([]float64, maxFrames)
	}
	return b
}

// Channels returns the number of output channels
func (b *MixBus) Channels() int {
	return b.channels
}

// Begin clears the bus for a block of n frames at timeline frame pos
func (b *MixBus) Begin(pos int64, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.buf {
		b.buf[c] = core.EnsureLen(b.buf[c], n)
		core.Zero(b.buf[c])
	}
	b.n = n
	b.pos = pos
	b.contribs = 0
}

// Accumulate adds a processed block to the bus
func (b *MixBus) Accumulate(block [][]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.buf {
		if c >= len(block) {
			break
		}
		src := block[c]
		if len(src) > b.n {
			src = src[:b.n]
		}
		vecmath.AddBlockInPlace(b.buf[c][:len(src)], src)
	}
	b.contribs++
}

// Contributions returns the number of blocks accumulated since Begin
func (b *MixBus) Contributions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contribs
}

// Drain copies the summed block out of the bus
func (b *MixBus) Drain() *PremixData {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := &PremixData{
		Pos:        b.pos,
		SamplesLen: b.n,
		Data:       make([][]float64, b.channels),
	}
	for c := range b.buf {
		out.Data[c] = make([]float64, b.n)
		copy(out.Data[c], b.buf[c][:b.n])
	}
	return out
}
