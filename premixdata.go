package ambimix

import (
	"github.com/gotracker/gomixing/mixing"
	"github.com/gotracker/gomixing/panning"
	"github.com/gotracker/gomixing/volume"
)

// PremixData is a block of mixed output produced by the audio clock
type PremixData struct {
	// Pos is the timeline frame of the first sample
	Pos int64
	// SamplesLen is the number of frames in the block
	SamplesLen int
	// Data holds one slice per output channel
	Data [][]float64
}

// ChannelData returns the block as a single centered mixer channel, ready to
// be flattened to PCM by a mixing.Mixer with the same channel count
func (p *PremixData) ChannelData() []mixing.ChannelData {
	buf := make(mixing.MixBuffer, p.SamplesLen)
	for i := range buf {
		m := volume.Matrix{Channels: len(p.Data)}
		for c, ch := range p.Data {
			m.StaticMatrix[c] = volume.Volume(ch[i])
		}
		buf[i] = m
	}
	return []mixing.ChannelData{{
		mixing.Data{
			Data:       buf,
			Pan:        panning.CenterAhead,
			Volume:     volume.Volume(1),
			SamplesLen: p.SamplesLen,
		},
	}}
}

// Interleaved returns the block as interleaved float32 samples
func (p *PremixData) Interleaved() []float32 {
	channels := len(p.Data)
	out := make([]float32, p.SamplesLen*channels)
	for c, ch := range p.Data {
		for i, v := range ch[:p.SamplesLen] {
			out[i*channels+c] = float32(v)
		}
	}
	return out
}
