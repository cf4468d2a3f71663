package ambimix

import (
	"context"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
)

const (
	resampleQuality = 4
	drainFrames     = 4096
)

// DecodedAsset is an immutable decoded sample buffer.
// Samples holds one slice per channel, all of the same length.
type DecodedAsset struct {
	Samples    [][]float64
	SampleRate int
	Channels   int
}

// NewDecodedAsset wraps planar samples. Every channel must have the same length.
func NewDecodedAsset(samples [][]float64, sampleRate int) (*DecodedAsset, error) {
	a := &DecodedAsset{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   len(samples),
	}
	if err := a.check(); err != nil {
		return nil, err
	}
	return a, nil
}

// check enforces the invariants of NewDecodedAsset on an asset built by hand
func (a *DecodedAsset) check() error {
	if len(a.Samples) < 1 || len(a.Samples) > 2 {
		return errors.Errorf("unsupported channel count %d", len(a.Samples))
	}
	if a.Channels != len(a.Samples) {
		return errors.Errorf("channel count %d does not match %d sample slices", a.Channels, len(a.Samples))
	}
	if a.SampleRate <= 0 {
		return errors.Errorf("invalid sample rate %d", a.SampleRate)
	}
	for _, ch := range a.Samples[1:] {
		if len(ch) != len(a.Samples[0]) {
			return errors.New("channel lengths differ")
		}
	}
	return nil
}

// Frames returns the number of sample frames
func (a *DecodedAsset) Frames() int {
	if len(a.Samples) == 0 {
		return 0
	}
	return len(a.Samples[0])
}

// DurationSeconds returns the playback length
func (a *DecodedAsset) DurationSeconds() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(a.Frames()) / float64(a.SampleRate)
}

// Region returns a view of the asset restricted to [start, end) seconds, clamped to the asset
func (a *DecodedAsset) Region(start, end float64) *DecodedAsset {
	n := a.Frames()
	from := clampFrame(int(start*float64(a.SampleRate)), n)
	to := clampFrame(int(end*float64(a.SampleRate)), n)
	if to < from {
		to = from
	}
	view := &DecodedAsset{
		Samples:    make([][]float64, len(a.Samples)),
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
	}
	for c, ch := range a.Samples {
		view.Samples[c] = ch[from:to:to]
	}
	return view
}

func clampFrame(f, n int) int {
	if f < 0 {
		return 0
	}
	if f > n {
		return n
	}
	return f
}

// decodeAsset decodes encoded bytes and resamples them to sampleRate
func decodeAsset(ctx context.Context, data []byte, sampleRate int) (*DecodedAsset, error) {
	dec, ok := findDecoder(data)
	if !ok {
		return nil, ErrUnsupportedEncoding
	}
	s, format, err := dec.decode(data)
	if err != nil {
		return nil, errors.Wrap(err, dec.name)
	}
	if c, ok := s.(interface{ Close() error }); ok {
		defer c.Close()
	}
	return drain(ctx, s, format, sampleRate)
}

// resampleAsset converts a pre-decoded asset to sampleRate. Assets already at the rate are returned as is.
func resampleAsset(ctx context.Context, a *DecodedAsset, sampleRate int) (*DecodedAsset, error) {
	if a.SampleRate == sampleRate {
		return a, nil
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(a.SampleRate),
		NumChannels: a.Channels,
		Precision:   4,
	}
	return drain(ctx, newPlanarStreamer(a.Samples), format, sampleRate)
}

// drain reads a streamer to the end into a planar asset at sampleRate
func drain(ctx context.Context, s beep.Streamer, format beep.Format, sampleRate int) (*DecodedAsset, error) {
	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}
	if format.SampleRate != beep.SampleRate(sampleRate) {
		s = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(sampleRate), s)
	}

	samples := make([][]float64, channels)
	buf := make([][2]float64, drainFrames)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			for c := range samples {
				samples[c] = append(samples[c], frame[c])
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return NewDecodedAsset(samples, sampleRate)
}

// planarStreamer streams planar samples as beep frames; mono is duplicated to both sides
type planarStreamer struct {
	samples [][]float64
	pos     int
}

func newPlanarStreamer(samples [][]float64) *planarStreamer {
	return &planarStreamer{samples: samples}
}

func (p *planarStreamer) Stream(frames [][2]float64) (n int, ok bool) {
	if len(p.samples) == 0 {
		return 0, false
	}
	left := p.samples[0]
	right := left
	if len(p.samples) > 1 {
		right = p.samples[1]
	}
	if p.pos >= len(left) {
		return 0, false
	}
	for n < len(frames) && p.pos < len(left) {
		frames[n] = [2]float64{left[p.pos], right[p.pos]}
		n++
		p.pos++
	}
	return n, true
}

func (p *planarStreamer) Err() error {
	return nil
}
