package ambimix

import "math"

// FilterShape selects the low-pass topology of a layer chain
type FilterShape int

const (
	// FilterOnePole is a single-pole low-pass (6 dB/octave)
	FilterOnePole = FilterShape(iota)
	// FilterBiquad is an RBJ second-order low-pass with Q=1
	FilterBiquad
)

// Warmth bounds
const (
	MinWarmth = 0
	MaxWarmth = 100
)

// CutoffPolicy maps a layer's tone controls to a low-pass cutoff
type CutoffPolicy struct {
	// Base is the cutoff at warmth 0, in Hz
	Base float64
	// PerWarmth is the cutoff increase per warmth unit, in Hz
	PerWarmth float64
	// Floors holds the minimum cutoff for a content category, in Hz
	Floors map[ContentCategory]float64
	// Shape is the filter topology used by every low-pass stage
	Shape FilterShape
	// Q is the resonance of FilterBiquad stages
	Q float64
}

// DefaultCutoffPolicy maps warmth 0..100 to 500..3000 Hz and keeps low-frequency-heavy content above 2 kHz
func DefaultCutoffPolicy() CutoffPolicy {
	return CutoffPolicy{
		Base:      500,
		PerWarmth: 25,
		Floors: map[ContentCategory]float64{
			CategoryLowFrequencyHeavy: 2000,
		},
		Shape: FilterOnePole,
		Q:     1,
	}
}

// WarmthToCutoff returns the linear warmth mapping, before any category floor
func (p CutoffPolicy) WarmthToCutoff(warmth float64) float64 {
	warmth = math.Max(MinWarmth, math.Min(MaxWarmth, warmth))
	return p.Base + warmth*p.PerWarmth
}

// Floor returns the minimum cutoff for a category, or zero when it has none
func (p CutoffPolicy) Floor(category ContentCategory) float64 {
	return p.Floors[category]
}

// Cutoff returns the effective low-pass cutoff of a layer.
// ok is false when the layer has no tone control and the chain is gain-only.
func (p CutoffPolicy) Cutoff(layer LayerSpec) (hz float64, ok bool) {
	switch {
	case layer.LowpassHz != nil:
		hz = *layer.LowpassHz
	case layer.Warmth != nil:
		hz = p.WarmthToCutoff(*layer.Warmth)
	default:
		return 0, false
	}
	return math.Max(hz, p.Floor(layer.Category)), true
}
