package ambimix

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/gotracker/gomixing/volume"
)

// Stage is one transform applied in place to a planar sample block
type Stage interface {
	Process(block [][]float64)
	Reset()
}

// GainStage scales every sample by a linear gain
type GainStage struct {
	Gain volume.Volume
}

// Process applies the gain
func (g *GainStage) Process(block [][]float64) {
	if g.Gain == 1 {
		return
	}
	for _, ch := range block {
		vecmath.ScaleBlock(ch, ch, float64(g.Gain))
	}
}

// Reset does nothing; the gain stage is stateless
func (g *GainStage) Reset() {}

// LowpassStage is a low-pass filter with independent state per channel
type LowpassStage struct {
	CutoffHz   float64
	SampleRate int
	Shape      FilterShape

	sections []*biquad.Section
}

// NewLowpassStage returns a low-pass stage for the given number of channels
func NewLowpassStage(cutoffHz float64, sampleRate, channels int, shape FilterShape, q float64) *LowpassStage {
	// keep the cutoff below nyquist
	nyquist := float64(sampleRate) / 2
	if cutoffHz >= nyquist {
		cutoffHz = nyquist * 0.99
	}

	var c biquad.Coefficients
	switch shape {
	case FilterBiquad:
		c = design.Lowpass(cutoffHz, q, float64(sampleRate))
	default:
		c = onePoleCoefficients(cutoffHz, float64(sampleRate))
	}

	l := &LowpassStage{
		CutoffHz:   cutoffHz,
		SampleRate: sampleRate,
		Shape:      shape,
		sections:   make([]*biquad.Section, channels),
	}
	for i := range l.sections {
		l.sections[i] = biquad.NewSection(c)
	}
	return l
}

// onePoleCoefficients expresses y += alpha*(x-y) as a first-order section
func onePoleCoefficients(cutoffHz, sampleRate float64) biquad.Coefficients {
	alpha := 1 - math.Exp(-2*math.Pi*cutoffHz/sampleRate)
	return biquad.Coefficients{
		B0: alpha,
		A1: alpha - 1,
	}
}

// Process filters the block
func (l *LowpassStage) Process(block [][]float64) {
	for i, ch := range block {
		if i < len(l.sections) {
			l.sections[i].ProcessBlock(ch)
		}
	}
}

// Reset clears the filter memory
func (l *LowpassStage) Reset() {
	for _, s := range l.sections {
		s.Reset()
	}
}

// ProcessingChain is the ordered list of stages applied to one source
type ProcessingChain struct {
	Stages []Stage
}

// Process runs every stage in order
func (c *ProcessingChain) Process(block [][]float64) {
	for _, s := range c.Stages {
		s.Process(block)
	}
}

// Reset resets every stage
func (c *ProcessingChain) Reset() {
	for _, s := range c.Stages {
		s.Reset()
	}
}

// Lowpass returns the chain's low-pass stage, if any
func (c *ProcessingChain) Lowpass() (*LowpassStage, bool) {
	for _, s := range c.Stages {
		if l, ok := s.(*LowpassStage); ok {
			return l, true
		}
	}
	return nil, false
}

// Gain returns the chain's gain stage, if any
func (c *ProcessingChain) Gain() (*GainStage, bool) {
	for _, s := range c.Stages {
		if g, ok := s.(*GainStage); ok {
			return g, true
		}
	}
	return nil, false
}
