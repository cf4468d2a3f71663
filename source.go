package ambimix

import "github.com/cwbudde/algo-dsp/dsp/core"

// SourceNode is a schedulable reader over one DecodedAsset.
// It is driven by a single goroutine at a time and owns its play cursor.
type SourceNode struct {
	asset *DecodedAsset
	loop  bool

	armed   bool
	stopped bool
	startAt int64
	cursor  int
	ended   bool
	loops   int
}

// NewSourceNode returns a source over asset that loops when loop is set
func NewSourceNode(asset *DecodedAsset, loop bool) *SourceNode {
	return &SourceNode{
		asset: asset,
		loop:  loop,
	}
}

// Asset returns the decoded asset the source reads from
func (s *SourceNode) Asset() *DecodedAsset {
	return s.asset
}

// Looping reports whether the source retriggers at its end
func (s *SourceNode) Looping() bool {
	return s.loop
}

// Loops returns the number of times the source has wrapped back to offset 0
func (s *SourceNode) Loops() int {
	return s.loops
}

// Ended reports whether a play-once source has played to its end
func (s *SourceNode) Ended() bool {
	return s.ended
}

// Arm schedules the source to begin at timeline frame at
func (s *SourceNode) Arm(at int64) error {
	if s.asset == nil || s.asset.Frames() == 0 {
		return ErrEmptySource
	}
	s.armed = true
	s.stopped = false
	s.startAt = at
	s.cursor = 0
	s.ended = false
	s.loops = 0
	return nil
}

// Stop silences the source
func (s *SourceNode) Stop() {
	s.stopped = true
}

// Read fills dst (one slice per output channel, all the same length) with the
// frames of timeline positions [pos, pos+len). Frames before the start, after
// the end of a play-once source, or after Stop are silent.
func (s *SourceNode) Read(dst [][]float64, pos int64) {
	for _, ch := range dst {
		core.Zero(ch)
	}
	if !s.armed || s.stopped || s.ended || len(dst) == 0 {
		return
	}

	n := len(dst[0])
	off := 0
	if pos < s.startAt {
		lead := s.startAt - pos
		if lead >= int64(n) {
			return
		}
		off = int(lead)
	}

	frames := s.asset.Frames()
	for off < n {
		if s.cursor >= frames {
			if !s.loop {
				s.ended = true
				return
			}
			s.cursor = 0
			s.loops++
		}
		count := n - off
		if rem := frames - s.cursor; rem < count {
			count = rem
		}
		s.copyFrames(dst, off, count)
		off += count
		s.cursor += count
	}
	if !s.loop && s.cursor >= frames {
		s.ended = true
	}
}

// copyFrames maps the asset's channels onto the output channels
func (s *SourceNode) copyFrames(dst [][]float64, off, count int) {
	src := s.asset.Samples
	switch {
	case len(src) == len(dst):
		for c := range dst {
			copy(dst[c][off:off+count], src[c][s.cursor:s.cursor+count])
		}
	case len(src) == 1:
		for c := range dst {
			copy(dst[c][off:off+count], src[0][s.cursor:s.cursor+count])
		}
	default:
		// downmix to the first output channel, copy it to any others
		out := dst[0][off : off+count]
		for i := range out {
			var sum float64
			for _, ch := range src {
				sum += ch[s.cursor+i]
			}
			out[i] = sum / float64(len(src))
		}
		for c := 1; c < len(dst); c++ {
			copy(dst[c][off:off+count], out)
		}
	}
}
