package ambimix

import (
	"bytes"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/pkg/errors"

	"github.com/gotracker/gomixing/mixing"
)

// flacMaxBlockSize is the largest block a FLAC frame header can describe
const flacMaxBlockSize = 65535

type encoderFlac struct {
	mix              mixing.Mixer
	panmixer         mixing.PanMixer
	samplesPerSecond int
	channels         frame.Channels

	w   *bytes.Buffer
	enc *flac.Encoder
}

func newFlacEncoder(settings EncoderSettings) (Encoder, error) {
	e := encoderFlac{
		mix: mixing.Mixer{
			Channels:      settings.Channels,
			BitsPerSample: settings.BitsPerSample,
		},
		panmixer:         mixing.GetPanMixer(settings.Channels),
		samplesPerSecond: settings.SamplesPerSecond,
		w:                new(bytes.Buffer),
	}
	if e.panmixer == nil {
		return nil, errors.New("invalid pan mixer - check channel count")
	}

	switch e.mix.Channels {
	case 1:
		e.channels = frame.ChannelsMono
	case 2:
		e.channels = frame.ChannelsLR
	default:
		return nil, errors.Errorf("unsupported flac channel count %d", e.mix.Channels)
	}

	si := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacMaxBlockSize,
		SampleRate:    uint32(e.samplesPerSecond),
		NChannels:     uint8(e.mix.Channels),
		BitsPerSample: uint8(e.mix.BitsPerSample),
	}
	enc, err := flac.NewEncoder(e.w, si)
	if err != nil {
		return nil, err
	}
	e.enc = enc

	return &e, nil
}

// MIMEType returns audio/flac
func (e *encoderFlac) MIMEType() string {
	return MIMETypeFLAC
}

// Write encodes the chunk as one verbatim frame per block
func (e *encoderFlac) Write(chunk *PremixData) error {
	mixedData := e.mix.FlattenToInts(e.panmixer, chunk.SamplesLen, chunk.ChannelData())
	for off := 0; off < chunk.SamplesLen; off += flacMaxBlockSize {
		n := chunk.SamplesLen - off
		if n > flacMaxBlockSize {
			n = flacMaxBlockSize
		}
		if err := e.writeFrame(mixedData, off, n); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoderFlac) writeFrame(mixedData [][]int32, off, n int) error {
	subframes := make([]*frame.Subframe, e.mix.Channels)
	for i := range subframes {
		subframe := &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			Samples:  mixedData[i][off : off+n],
			NSamples: n,
		}
		subframes[i] = subframe
	}
	for _, subframe := range subframes {
		sample := subframe.Samples[0]
		constant := true
		for _, s := range subframe.Samples[1:] {
			if sample != s {
				constant = false
				break
			}
		}
		if constant {
			subframe.SubHeader.Pred = frame.PredConstant
		}
	}

	fr := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: false,
			BlockSize:         uint16(n),
			SampleRate:        uint32(e.samplesPerSecond),
			Channels:          e.channels,
			BitsPerSample:     uint8(e.mix.BitsPerSample),
		},
		Subframes: subframes,
	}
	return e.enc.WriteFrame(fr)
}

// Finalize closes the stream and returns the file
func (e *encoderFlac) Finalize() ([]byte, error) {
	if err := e.enc.Close(); err != nil {
		return nil, err
	}
	out := e.w.Bytes()
	e.w = nil
	return out, nil
}

func init() {
	encoderMap[MIMETypeFLAC] = encoderDetails{
		create: newFlacEncoder,
		supports: func(s EncoderSettings) bool {
			return mixing.GetPanMixer(s.Channels) != nil &&
				(s.Channels == 1 || s.Channels == 2) &&
				(s.BitsPerSample == 16 || s.BitsPerSample == 24)
		},
	}
}
