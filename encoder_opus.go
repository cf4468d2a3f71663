package ambimix

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

// opusFrameSize is the number of samples per channel in one 20ms Opus frame at 48kHz
const opusFrameSize = 960

type encoderOpus struct {
	channels int

	enc     *gopus.Encoder
	w       *bytes.Buffer
	ogg     *ogg.Writer
	pending []float32
}

func newOpusEncoder(settings EncoderSettings) (Encoder, error) {
	enc, err := gopus.NewEncoder(settings.SamplesPerSecond, settings.Channels, gopus.ApplicationAudio)
	if err != nil {
		return nil, err
	}
	if settings.Bitrate > 0 {
		if err := enc.SetBitrate(settings.Bitrate); err != nil {
			return nil, errors.Wrapf(err, "opus bitrate %d", settings.Bitrate)
		}
	}

	e := encoderOpus{
		channels: settings.Channels,
		enc:      enc,
		w:        new(bytes.Buffer),
	}
	e.ogg, err = ogg.NewWriter(e.w, uint32(settings.SamplesPerSecond), uint8(settings.Channels))
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MIMEType returns audio/ogg;codecs=opus
func (e *encoderOpus) MIMEType() string {
	return MIMETypeOggOpus
}

// Write queues the chunk and encodes every complete frame.
// Samples left over are carried into the next chunk.
func (e *encoderOpus) Write(chunk *PremixData) error {
	e.pending = append(e.pending, chunk.Interleaved()...)
	frame := opusFrameSize * e.channels
	for len(e.pending) >= frame {
		if err := e.writeFrame(e.pending[:frame]); err != nil {
			return err
		}
		e.pending = e.pending[frame:]
	}
	return nil
}

func (e *encoderOpus) writeFrame(pcm []float32) error {
	packet, err := e.enc.EncodeFloat32(pcm)
	if err != nil {
		return err
	}
	return e.ogg.WritePacket(packet, opusFrameSize)
}

// Finalize pads and encodes the last partial frame, then closes the stream
func (e *encoderOpus) Finalize() ([]byte, error) {
	if len(e.pending) > 0 {
		frame := make([]float32, opusFrameSize*e.channels)
		copy(frame, e.pending)
		if err := e.writeFrame(frame); err != nil {
			return nil, err
		}
		e.pending = nil
	}
	if err := e.ogg.Close(); err != nil {
		return nil, err
	}
	out := e.w.Bytes()
	e.w = nil
	return out, nil
}

func init() {
	encoderMap[MIMETypeOggOpus] = encoderDetails{
		create: newOpusEncoder,
		supports: func(s EncoderSettings) bool {
			// frames are counted in 48kHz samples, so only the native rate is accepted
			return s.SamplesPerSecond == opusRate && (s.Channels == 1 || s.Channels == 2)
		},
	}
}
