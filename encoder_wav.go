package ambimix

import (
	"bytes"
	"encoding/binary"

	"github.com/gotracker/gomixing/mixing"
	"github.com/pkg/errors"
)

type encoderWav struct {
	mix      mixing.Mixer
	panmixer mixing.PanMixer

	w  *bytes.Buffer
	sz uint32
}

const (
	wavFileChunkSizePos     = 4
	wavFileSubchunk2SizePos = 40
)

func newWavEncoder(settings EncoderSettings) (Encoder, error) {
	e := encoderWav{
		mix: mixing.Mixer{
			Channels:      settings.Channels,
			BitsPerSample: settings.BitsPerSample,
		},
		panmixer: mixing.GetPanMixer(settings.Channels),
		w:        new(bytes.Buffer),
	}
	if e.panmixer == nil {
		return nil, errors.New("invalid pan mixer - check channel count")
	}

	byteRate := settings.SamplesPerSecond * settings.Channels * settings.BitsPerSample / 8
	blockAlign := settings.Channels * settings.BitsPerSample / 8

	w := e.w
	// RIFF header
	w.Write([]byte{'R', 'I', 'F', 'F'})             // ChunkID
	binary.Write(w, binary.LittleEndian, uint32(0)) // ChunkSize
	w.Write([]byte{'W', 'A', 'V', 'E'})             // Format

	// fmt header
	w.Write([]byte{'f', 'm', 't', ' '})              // Subchunk1ID
	binary.Write(w, binary.LittleEndian, uint32(16)) // Subchunk1Size

	binary.Write(w, binary.LittleEndian, uint16(0x001))                     // AudioFormat = PCM
	binary.Write(w, binary.LittleEndian, uint16(settings.Channels))         // NumChannels
	binary.Write(w, binary.LittleEndian, uint32(settings.SamplesPerSecond)) // SampleRate
	binary.Write(w, binary.LittleEndian, uint32(byteRate))                  // ByteRate
	binary.Write(w, binary.LittleEndian, uint16(blockAlign))                // BlockAlign
	binary.Write(w, binary.LittleEndian, uint16(settings.BitsPerSample))    // BitsPerSample

	// data header
	w.Write([]byte{'d', 'a', 't', 'a'})             // Subchunk2ID
	binary.Write(w, binary.LittleEndian, uint32(0)) // Subchunk2Size

	return &e, nil
}

// MIMEType returns audio/wav
func (e *encoderWav) MIMEType() string {
	return MIMETypeWAV
}

// Write appends the chunk as little-endian signed PCM
func (e *encoderWav) Write(chunk *PremixData) error {
	mixedData := e.mix.Flatten(e.panmixer, chunk.SamplesLen, chunk.ChannelData())
	n, err := e.w.Write(mixedData)
	e.sz += uint32(n)
	return err
}

// Finalize patches the RIFF sizes and returns the file
func (e *encoderWav) Finalize() ([]byte, error) {
	out := e.w.Bytes()
	binary.LittleEndian.PutUint32(out[wavFileChunkSizePos:], 36+e.sz)  // ChunkSize
	binary.LittleEndian.PutUint32(out[wavFileSubchunk2SizePos:], e.sz) // Subchunk2Size
	e.w = nil
	return out, nil
}

func init() {
	encoderMap[MIMETypeWAV] = encoderDetails{
		create: newWavEncoder,
		supports: func(s EncoderSettings) bool {
			return mixing.GetPanMixer(s.Channels) != nil && pcmDepthSupported(s.BitsPerSample)
		},
	}
}

// pcmDepthSupported reports whether a signed PCM depth can be written
func pcmDepthSupported(bitsPerSample int) bool {
	switch bitsPerSample {
	case 16, 24, 32:
		return true
	default:
		return false
	}
}
