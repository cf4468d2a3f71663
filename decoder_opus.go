package ambimix

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/pkg/errors"
	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

// opusRate is the rate Opus always decodes at
const opusRate = 48000

func decodeOpus(data []byte) (beep.Streamer, beep.Format, error) {
	r, err := ogg.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, beep.Format{}, err
	}
	channels := int(r.Channels())
	if channels < 1 || channels > 2 {
		return nil, beep.Format{}, errors.Errorf("unsupported opus channel count %d", channels)
	}
	dec, err := gopus.NewDecoder(opusRate, channels)
	if err != nil {
		return nil, beep.Format{}, err
	}

	samples := make([][]float64, channels)
	skip := int(r.PreSkip())
	var granule uint64
	for {
		packet, pos, err := r.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, beep.Format{}, err
		}
		if len(packet) == 0 {
			continue
		}
		if pos > granule {
			granule = pos
		}
		pcm, err := dec.DecodeFloat32(packet)
		if err != nil {
			return nil, beep.Format{}, err
		}
		for i := 0; i+channels <= len(pcm); i += channels {
			if skip > 0 {
				skip--
				continue
			}
			for c := range samples {
				samples[c] = append(samples[c], float64(pcm[i+c]))
			}
		}
	}

	// the last granule position bounds the playable length; the rest is encoder padding
	if pre := uint64(r.PreSkip()); granule > pre {
		if total := int(granule - pre); total < len(samples[0]) {
			for c := range samples {
				samples[c] = samples[c][:total]
			}
		}
	}

	format := beep.Format{
		SampleRate:  opusRate,
		NumChannels: channels,
		Precision:   4,
	}
	return newPlanarStreamer(samples), format, nil
}

func init() {
	registerDecoder("opus", func(data []byte) bool {
		return oggFirstPacketHas(data, "OpusHead")
	}, decodeOpus)
}
