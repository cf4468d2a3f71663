package ambimix

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/mewkiz/flac"
	"github.com/pkg/errors"
)

func decodeFlac(data []byte) (beep.Streamer, beep.Format, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, beep.Format{}, err
	}

	info := stream.Info
	channels := int(info.NChannels)
	if channels > 2 {
		channels = 2
	}
	if channels < 1 || info.BitsPerSample == 0 {
		return nil, beep.Format{}, errors.New("invalid flac stream info")
	}
	scale := 1 / float64(int64(1)<<(info.BitsPerSample-1))

	samples := make([][]float64, channels)
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, beep.Format{}, err
		}
		n := int(fr.BlockSize)
		for c := range samples {
			for _, s := range fr.Subframes[c].Samples[:n] {
				samples[c] = append(samples[c], float64(s)*scale)
			}
		}
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(info.SampleRate),
		NumChannels: channels,
		Precision:   int(info.BitsPerSample+7) / 8,
	}
	return newPlanarStreamer(samples), format, nil
}

func init() {
	registerDecoder("flac", func(data []byte) bool {
		return hasPrefixAt(data, 0, "fLaC")
	}, decodeFlac)
}
