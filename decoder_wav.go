package ambimix

import (
	"bytes"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func decodeWav(data []byte) (beep.Streamer, beep.Format, error) {
	s, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

func init() {
	registerDecoder("wav", func(data []byte) bool {
		return hasPrefixAt(data, 0, "RIFF") && hasPrefixAt(data, 8, "WAVE")
	}, decodeWav)
}
