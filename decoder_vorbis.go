package ambimix

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/vorbis"
)

func decodeVorbis(data []byte) (beep.Streamer, beep.Format, error) {
	s, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

func init() {
	registerDecoder("vorbis", func(data []byte) bool {
		return oggFirstPacketHas(data, "\x01vorbis")
	}, decodeVorbis)
}
