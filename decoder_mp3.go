package ambimix

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

func decodeMp3(data []byte) (beep.Streamer, beep.Format, error) {
	s, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

// sniffMp3 accepts an ID3v2 tag or a bare MPEG audio frame sync
func sniffMp3(data []byte) bool {
	if hasPrefixAt(data, 0, "ID3") {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func init() {
	registerDecoder("mp3", sniffMp3, decodeMp3)
}
