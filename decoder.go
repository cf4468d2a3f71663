package ambimix

import (
	"bytes"

	"github.com/gopxl/beep/v2"
)

type decodeFunc func(data []byte) (beep.Streamer, beep.Format, error)

type decoderDetails struct {
	name   string
	sniff  func(data []byte) bool
	decode decodeFunc
}

var (
	// decoders is the list of registered input decoders, in registration order
	decoders []decoderDetails
)

func registerDecoder(name string, sniff func([]byte) bool, decode decodeFunc) {
	decoders = append(decoders, decoderDetails{
		name:   name,
		sniff:  sniff,
		decode: decode,
	})
}

func findDecoder(data []byte) (decoderDetails, bool) {
	for _, d := range decoders {
		if d.sniff(data) {
			return d, true
		}
	}
	return decoderDetails{}, false
}

// DecoderNames returns the names of the registered input decoders
func DecoderNames() []string {
	names := make([]string, 0, len(decoders))
	for _, d := range decoders {
		names = append(names, d.name)
	}
	return names
}

// hasPrefixAt reports whether data holds prefix at offset off
func hasPrefixAt(data []byte, off int, prefix string) bool {
	if len(data) < off+len(prefix) {
		return false
	}
	return bytes.Equal(data[off:off+len(prefix)], []byte(prefix))
}

// oggFirstPacketHas reports whether the first packet of an Ogg stream starts with magic.
// The first page of a single-stream file carries one lacing segment, so the packet starts at byte 28.
func oggFirstPacketHas(data []byte, magic string) bool {
	return hasPrefixAt(data, 0, "OggS") && hasPrefixAt(data, 28, magic)
}
