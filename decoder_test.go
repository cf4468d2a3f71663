package ambimix

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

func TestDecoderSniffing(t *testing.T) {
	wav := wavBytes(t, constAsset(t, 10, 0, 8000))
	flac := encodeAsset(t, MIMETypeFLAC, constAsset(t, 10, 0, 8000), 16)

	ogg := func(magic string) []byte {
		b := make([]byte, 64)
		copy(b, "OggS")
		copy(b[28:], magic)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", wav, "wav"},
		{"flac", flac, "flac"},
		{"id3 mp3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), "mp3"},
		{"bare mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00}, "mp3"},
		{"ogg vorbis", ogg("\x01vorbis"), "vorbis"},
		{"ogg opus", ogg("OpusHead"), "opus"},
		{"ogg unknown", ogg("Speex   "), ""},
		{"garbage", []byte("hello world"), ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := findDecoder(tt.data)
			if tt.want == "" {
				if ok {
					t.Errorf("findDecoder() = %s, want none", d.name)
				}
				return
			}
			if !ok || d.name != tt.want {
				t.Errorf("findDecoder() = %q, %v; want %q", d.name, ok, tt.want)
			}
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := decodeAsset(context.Background(), []byte("not audio"), 8000)
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("error = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestDecodeMonoWav(t *testing.T) {
	mono, err := NewDecodedAsset([][]float64{{0, 0.5, -0.5, 0.25}}, 8000)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeAsset(context.Background(), wavBytes(t, mono), 8000)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 1 || got.Frames() != 4 {
		t.Fatalf("decoded %d frames x %d channels, want 4 x 1", got.Frames(), got.Channels)
	}
	if !almostEqual(got.Samples[0][2], -0.5, 1e-3) {
		t.Errorf("frame 2 = %v, want -0.5", got.Samples[0][2])
	}
}

func TestDecodedAssetRegion(t *testing.T) {
	a := rampAsset(t, 100, 1, 10)
	r := a.Region(2, 5)
	if r.Frames() != 30 || r.Samples[0][0] != 0.2 {
		t.Errorf("Region(2,5) = %d frames from %v, want 30 from 0.2", r.Frames(), r.Samples[0][0])
	}
	if got := a.Region(8, 50).Frames(); got != 20 {
		t.Errorf("Region clamped to %d frames, want 20", got)
	}
	if a.Frames() != 100 {
		t.Error("Region modified the source asset")
	}
}
