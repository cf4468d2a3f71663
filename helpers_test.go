package ambimix

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/gotracker/gomixing/volume"
	"github.com/pion/logging"
)

// testSettings renders offline at a low rate so tests run quickly
func testSettings() Settings {
	s := DefaultSettings()
	s.SampleRate = 8000
	s.ChunkFrames = 800
	s.Realtime = false
	s.ProgressInterval = 5 * time.Millisecond
	s.GraceWindow = 2 * time.Second
	s.CodecPreference = []string{MIMETypeWAV}
	s.PreviewDevice = nullName
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = logging.LogLevelDisabled
	s.LoggerFactory = factory
	return s
}

func constAsset(t testing.TB, frames int, value float64, sampleRate int) *DecodedAsset {
	t.Helper()
	samples := [][]float64{make([]float64, frames), make([]float64, frames)}
	for c := range samples {
		for i := range samples[c] {
			samples[c][i] = value
		}
	}
	a, err := NewDecodedAsset(samples, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// rampAsset holds i/frames on every channel, so every frame is distinguishable
func rampAsset(t testing.TB, frames, channels, sampleRate int) *DecodedAsset {
	t.Helper()
	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, frames)
		for i := range samples[c] {
			samples[c][i] = float64(i) / float64(frames)
		}
	}
	a, err := NewDecodedAsset(samples, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func sineAsset(t testing.TB, frames int, freq float64, sampleRate int) *DecodedAsset {
	t.Helper()
	samples := [][]float64{make([]float64, frames), make([]float64, frames)}
	for i := 0; i < frames; i++ {
		v := 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		samples[0][i] = v
		samples[1][i] = v
	}
	a, err := NewDecodedAsset(samples, sampleRate)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

// encodeAsset writes the asset with a registered encoder in one chunk
func encodeAsset(t testing.TB, mimeType string, a *DecodedAsset, bitsPerSample int) []byte {
	t.Helper()
	enc, err := CreateEncoder(mimeType, EncoderSettings{
		Channels:         a.Channels,
		SamplesPerSecond: a.SampleRate,
		BitsPerSample:    bitsPerSample,
		Bitrate:          DefaultOpusBitrate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Write(&PremixData{SamplesLen: a.Frames(), Data: a.Samples}); err != nil {
		t.Fatal(err)
	}
	data, err := enc.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// wavBytes writes the asset as a plain 16-bit PCM WAV file
func wavBytes(t testing.TB, a *DecodedAsset) []byte {
	t.Helper()
	channels := len(a.Samples)
	size := a.Frames() * channels * 2
	w := new(bytes.Buffer)
	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(36+size))
	w.WriteString("WAVEfmt ")
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1))
	binary.Write(w, binary.LittleEndian, uint16(channels))
	binary.Write(w, binary.LittleEndian, uint32(a.SampleRate))
	binary.Write(w, binary.LittleEndian, uint32(a.SampleRate*channels*2))
	binary.Write(w, binary.LittleEndian, uint16(channels*2))
	binary.Write(w, binary.LittleEndian, uint16(16))
	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, uint32(size))
	for i := 0; i < a.Frames(); i++ {
		for c := 0; c < channels; c++ {
			binary.Write(w, binary.LittleEndian, int16(math.Round(a.Samples[c][i]*math.MaxInt16)))
		}
	}
	return w.Bytes()
}

// checkScaled fails unless got equals want times a single gain. Encoded
// output passes through the mixer's center pan law, so levels are compared
// up to that gain.
func checkScaled(t testing.TB, got, want [][]float64, tolerance float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d channels, want %d", len(got), len(want))
	}
	var gw, ww float64
	for c := range want {
		if len(got[c]) != len(want[c]) {
			t.Fatalf("channel %d has %d frames, want %d", c, len(got[c]), len(want[c]))
		}
		for i, v := range want[c] {
			gw += got[c][i] * v
			ww += v * v
		}
	}
	if ww == 0 {
		t.Fatal("reference is silent")
	}
	gain := gw / ww
	if gain < 0.5 || gain > 1+tolerance {
		t.Fatalf("output gain = %v, want within [0.5, 1]", gain)
	}
	for c := range want {
		for i, v := range want[c] {
			if !almostEqual(got[c][i], gain*v, tolerance) {
				t.Fatalf("channel %d frame %d = %v, want %v (gain %v)", c, i, got[c][i], gain*v, gain)
			}
		}
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func layer(id string, asset *DecodedAsset, vol float64) LayerSpec {
	return LayerSpec{
		ID:      id,
		Asset:   AudioAssetRef{Buffer: asset},
		Enabled: true,
		Volume:  volume.Volume(vol),
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
