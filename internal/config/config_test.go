package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/pion/logging"

	"github.com/gotracker/ambimix"
)

var envVars = []string{
	"AMBIMIX_SAMPLE_RATE", "AMBIMIX_CHANNELS", "AMBIMIX_BITS_PER_SAMPLE",
	"AMBIMIX_CODECS", "AMBIMIX_OPUS_BITRATE", "AMBIMIX_CHUNK_MS",
	"AMBIMIX_REALTIME", "AMBIMIX_PROGRESS_MS", "AMBIMIX_GRACE_SECONDS",
	"AMBIMIX_PREVIEW_DEVICE", "AMBIMIX_MAX_PREVIEW_SECONDS",
	"AMBIMIX_WARMTH_BASE_HZ", "AMBIMIX_WARMTH_STEP_HZ", "AMBIMIX_LOW_FREQ_FLOOR_HZ",
	"AMBIMIX_BIQUAD_LOWPASS", "AMBIMIX_LOWPASS_Q", "AMBIMIX_ASSET_DIR", "AMBIMIX_LOG_LEVEL",
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.Channels != 2 {
		t.Errorf("Channels = %d, want 2", cfg.Channels)
	}
	if cfg.BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", cfg.BitsPerSample)
	}
	wantCodecs := []string{ambimix.MIMETypeOggOpus, ambimix.MIMETypeFLAC, ambimix.MIMETypeWAV}
	if !reflect.DeepEqual(cfg.Codecs, wantCodecs) {
		t.Errorf("Codecs = %v, want %v", cfg.Codecs, wantCodecs)
	}
	if cfg.ChunkDuration != 100*time.Millisecond {
		t.Errorf("ChunkDuration = %v, want 100ms", cfg.ChunkDuration)
	}
	if !cfg.Realtime {
		t.Error("Realtime = false, want true")
	}
	if cfg.GraceWindow != 5*time.Second {
		t.Errorf("GraceWindow = %v, want 5s", cfg.GraceWindow)
	}
	if cfg.PreviewDevice != "pulseaudio" {
		t.Errorf("PreviewDevice = %q, want pulseaudio", cfg.PreviewDevice)
	}
	if cfg.MaxPreviewSeconds != 30 {
		t.Errorf("MaxPreviewSeconds = %v, want 30", cfg.MaxPreviewSeconds)
	}
	if cfg.WarmthBase != 500 || cfg.WarmthPerStep != 25 || cfg.LowFreqFloorHz != 2000 {
		t.Errorf("warmth mapping = %v + %v*w floor %v, want 500 + 25*w floor 2000",
			cfg.WarmthBase, cfg.WarmthPerStep, cfg.LowFreqFloorHz)
	}
	if cfg.BiquadLowpass {
		t.Error("BiquadLowpass = true, want false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AMBIMIX_SAMPLE_RATE", "44100")
	t.Setenv("AMBIMIX_CHANNELS", "1")
	t.Setenv("AMBIMIX_CODECS", "audio/flac, audio/wav")
	t.Setenv("AMBIMIX_CHUNK_MS", "50")
	t.Setenv("AMBIMIX_REALTIME", "false")
	t.Setenv("AMBIMIX_GRACE_SECONDS", "1.5")
	t.Setenv("AMBIMIX_PREVIEW_DEVICE", "null")
	t.Setenv("AMBIMIX_LOW_FREQ_FLOOR_HZ", "1500")
	t.Setenv("AMBIMIX_BIQUAD_LOWPASS", "true")
	t.Setenv("AMBIMIX_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Channels)
	}
	if want := []string{"audio/flac", "audio/wav"}; !reflect.DeepEqual(cfg.Codecs, want) {
		t.Errorf("Codecs = %v, want %v", cfg.Codecs, want)
	}
	if cfg.Realtime {
		t.Error("Realtime = true, want false")
	}
	if cfg.GraceWindow != 1500*time.Millisecond {
		t.Errorf("GraceWindow = %v, want 1.5s", cfg.GraceWindow)
	}

	s := cfg.Settings()
	if s.ChunkFrames != 2205 {
		t.Errorf("ChunkFrames = %d, want 2205", s.ChunkFrames)
	}
	if s.PreviewDevice != "null" {
		t.Errorf("PreviewDevice = %q, want null", s.PreviewDevice)
	}
	if s.Cutoff.Shape != ambimix.FilterBiquad {
		t.Errorf("Cutoff.Shape = %v, want biquad", s.Cutoff.Shape)
	}
	if got := s.Cutoff.Floor(ambimix.CategoryLowFrequencyHeavy); got != 1500 {
		t.Errorf("low-frequency floor = %v, want 1500", got)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("AMBIMIX_SAMPLE_RATE", "not-a-number")
	t.Setenv("AMBIMIX_REALTIME", "sometimes")
	t.Setenv("AMBIMIX_CODECS", " , ")
	cfg := Load()
	if cfg.SampleRate != 48000 {
		t.Errorf("invalid int env should fall back to default: got %d", cfg.SampleRate)
	}
	if !cfg.Realtime {
		t.Error("invalid bool env should fall back to default")
	}
	if len(cfg.Codecs) != 3 {
		t.Errorf("empty list env should fall back to default: got %v", cfg.Codecs)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.LogLevel
	}{
		{"error", logging.LogLevelError},
		{"WARN", logging.LogLevelWarn},
		{" debug ", logging.LogLevelDebug},
		{"off", logging.LogLevelDisabled},
		{"bogus", logging.LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
