package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/logging"

	"github.com/gotracker/ambimix"
)

// Config holds the engine configuration, loaded from environment variables.
type Config struct {
	// Output format
	SampleRate    int
	Channels      int
	BitsPerSample int
	Codecs        []string // ordered MIME type preference
	OpusBitrate   int

	// Session pacing
	ChunkDuration    time.Duration
	Realtime         bool
	ProgressInterval time.Duration
	GraceWindow      time.Duration

	// Preview
	PreviewDevice     string
	MaxPreviewSeconds float64

	// Tone shaping
	WarmthBase     float64 // Hz at warmth 0
	WarmthPerStep  float64 // Hz added per warmth step
	LowFreqFloorHz float64 // cutoff floor of low-frequency-heavy layers
	BiquadLowpass  bool    // RBJ biquad instead of one-pole
	LowpassQ       float64

	// Assets and logging
	AssetDir string
	LogLevel string // disabled, error, warn, info, debug, trace
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	def := ambimix.DefaultSettings()
	return Config{
		SampleRate:    envInt("AMBIMIX_SAMPLE_RATE", def.SampleRate),
		Channels:      envInt("AMBIMIX_CHANNELS", def.Channels),
		BitsPerSample: envInt("AMBIMIX_BITS_PER_SAMPLE", def.BitsPerSample),
		Codecs:        envList("AMBIMIX_CODECS", def.CodecPreference),
		OpusBitrate:   envInt("AMBIMIX_OPUS_BITRATE", def.OpusBitrate),

		ChunkDuration:    time.Duration(envInt("AMBIMIX_CHUNK_MS", int(ambimix.DefaultChunkDuration/time.Millisecond))) * time.Millisecond,
		Realtime:         envBool("AMBIMIX_REALTIME", def.Realtime),
		ProgressInterval: time.Duration(envInt("AMBIMIX_PROGRESS_MS", int(def.ProgressInterval/time.Millisecond))) * time.Millisecond,
		GraceWindow:      time.Duration(envFloat("AMBIMIX_GRACE_SECONDS", def.GraceWindow.Seconds()) * float64(time.Second)),

		PreviewDevice:     envStr("AMBIMIX_PREVIEW_DEVICE", def.PreviewDevice),
		MaxPreviewSeconds: envFloat("AMBIMIX_MAX_PREVIEW_SECONDS", def.MaxPreviewSeconds),

		WarmthBase:     envFloat("AMBIMIX_WARMTH_BASE_HZ", def.Cutoff.Base),
		WarmthPerStep:  envFloat("AMBIMIX_WARMTH_STEP_HZ", def.Cutoff.PerWarmth),
		LowFreqFloorHz: envFloat("AMBIMIX_LOW_FREQ_FLOOR_HZ", def.Cutoff.Floor(ambimix.CategoryLowFrequencyHeavy)),
		BiquadLowpass:  envBool("AMBIMIX_BIQUAD_LOWPASS", def.Cutoff.Shape == ambimix.FilterBiquad),
		LowpassQ:       envFloat("AMBIMIX_LOWPASS_Q", def.Cutoff.Q),

		AssetDir: envStr("AMBIMIX_ASSET_DIR", "."),
		LogLevel: envStr("AMBIMIX_LOG_LEVEL", "info"),
	}
}

// Settings converts the configuration into engine settings
func (c Config) Settings() ambimix.Settings {
	s := ambimix.DefaultSettings()
	s.SampleRate = c.SampleRate
	s.Channels = c.Channels
	s.BitsPerSample = c.BitsPerSample
	s.CodecPreference = c.Codecs
	s.OpusBitrate = c.OpusBitrate
	s.ChunkFrames = int(c.ChunkDuration * time.Duration(c.SampleRate) / time.Second)
	s.Realtime = c.Realtime
	s.ProgressInterval = c.ProgressInterval
	s.GraceWindow = c.GraceWindow
	s.PreviewDevice = c.PreviewDevice
	s.MaxPreviewSeconds = c.MaxPreviewSeconds

	s.Cutoff.Base = c.WarmthBase
	s.Cutoff.PerWarmth = c.WarmthPerStep
	s.Cutoff.Floors = map[ambimix.ContentCategory]float64{
		ambimix.CategoryLowFrequencyHeavy: c.LowFreqFloorHz,
	}
	if c.BiquadLowpass {
		s.Cutoff.Shape = ambimix.FilterBiquad
	}
	s.Cutoff.Q = c.LowpassQ

	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = ParseLogLevel(c.LogLevel)
	s.LoggerFactory = factory
	return s
}

// ParseLogLevel maps a level name to a pion log level. Unknown names map to info.
func ParseLogLevel(name string) logging.LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "disabled", "off":
		return logging.LogLevelDisabled
	case "error":
		return logging.LogLevelError
	case "warn", "warning":
		return logging.LogLevelWarn
	case "debug":
		return logging.LogLevelDebug
	case "trace":
		return logging.LogLevelTrace
	default:
		return logging.LogLevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
