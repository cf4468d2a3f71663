package ambimix

import (
	"time"

	"github.com/pion/logging"
)

// Default values used by DefaultSettings
const (
	DefaultSampleRate        = 48000
	DefaultChannels          = 2
	DefaultBitsPerSample     = 16
	DefaultChunkDuration     = 100 * time.Millisecond
	DefaultProgressInterval  = 500 * time.Millisecond
	DefaultGraceWindow       = 5 * time.Second
	DefaultMaxPreviewSeconds = 30
	DefaultOpusBitrate       = 128000
)

// Settings is the settings for configuring the engine
type Settings struct {
	// SampleRate is the rate every asset is resampled to and the rate of the output
	SampleRate int
	// Channels is the output channel count (1 or 2)
	Channels int
	// BitsPerSample is the integer sample depth used by PCM encoders
	BitsPerSample int
	// ChunkFrames is the number of frames the audio clock renders per chunk.
	// It is also the duration tolerance of a capture.
	ChunkFrames int
	// Realtime paces the audio clock to wall time. When false, sessions render as fast as their sink accepts.
	Realtime bool
	// ProgressInterval is the control loop cadence
	ProgressInterval time.Duration
	// GraceWindow bounds how long a capture waits for an encoder callback before failing
	GraceWindow time.Duration
	// CodecPreference is the ordered list of output MIME types tried during negotiation
	CodecPreference []string
	// OpusBitrate is the target bitrate of the Ogg Opus encoder
	OpusBitrate int
	// PreviewDevice is the name of the output device used for previews
	PreviewDevice string
	// MaxPreviewSeconds caps the preview window
	MaxPreviewSeconds float64
	// Cutoff maps layer tone controls to low-pass cutoffs
	Cutoff CutoffPolicy
	// LoggerFactory creates the scoped loggers used by the engine
	LoggerFactory logging.LoggerFactory
}

// DefaultSettings returns settings for realtime 48kHz stereo operation
func DefaultSettings() Settings {
	return Settings{
		SampleRate:        DefaultSampleRate,
		Channels:          DefaultChannels,
		BitsPerSample:     DefaultBitsPerSample,
		ChunkFrames:       int(DefaultChunkDuration * DefaultSampleRate / time.Second),
		Realtime:          true,
		ProgressInterval:  DefaultProgressInterval,
		GraceWindow:       DefaultGraceWindow,
		CodecPreference:   []string{MIMETypeOggOpus, MIMETypeFLAC, MIMETypeWAV},
		OpusBitrate:       DefaultOpusBitrate,
		PreviewDevice:     pulseaudioName,
		MaxPreviewSeconds: DefaultMaxPreviewSeconds,
		Cutoff:            DefaultCutoffPolicy(),
		LoggerFactory:     logging.NewDefaultLoggerFactory(),
	}
}

// normalize fills zero values with defaults
func (s Settings) normalize() Settings {
	def := DefaultSettings()
	if s.SampleRate <= 0 {
		s.SampleRate = def.SampleRate
	}
	if s.Channels <= 0 {
		s.Channels = def.Channels
	}
	if s.BitsPerSample <= 0 {
		s.BitsPerSample = def.BitsPerSample
	}
	if s.ChunkFrames <= 0 {
		s.ChunkFrames = int(DefaultChunkDuration * time.Duration(s.SampleRate) / time.Second)
	}
	if s.ProgressInterval <= 0 {
		s.ProgressInterval = def.ProgressInterval
	}
	if s.GraceWindow <= 0 {
		s.GraceWindow = def.GraceWindow
	}
	if len(s.CodecPreference) == 0 {
		s.CodecPreference = def.CodecPreference
	}
	if s.OpusBitrate <= 0 {
		s.OpusBitrate = def.OpusBitrate
	}
	if s.PreviewDevice == "" {
		s.PreviewDevice = def.PreviewDevice
	}
	if s.MaxPreviewSeconds <= 0 {
		s.MaxPreviewSeconds = def.MaxPreviewSeconds
	}
	if s.Cutoff.Base == 0 && s.Cutoff.PerWarmth == 0 {
		s.Cutoff = def.Cutoff
	}
	if s.LoggerFactory == nil {
		s.LoggerFactory = def.LoggerFactory
	}
	return s
}

// chunkPeriod is the wall time covered by one chunk
func (s Settings) chunkPeriod() time.Duration {
	return time.Duration(s.ChunkFrames) * time.Second / time.Duration(s.SampleRate)
}

// framesFor converts seconds to frames at the engine sample rate
func (s Settings) framesFor(seconds float64) int64 {
	return int64(seconds*float64(s.SampleRate) + 0.5)
}
