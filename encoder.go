package ambimix

import (
	"github.com/pkg/errors"
)

// Output MIME types of the registered encoders
const (
	MIMETypeOggOpus = "audio/ogg;codecs=opus"
	MIMETypeFLAC    = "audio/flac"
	MIMETypeWAV     = "audio/wav"
)

var (
	// ErrEncoderNotSupported is returned when the requested encoder is not registered or cannot handle the format
	ErrEncoderNotSupported = errors.New("encoder not supported")
)

// Encoder turns mixed chunks into an encoded container held in memory
type Encoder interface {
	MIMEType() string
	Write(chunk *PremixData) error
	// Finalize flushes the container and returns its bytes. The encoder may not be used afterwards.
	Finalize() ([]byte, error)
}

// EncoderSettings is the output format handed to encoders
type EncoderSettings struct {
	Channels         int
	SamplesPerSecond int
	BitsPerSample    int
	Bitrate          int
}

type createEncoderFunc func(settings EncoderSettings) (Encoder, error)

type encoderDetails struct {
	create   createEncoderFunc
	supports func(settings EncoderSettings) bool
}

var (
	// encoderMap is the mapping of MIME type to encoder details
	encoderMap = make(map[string]encoderDetails)
)

// Supported reports whether an encoder for mimeType is available for the format
func Supported(mimeType string, settings EncoderSettings) bool {
	details, ok := encoderMap[mimeType]
	return ok && details.create != nil && (details.supports == nil || details.supports(settings))
}

// CreateEncoder creates the encoder registered for mimeType
func CreateEncoder(mimeType string, settings EncoderSettings) (Encoder, error) {
	if !Supported(mimeType, settings) {
		return nil, errors.Wrap(ErrEncoderNotSupported, mimeType)
	}
	return encoderMap[mimeType].create(settings)
}

// NegotiateEncoder creates the first encoder of the preference list that supports the format
func NegotiateEncoder(preference []string, settings EncoderSettings) (Encoder, error) {
	for _, mimeType := range preference {
		if !Supported(mimeType, settings) {
			continue
		}
		enc, err := CreateEncoder(mimeType, settings)
		if err != nil {
			continue
		}
		return enc, nil
	}
	return nil, &CaptureError{
		Code: CaptureNoSupportedCodec,
		Err:  errors.Errorf("tried %v", preference),
	}
}
