package ambimix

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAssetNotFound is returned by an AssetResolver when the referenced asset does not exist
	ErrAssetNotFound = errors.New("asset not found")
	// ErrUnsupportedEncoding is returned when an asset's bytes are not a supported audio encoding
	ErrUnsupportedEncoding = errors.New("unsupported audio encoding")
	// ErrEmptySource is returned when a source has no samples to play
	ErrEmptySource = errors.New("source has zero length")
	// ErrTransportState is returned when a transport operation is not valid in its current state
	ErrTransportState = errors.New("invalid transport state")
)

// ErrorClass tells a caller what kind of corrective action a failure calls for
type ErrorClass int

const (
	// ClassUnexpected is an internal failure worth reporting as a bug
	ClassUnexpected = ErrorClass(iota)
	// ClassInput is caused by the request: a bad file or bad parameters
	ClassInput
	// ClassEnvironment is caused by the runtime, such as a missing codec or output device
	ClassEnvironment
)

func (c ErrorClass) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassEnvironment:
		return "environment"
	default:
		return "unexpected"
	}
}

// Classify reports the ErrorClass of an error returned by the engine.
// Errors that do not carry a class are unexpected.
func Classify(err error) ErrorClass {
	var c interface{ Class() ErrorClass }
	if errors.As(err, &c) {
		return c.Class()
	}
	return ClassUnexpected
}

// ConstructionError is a malformed request, rejected before any decode work begins
type ConstructionError struct {
	LayerID string
	Msg     string
}

func (e *ConstructionError) Error() string {
	if e.LayerID != "" {
		return fmt.Sprintf("invalid mix request: layer %q: %s", e.LayerID, e.Msg)
	}
	return "invalid mix request: " + e.Msg
}

// Class returns ClassInput
func (e *ConstructionError) Class() ErrorClass {
	return ClassInput
}

func constructionErrorf(layerID, format string, args ...interface{}) error {
	return &ConstructionError{
		LayerID: layerID,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// MainSource is the DecodeError source name of the main track
const MainSource = "main"

// DecodeError is an asset that could not be resolved or decoded.
// Source is MainSource or the offending layer id.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Class returns ClassInput
func (e *DecodeError) Class() ErrorClass {
	return ClassInput
}

// CaptureErrorCode identifies the reason a capture failed
type CaptureErrorCode int

const (
	// CaptureNoSupportedCodec means none of the preferred encodings is available
	CaptureNoSupportedCodec = CaptureErrorCode(iota)
	// CaptureTransportFailed means the graph could not be started
	CaptureTransportFailed
	// CaptureEncoderFailed means the encoder rejected a chunk or failed to finalize
	CaptureEncoderFailed
	// CaptureStalled means no encoder callback fired within the grace window
	CaptureStalled
)

func (c CaptureErrorCode) String() string {
	switch c {
	case CaptureNoSupportedCodec:
		return "no supported codec"
	case CaptureTransportFailed:
		return "transport failed"
	case CaptureEncoderFailed:
		return "encoder failed"
	case CaptureStalled:
		return "capture stalled"
	default:
		return "unknown"
	}
}

// CaptureError is a failure of the capture pipeline. Partial output is never returned with it.
type CaptureError struct {
	Code CaptureErrorCode
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return "capture: " + e.Code.String()
	}
	return fmt.Sprintf("capture: %s: %v", e.Code, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Class classifies the capture failure
func (e *CaptureError) Class() ErrorClass {
	switch e.Code {
	case CaptureNoSupportedCodec:
		return ClassEnvironment
	case CaptureTransportFailed:
		return ClassInput
	default:
		return ClassUnexpected
	}
}

// PreviewErrorCode identifies the reason a preview failed
type PreviewErrorCode int

const (
	// PreviewDeviceUnavailable means the output device could not be opened
	PreviewDeviceUnavailable = PreviewErrorCode(iota)
	// PreviewTransportFailed means the graph could not be started
	PreviewTransportFailed
	// PreviewPlaybackFailed means the device failed while playing
	PreviewPlaybackFailed
)

func (c PreviewErrorCode) String() string {
	switch c {
	case PreviewDeviceUnavailable:
		return "device unavailable"
	case PreviewTransportFailed:
		return "transport failed"
	case PreviewPlaybackFailed:
		return "playback failed"
	default:
		return "unknown"
	}
}

// PreviewError is a failure of a live preview
type PreviewError struct {
	Code PreviewErrorCode
	Err  error
}

func (e *PreviewError) Error() string {
	if e.Err == nil {
		return "preview: " + e.Code.String()
	}
	return fmt.Sprintf("preview: %s: %v", e.Code, e.Err)
}

func (e *PreviewError) Unwrap() error {
	return e.Err
}

// Class classifies the preview failure
func (e *PreviewError) Class() ErrorClass {
	switch e.Code {
	case PreviewDeviceUnavailable:
		return ClassEnvironment
	case PreviewTransportFailed:
		return ClassInput
	default:
		return ClassUnexpected
	}
}
