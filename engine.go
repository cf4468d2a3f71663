package ambimix

import (
	"context"

	"github.com/pion/logging"
)

// Engine turns mix requests into encoded exports and live previews
type Engine struct {
	settings Settings
	log      logging.LeveledLogger

	builder *GraphBuilder
	capture *CapturePipeline
	preview *PreviewController
}

// New returns an engine resolving URL assets through resolver
func New(resolver AssetResolver, settings Settings) *Engine {
	settings = settings.normalize()
	return &Engine{
		settings: settings,
		log:      settings.LoggerFactory.NewLogger("ambimix"),
		builder:  NewGraphBuilder(resolver, settings),
		capture:  NewCapturePipeline(settings),
		preview:  NewPreviewController(settings),
	}
}

// Settings returns the engine settings with defaults filled in
func (e *Engine) Settings() Settings {
	return e.settings
}

// Build validates the request and constructs its graph
func (e *Engine) Build(ctx context.Context, req MixRequest) (*Graph, error) {
	return e.builder.Build(ctx, req)
}

// MainDuration returns the length of the request's main track without
// resolving any layer
func (e *Engine) MainDuration(ctx context.Context, req MixRequest) (float64, error) {
	return e.builder.MainDuration(ctx, req)
}

// Render builds the request's graph and captures TargetDurationSeconds of it.
// Build failures are reported to onProgress as well as returned.
func (e *Engine) Render(ctx context.Context, req MixRequest, onProgress ProgressFunc) (*Result, error) {
	graph, err := e.builder.Build(ctx, req)
	if err != nil {
		e.log.Warnf("render rejected: %v", err)
		newProgressReporter(onProgress).emit(ProgressEvent{Err: err})
		return nil, err
	}
	return e.capture.Capture(ctx, graph, req.TargetDurationSeconds, onProgress)
}

// Preview builds the request's graph and plays its first previewSeconds,
// capped at MaxPreviewSeconds. A zero previewSeconds plays the longest window allowed.
func (e *Engine) Preview(ctx context.Context, req MixRequest, previewSeconds float64) error {
	graph, err := e.builder.Build(ctx, req)
	if err != nil {
		return err
	}
	if previewSeconds <= 0 {
		previewSeconds = e.settings.MaxPreviewSeconds
	}
	return e.preview.Preview(ctx, graph, previewSeconds)
}

// StopPreview ends the active preview, if any
func (e *Engine) StopPreview() {
	e.preview.Stop()
}
