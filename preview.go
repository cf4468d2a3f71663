package ambimix

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
)

// PreviewController plays one graph at a time through an output device
type PreviewController struct {
	settings Settings
	log      logging.LeveledLogger

	mu     sync.Mutex
	active *previewRun
	played atomic.Int64
}

type previewRun struct {
	sess   *Session
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPreviewController returns a controller playing through settings.PreviewDevice
func NewPreviewController(settings Settings) *PreviewController {
	settings = settings.normalize()
	return &PreviewController{
		settings: settings,
		log:      settings.LoggerFactory.NewLogger("preview"),
	}
}

// Window returns the number of seconds a preview of previewSeconds actually plays
func (p *PreviewController) Window(previewSeconds float64) float64 {
	if previewSeconds > p.settings.MaxPreviewSeconds {
		return p.settings.MaxPreviewSeconds
	}
	return previewSeconds
}

// Played returns the number of frames handed to the device by the most recent preview
func (p *PreviewController) Played() int64 {
	return p.played.Load()
}

// Active reports whether a preview is playing
func (p *PreviewController) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Preview plays the graph from the start for at most MaxPreviewSeconds and
// returns when the window has played out. An active preview of the same
// controller is stopped first. A preview ended by Stop, by a newer preview or
// by ctx returns nil.
func (p *PreviewController) Preview(ctx context.Context, graph *Graph, previewSeconds float64) error {
	if previewSeconds <= 0 {
		return constructionErrorf("", "preview duration must be positive, got %v", previewSeconds)
	}
	window := p.Window(previewSeconds)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	run := &previewRun{
		sess:   NewSession(graph, p.settings),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.mu.Lock()
	prev := p.active
	p.active = run
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.active == run {
			p.active = nil
		}
		p.mu.Unlock()
		close(run.done)
	}()
	if prev != nil {
		p.log.Debugf("session %s: superseded by %s", prev.sess.ID, run.sess.ID)
		prev.stop()
	}

	p.played.Store(0)
	dev, err := CreateOutputDevice(DeviceSettings{
		Name:             p.settings.PreviewDevice,
		Channels:         graph.Channels,
		SamplesPerSecond: graph.SampleRate,
		BitsPerSample:    p.settings.BitsPerSample,
		OnChunkOutput: func(_ Kind, chunk *PremixData) {
			p.played.Add(int64(chunk.SamplesLen))
		},
	})
	if err != nil {
		return &PreviewError{Code: PreviewDeviceUnavailable, Err: err}
	}
	defer dev.Close()

	chunks := make(chan *PremixData, chunkQueue)
	if err := run.sess.Transport.Start(graph, 0, p.settings.framesFor(window), chunks); err != nil {
		return &PreviewError{Code: PreviewTransportFailed, Err: err}
	}
	p.log.Infof("session %s: previewing %.2fs on %s", run.sess.ID, window, dev.Name())

	err = dev.PlayWithCtx(ctx, chunks)
	run.sess.Transport.Stop()
	if err != nil && ctx.Err() == nil {
		return &PreviewError{Code: PreviewPlaybackFailed, Err: err}
	}
	p.log.Debugf("session %s: preview ended after %d frames", run.sess.ID, p.played.Load())
	return nil
}

// Stop ends the active preview, if any, and waits for it to return
func (p *PreviewController) Stop() {
	p.mu.Lock()
	run := p.active
	p.active = nil
	p.mu.Unlock()
	if run != nil {
		run.stop()
	}
}

func (r *previewRun) stop() {
	r.cancel()
	r.sess.Transport.Stop()
	<-r.done
}
