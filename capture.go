package ambimix

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pkg/errors"
)

// CapturePipeline renders graphs into encoded blobs
type CapturePipeline struct {
	settings Settings
	log      logging.LeveledLogger
}

// NewCapturePipeline returns a capture pipeline
func NewCapturePipeline(settings Settings) *CapturePipeline {
	settings = settings.normalize()
	return &CapturePipeline{
		settings: settings,
		log:      settings.LoggerFactory.NewLogger("capture"),
	}
}

// Capture renders durationSeconds of the graph into the first supported
// encoding of the codec preference. Cancelling ctx ends the capture early and
// returns what was encoded so far as a partial result.
func (p *CapturePipeline) Capture(ctx context.Context, graph *Graph, durationSeconds float64, onProgress ProgressFunc) (*Result, error) {
	return p.capture(ctx, NewSession(graph, p.settings), durationSeconds, onProgress)
}

// chunkWriter drains the audio clock into the encoder.
// Every written chunk refreshes the watchdog.
type chunkWriter struct {
	enc Encoder

	frames    atomic.Int64
	lastChunk atomic.Int64
	errCh     chan error
	done      chan struct{}
}

func (w *chunkWriter) touch() {
	w.lastChunk.Store(time.Now().UnixNano())
}

func (w *chunkWriter) sinceLastChunk() time.Duration {
	return time.Since(time.Unix(0, w.lastChunk.Load()))
}

func (w *chunkWriter) run(in <-chan *PremixData) {
	defer close(w.done)
	failed := false
	for chunk := range in {
		if failed {
			continue
		}
		if err := w.enc.Write(chunk); err != nil {
			failed = true
			w.errCh <- err
			continue
		}
		w.frames.Add(int64(chunk.SamplesLen))
		w.touch()
	}
}

func (p *CapturePipeline) capture(ctx context.Context, sess *Session, durationSeconds float64, onProgress ProgressFunc) (*Result, error) {
	if durationSeconds <= 0 {
		return nil, constructionErrorf("", "capture duration must be positive, got %v", durationSeconds)
	}
	graph := sess.Graph

	enc, err := NegotiateEncoder(p.settings.CodecPreference, EncoderSettings{
		Channels:         graph.Channels,
		SamplesPerSecond: graph.SampleRate,
		BitsPerSample:    p.settings.BitsPerSample,
		Bitrate:          p.settings.OpusBitrate,
	})
	if err != nil {
		return nil, err
	}
	p.log.Infof("session %s: capturing %.2fs as %s", sess.ID, durationSeconds, enc.MIMEType())

	limit := p.settings.framesFor(durationSeconds)
	chunks := make(chan *PremixData, chunkQueue)
	if err := sess.Transport.Start(graph, 0, limit, chunks); err != nil {
		return nil, &CaptureError{Code: CaptureTransportFailed, Err: err}
	}

	w := &chunkWriter{
		enc:   enc,
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
	}
	w.touch()
	go w.run(chunks)

	progress := newProgressReporter(onProgress)
	progress.emit(ProgressEvent{Percent: 0})

	ticker := time.NewTicker(p.settings.ProgressInterval)
	defer ticker.Stop()
	var deadline <-chan time.Time
	if p.settings.Realtime {
		wall := time.Duration(durationSeconds*float64(time.Second)) + p.settings.GraceWindow
		timer := time.NewTimer(wall)
		defer timer.Stop()
		deadline = timer.C
	}

	fail := func(code CaptureErrorCode, cause error) (*Result, error) {
		err := &CaptureError{Code: code, Err: cause}
		sess.Transport.Fail(err)
		p.log.Errorf("session %s: %v", sess.ID, err)
		progress.emit(ProgressEvent{Percent: percent(w.frames.Load(), limit), Err: err})
		return nil, err
	}

	partial := false
loop:
	for {
		select {
		case <-w.done:
			break loop
		case err := <-w.errCh:
			return fail(CaptureEncoderFailed, err)
		case <-ctx.Done():
			p.log.Infof("session %s: cancelled at frame %d", sess.ID, w.frames.Load())
			sess.Transport.Stop()
			<-w.done
			partial = true
			break loop
		case <-deadline:
			// an encoder still taking chunks is left to the watchdog
			if since := w.sinceLastChunk(); since > p.settings.GraceWindow {
				return fail(CaptureStalled, errors.Errorf("no result %v after the requested duration", p.settings.GraceWindow))
			}
			deadline = nil
		case <-ticker.C:
			if since := w.sinceLastChunk(); since > p.settings.GraceWindow {
				return fail(CaptureStalled, errors.Errorf("no chunk encoded for %v", since))
			}
			progress.emit(ProgressEvent{Percent: percent(w.frames.Load(), limit)})
		}
	}
	select {
	case err := <-w.errCh:
		return fail(CaptureEncoderFailed, err)
	default:
	}
	sess.Transport.Stop()

	data, err := enc.Finalize()
	if err != nil {
		return fail(CaptureEncoderFailed, errors.Wrap(err, "finalize"))
	}
	res := &Result{
		Data:       data,
		MIMEType:   enc.MIMEType(),
		Frames:     w.frames.Load(),
		SampleRate: graph.SampleRate,
		Partial:    partial,
	}
	p.log.Infof("session %s: captured %d frames, %d bytes", sess.ID, res.Frames, len(res.Data))
	progress.emit(ProgressEvent{Percent: 100, Result: res})
	return res, nil
}
