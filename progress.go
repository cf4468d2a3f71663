package ambimix

import "sync"

// Result is the encoded output of a capture
type Result struct {
	Data       []byte
	MIMEType   string
	Frames     int64
	SampleRate int
	// Partial is set when the capture was cut short by its caller
	Partial bool
}

// DurationSeconds returns the length of the captured audio
func (r *Result) DurationSeconds() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(r.Frames) / float64(r.SampleRate)
}

// ProgressEvent reports capture progress. Result is set on the final event only.
type ProgressEvent struct {
	Percent int
	Result  *Result
	Err     error
}

// ProgressFunc receives progress events from the control loop
type ProgressFunc func(ev ProgressEvent)

// progressReporter forwards only events that keep the percentage monotonic
type progressReporter struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last int
	sent bool
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn}
}

func (p *progressReporter) emit(ev ProgressEvent) {
	if p == nil || p.fn == nil {
		return
	}
	if ev.Percent < 0 {
		ev.Percent = 0
	} else if ev.Percent > 100 {
		ev.Percent = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent && ev.Percent < p.last {
		ev.Percent = p.last
	}
	if p.sent && ev.Percent == p.last && ev.Result == nil && ev.Err == nil {
		return
	}
	p.last = ev.Percent
	p.sent = true
	p.fn(ev)
}

// percent is the share of total already done, capped below completion
func percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(done * 100 / total)
	if pct > 99 {
		pct = 99
	}
	return pct
}
