package ambimix

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pkg/errors"
)

// TransportState is the lifecycle state of a transport
type TransportState int32

const (
	// TransportIdle has not been started
	TransportIdle = TransportState(iota)
	// TransportRunning is producing chunks
	TransportRunning
	// TransportStopping is winding down after a stop or its limit
	TransportStopping
	// TransportComplete has stopped cleanly
	TransportComplete
	// TransportFailed has stopped because of an error
	TransportFailed
)

func (s TransportState) String() string {
	switch s {
	case TransportIdle:
		return "idle"
	case TransportRunning:
		return "running"
	case TransportStopping:
		return "stopping"
	case TransportComplete:
		return "complete"
	case TransportFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// chunkQueue is the number of rendered chunks buffered between the audio clock and its consumer
const chunkQueue = 16

// TransportController starts and stops every source of a graph together and
// runs the audio clock that renders the graph into chunks.
type TransportController struct {
	settings Settings
	log      logging.LeveledLogger

	mu    sync.Mutex
	state TransportState
	err   error

	stopCh    chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	closeOnce sync.Once

	pos atomic.Int64
}

// NewTransportController returns an idle transport
func NewTransportController(settings Settings) *TransportController {
	settings = settings.normalize()
	return &TransportController{
		settings: settings,
		log:      settings.LoggerFactory.NewLogger("transport"),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the current state
func (t *TransportController) State() TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure that moved the transport to TransportFailed
func (t *TransportController) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Position returns the number of timeline frames rendered so far
func (t *TransportController) Position() int64 {
	return t.pos.Load()
}

// Done is closed once the audio clock has exited, or the transport failed to start
func (t *TransportController) Done() <-chan struct{} {
	return t.done
}

// Start arms every source of the graph at timeline frame at in a single batch
// and starts the audio clock. The clock renders timeline frames [0, limit),
// sends each chunk on out and closes out when it exits. If any source cannot
// start, none is started and the transport fails.
func (t *TransportController) Start(graph *Graph, at, limit int64, out chan<- *PremixData) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TransportIdle {
		return errors.Wrapf(ErrTransportState, "start while %s", t.state)
	}

	nodes := graph.Nodes()
	for _, n := range nodes {
		if a := n.Source.Asset(); a == nil || a.Frames() == 0 {
			t.state = TransportFailed
			t.err = errors.Wrap(ErrEmptySource, n.ID)
			t.closeDone()
			close(out)
			return t.err
		}
	}
	for _, n := range nodes {
		// cannot fail: every asset was checked above
		_ = n.Source.Arm(at)
		n.Chain.Reset()
	}
	t.state = TransportRunning

	bus := NewMixBus(graph.Channels, t.settings.ChunkFrames)
	go t.run(nodes, bus, limit, out)
	return nil
}

func (t *TransportController) closeDone() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

// run is the audio clock
func (t *TransportController) run(nodes []*GraphNode, bus *MixBus, limit int64, out chan<- *PremixData) {
	defer t.closeDone()
	defer close(out)

	var tick <-chan time.Time
	if t.settings.Realtime {
		ticker := time.NewTicker(t.settings.chunkPeriod())
		defer ticker.Stop()
		tick = ticker.C
	}

	var pos int64
	for pos < limit {
		n := t.settings.ChunkFrames
		if rem := limit - pos; rem < int64(n) {
			n = int(rem)
		}

		bus.Begin(pos, n)
		var wg sync.WaitGroup
		for _, node := range nodes {
			wg.Add(1)
			go func(node *GraphNode) {
				defer wg.Done()
				node.render(bus, pos, n)
			}(node)
		}
		wg.Wait()

		select {
		case out <- bus.Drain():
		case <-t.stopCh:
			t.halt(nodes)
			return
		}
		pos += int64(n)
		t.pos.Store(pos)

		if pos >= limit {
			break
		}
		if tick != nil {
			select {
			case <-tick:
			case <-t.stopCh:
				t.halt(nodes)
				return
			}
		} else {
			select {
			case <-t.stopCh:
				t.halt(nodes)
				return
			default:
			}
		}
	}
	t.halt(nodes)
}

// halt silences every source and settles the final state
func (t *TransportController) halt(nodes []*GraphNode) {
	t.mu.Lock()
	if t.state == TransportRunning {
		t.state = TransportStopping
	}
	t.mu.Unlock()

	for _, n := range nodes {
		n.Source.Stop()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TransportFailed {
		t.state = TransportComplete
	}
	t.log.Debugf("transport halted at frame %d (%s)", t.pos.Load(), t.state)
}

// Stop stops every source and waits for the audio clock to exit.
// It may be called any number of times; calls after the first have no effect.
func (t *TransportController) Stop() {
	t.mu.Lock()
	switch t.state {
	case TransportIdle:
		t.mu.Unlock()
		return
	case TransportRunning:
		t.state = TransportStopping
	}
	t.mu.Unlock()

	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.done
}

// Fail moves the transport to TransportFailed and stops it
func (t *TransportController) Fail(err error) {
	t.mu.Lock()
	wasIdle := t.state == TransportIdle
	if t.state != TransportFailed {
		t.state = TransportFailed
		t.err = err
	}
	t.mu.Unlock()

	if wasIdle {
		t.closeDone()
		return
	}
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.done
}
