package ambimix

import (
	"context"
	"sync"

	"github.com/pion/logging"
	"github.com/pkg/errors"
)

// GraphNode pairs a source with the processing chain applied to it
type GraphNode struct {
	ID       string
	Category ContentCategory
	Source   *SourceNode
	Chain    *ProcessingChain

	scratch [][]float64
}

// render reads, processes and accumulates one block of n frames at pos
func (n *GraphNode) render(bus *MixBus, pos int64, frames int) {
	if len(n.scratch) != bus.Channels() {
		n.scratch = make([][]float64, bus.Channels())
	}
	for c := range n.scratch {
		if cap(n.scratch[c]) < frames {
			n.scratch[c] = make([]float64, frames)
		}
		n.scratch[c] = n.scratch[c][:frames]
	}
	n.Source.Read(n.scratch, pos)
	n.Chain.Process(n.scratch)
	bus.Accumulate(n.scratch)
}

// SkippedLayer is an optional layer left out of a graph because its asset was not found
type SkippedLayer struct {
	ID  string
	Err error
}

// Graph is the wired set of nodes of one request
type Graph struct {
	Main       *GraphNode
	Layers     []*GraphNode
	Skipped    []SkippedLayer
	SampleRate int
	Channels   int
}

// Nodes returns the main node followed by the layers
func (g *Graph) Nodes() []*GraphNode {
	return append([]*GraphNode{g.Main}, g.Layers...)
}

// Layer returns the layer node with the given id
func (g *Graph) Layer(id string) (*GraphNode, bool) {
	for _, n := range g.Layers {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// GraphBuilder translates mix requests into graphs
type GraphBuilder struct {
	resolver AssetResolver
	settings Settings
	log      logging.LeveledLogger
}

// NewGraphBuilder returns a builder resolving assets through resolver
func NewGraphBuilder(resolver AssetResolver, settings Settings) *GraphBuilder {
	settings = settings.normalize()
	return &GraphBuilder{
		resolver: resolver,
		settings: settings,
		log:      settings.LoggerFactory.NewLogger("graph"),
	}
}

// pendingAsset is one asset waiting to be decoded
type pendingAsset struct {
	source string
	ref    AudioAssetRef
	data   []byte
	asset  *DecodedAsset
	err    error
}

// Build validates the request, then resolves and decodes the main track and
// every enabled layer. Any failure returns no graph at all.
func (b *GraphBuilder) Build(ctx context.Context, req MixRequest) (*Graph, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	main := &pendingAsset{source: MainSource, ref: req.MainTrack}
	if err := b.resolve(ctx, main); err != nil {
		return nil, &DecodeError{Source: MainSource, Err: err}
	}

	var (
		specs   []LayerSpec
		layers  []*pendingAsset
		skipped []SkippedLayer
	)
	for _, spec := range req.EnabledLayers() {
		p := &pendingAsset{source: spec.ID, ref: spec.Asset}
		if err := b.resolve(ctx, p); err != nil {
			if spec.Optional && errors.Is(err, ErrAssetNotFound) {
				b.log.Warnf("skipping optional layer %s: %v", spec.ID, err)
				skipped = append(skipped, SkippedLayer{ID: spec.ID, Err: err})
				continue
			}
			return nil, &DecodeError{Source: spec.ID, Err: err}
		}
		specs = append(specs, spec)
		layers = append(layers, p)
	}
	if len(layers) == 0 {
		return nil, constructionErrorf("", "no ambience layer could be resolved")
	}

	if err := b.decodeAll(ctx, append([]*pendingAsset{main}, layers...)); err != nil {
		return nil, err
	}

	mainAsset := main.asset
	if lr := req.MainLoop; lr != nil {
		mainAsset = mainAsset.Region(lr.Start, lr.End)
	}
	loopMain := req.TargetDurationSeconds > mainAsset.DurationSeconds()

	g := &Graph{
		Main: &GraphNode{
			ID:     MainSource,
			Source: NewSourceNode(mainAsset, loopMain),
			Chain: &ProcessingChain{
				Stages: []Stage{&GainStage{Gain: 1}},
			},
		},
		Skipped:    skipped,
		SampleRate: b.settings.SampleRate,
		Channels:   b.settings.Channels,
	}
	for i, spec := range specs {
		g.Layers = append(g.Layers, b.layerNode(spec, layers[i].asset))
	}

	b.log.Debugf("graph built: main %.2fs loop=%v, %d layers, %d skipped",
		mainAsset.DurationSeconds(), loopMain, len(g.Layers), len(skipped))
	return g, nil
}

// MainDuration resolves and decodes only the main track and returns how long
// it plays before looping, with the loop region applied. Layers are not touched.
func (b *GraphBuilder) MainDuration(ctx context.Context, req MixRequest) (float64, error) {
	if err := req.validateMain(); err != nil {
		return 0, err
	}
	main := &pendingAsset{source: MainSource, ref: req.MainTrack}
	if err := b.resolve(ctx, main); err != nil {
		return 0, &DecodeError{Source: MainSource, Err: err}
	}
	if err := b.decodeAll(ctx, []*pendingAsset{main}); err != nil {
		return 0, err
	}
	a := main.asset
	if lr := req.MainLoop; lr != nil {
		a = a.Region(lr.Start, lr.End)
	}
	return a.DurationSeconds(), nil
}

func (b *GraphBuilder) layerNode(spec LayerSpec, asset *DecodedAsset) *GraphNode {
	chain := &ProcessingChain{}
	policy := b.settings.Cutoff
	if hz, ok := policy.Cutoff(spec); ok {
		chain.Stages = append(chain.Stages,
			NewLowpassStage(hz, b.settings.SampleRate, b.settings.Channels, policy.Shape, policy.Q))
	}
	chain.Stages = append(chain.Stages, &GainStage{Gain: spec.Volume})

	return &GraphNode{
		ID:       spec.ID,
		Category: spec.Category,
		Source:   NewSourceNode(asset, true),
		Chain:    chain,
	}
}

// resolve fetches the encoded bytes of a URL reference
func (b *GraphBuilder) resolve(ctx context.Context, p *pendingAsset) error {
	if p.ref.Buffer != nil {
		return nil
	}
	if b.resolver == nil {
		return errors.New("no asset resolver configured")
	}
	data, err := b.resolver.Resolve(ctx, p.ref.URL)
	if err != nil {
		return err
	}
	p.data = data
	return nil
}

// decodeAll decodes every pending asset concurrently and waits for all of them.
// The reported failure is the first one in request order.
func (b *GraphBuilder) decodeAll(ctx context.Context, pending []*pendingAsset) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, p := range pending {
		wg.Add(1)
		go func(p *pendingAsset) {
			defer wg.Done()
			if p.ref.Buffer != nil {
				p.asset, p.err = resampleAsset(ctx, p.ref.Buffer, b.settings.SampleRate)
			} else {
				p.asset, p.err = decodeAsset(ctx, p.data, b.settings.SampleRate)
			}
			if p.err != nil {
				cancel()
			}
		}(p)
	}
	wg.Wait()

	for _, p := range pending {
		if p.err != nil && !errors.Is(p.err, context.Canceled) {
			return &DecodeError{Source: p.source, Err: p.err}
		}
	}
	// only cancellations remain, from the caller abandoning the build
	for _, p := range pending {
		if p.err != nil {
			return &DecodeError{Source: p.source, Err: p.err}
		}
	}
	return nil
}
