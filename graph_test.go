package ambimix

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

// recordingResolver serves a MapResolver and remembers every url asked for
type recordingResolver struct {
	*MapResolver
	mu    sync.Mutex
	asked []string
}

func (r *recordingResolver) Resolve(ctx context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	r.asked = append(r.asked, url)
	r.mu.Unlock()
	return r.MapResolver.Resolve(ctx, url)
}

func (r *recordingResolver) wasAsked(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.asked {
		if u == url {
			return true
		}
	}
	return false
}

func TestGraphBuilderBuild(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	resolver := &recordingResolver{MapResolver: NewMapResolver(map[string][]byte{
		"main.wav": wavBytes(t, constAsset(t, 2*rate, 0.25, rate)),
		"rain.wav": wavBytes(t, constAsset(t, rate, 0.5, rate)),
	})}

	req := MixRequest{
		MainTrack: AudioAssetRef{URL: "main.wav"},
		Layers: []LayerSpec{
			{ID: "rain", Asset: AudioAssetRef{URL: "rain.wav"}, Enabled: true, Volume: 0.5, Warmth: floatPtr(20)},
			{ID: "thunder", Asset: AudioAssetRef{URL: "thunder.wav"}, Volume: 1},
		},
		TargetDurationSeconds: 5,
	}
	g, err := NewGraphBuilder(resolver, settings).Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if resolver.wasAsked("thunder.wav") {
		t.Error("disabled layer was resolved")
	}
	if _, ok := g.Layer("thunder"); ok {
		t.Error("disabled layer is in the graph")
	}
	if len(g.Layers) != 1 || len(g.Nodes()) != 2 {
		t.Fatalf("graph has %d layers, %d nodes; want 1, 2", len(g.Layers), len(g.Nodes()))
	}

	if !g.Main.Source.Looping() {
		t.Error("main track does not loop although the target exceeds it")
	}
	if got := g.Main.Source.Asset().Frames(); got != 2*rate {
		t.Errorf("main frames = %d, want %d", got, 2*rate)
	}
	if gain, ok := g.Main.Chain.Gain(); !ok || gain.Gain != 1 {
		t.Errorf("main gain = %v, want 1", gain)
	}

	rain, _ := g.Layer("rain")
	if !rain.Source.Looping() {
		t.Error("layer does not loop")
	}
	lp, ok := rain.Chain.Lowpass()
	if !ok || lp.CutoffHz != 1000 {
		t.Errorf("rain low-pass = %v, %v; want 1000 Hz", lp, ok)
	}
	if _, isLowpass := rain.Chain.Stages[0].(*LowpassStage); !isLowpass {
		t.Error("low-pass stage is not ahead of the gain stage")
	}
}

func TestGraphBuilderMainDoesNotLoopWhenLongEnough(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	req := MixRequest{
		MainTrack:             AudioAssetRef{Buffer: constAsset(t, 3*rate, 0.1, rate)},
		Layers:                []LayerSpec{layer("rain", constAsset(t, rate, 0.1, rate), 1)},
		TargetDurationSeconds: 3,
	}
	g, err := NewGraphBuilder(nil, settings).Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if g.Main.Source.Looping() {
		t.Error("main track loops although it covers the target")
	}
}

func TestGraphBuilderMainLoopRegion(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	req := MixRequest{
		MainTrack:             AudioAssetRef{Buffer: rampAsset(t, 4*rate, 2, rate)},
		MainLoop:              &LoopRegion{Start: 1, End: 2},
		Layers:                []LayerSpec{layer("rain", constAsset(t, rate, 0.1, rate), 1)},
		TargetDurationSeconds: 3,
	}
	g, err := NewGraphBuilder(nil, settings).Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	main := g.Main.Source.Asset()
	if main.Frames() != rate {
		t.Errorf("region frames = %d, want %d", main.Frames(), rate)
	}
	if want := float64(rate) / float64(4*rate); main.Samples[0][0] != want {
		t.Errorf("region starts at %v, want %v", main.Samples[0][0], want)
	}
	if !g.Main.Source.Looping() {
		t.Error("one second region does not loop over a three second target")
	}
}

func TestGraphBuilderResamples(t *testing.T) {
	settings := testSettings()
	req := MixRequest{
		MainTrack:             AudioAssetRef{Buffer: constAsset(t, 16000, 0.1, 16000)},
		Layers:                []LayerSpec{layer("rain", constAsset(t, 4000, 0.1, 4000), 1)},
		TargetDurationSeconds: 1,
	}
	g, err := NewGraphBuilder(nil, settings).Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range g.Nodes() {
		a := n.Source.Asset()
		if a.SampleRate != settings.SampleRate {
			t.Errorf("%s: sample rate %d, want %d", n.ID, a.SampleRate, settings.SampleRate)
		}
		if !almostEqual(a.DurationSeconds(), 1, 0.01) {
			t.Errorf("%s: duration %v, want 1s", n.ID, a.DurationSeconds())
		}
	}
}

func TestGraphBuilderFailures(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	good := wavBytes(t, constAsset(t, rate, 0.1, rate))
	resolver := NewMapResolver(map[string][]byte{
		"good.wav":    good,
		"garbage.bin": []byte("definitely not audio"),
	})
	ref := func(url string) AudioAssetRef { return AudioAssetRef{URL: url} }

	tests := []struct {
		name       string
		main       string
		layers     []LayerSpec
		wantSource string
		wantClass  ErrorClass
		wantCons   bool
	}{
		{
			name:       "unsupported main track",
			main:       "garbage.bin",
			layers:     []LayerSpec{{ID: "rain", Asset: ref("good.wav"), Enabled: true, Volume: 1}},
			wantSource: MainSource,
		},
		{
			name:       "missing main track",
			main:       "missing.wav",
			layers:     []LayerSpec{{ID: "rain", Asset: ref("good.wav"), Enabled: true, Volume: 1}},
			wantSource: MainSource,
		},
		{
			name: "undecodable layer",
			main: "good.wav",
			layers: []LayerSpec{
				{ID: "rain", Asset: ref("good.wav"), Enabled: true, Volume: 1},
				{ID: "bad", Asset: ref("garbage.bin"), Enabled: true, Volume: 1},
			},
			wantSource: "bad",
		},
		{
			name:       "missing required layer",
			main:       "good.wav",
			layers:     []LayerSpec{{ID: "rain", Asset: ref("missing.wav"), Enabled: true, Volume: 1}},
			wantSource: "rain",
		},
		{
			name:     "every layer optional and missing",
			main:     "good.wav",
			layers:   []LayerSpec{{ID: "rain", Asset: ref("missing.wav"), Enabled: true, Volume: 1, Optional: true}},
			wantCons: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MixRequest{
				MainTrack:             ref(tt.main),
				Layers:                tt.layers,
				TargetDurationSeconds: 2,
			}
			g, err := NewGraphBuilder(resolver, settings).Build(context.Background(), req)
			if g != nil {
				t.Error("Build() returned a partial graph")
			}
			if tt.wantCons {
				var ce *ConstructionError
				if !errors.As(err, &ce) {
					t.Fatalf("Build() error = %v, want *ConstructionError", err)
				}
				return
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("Build() error = %v, want *DecodeError", err)
			}
			if de.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", de.Source, tt.wantSource)
			}
			if Classify(err) != ClassInput {
				t.Errorf("Classify = %v, want input", Classify(err))
			}
		})
	}
}

func TestGraphBuilderSkipsOptionalLayer(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	resolver := NewMapResolver(map[string][]byte{
		"rain.wav": wavBytes(t, constAsset(t, rate, 0.1, rate)),
	})
	req := MixRequest{
		MainTrack: AudioAssetRef{Buffer: constAsset(t, rate, 0.1, rate)},
		Layers: []LayerSpec{
			{ID: "rain", Asset: AudioAssetRef{URL: "rain.wav"}, Enabled: true, Volume: 1},
			{ID: "fire", Asset: AudioAssetRef{URL: "fire.wav"}, Enabled: true, Volume: 1, Optional: true},
		},
		TargetDurationSeconds: 1,
	}
	g, err := NewGraphBuilder(resolver, settings).Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Skipped) != 1 || g.Skipped[0].ID != "fire" || !errors.Is(g.Skipped[0].Err, ErrAssetNotFound) {
		t.Errorf("Skipped = %+v, want fire not found", g.Skipped)
	}
	if len(g.Layers) != 1 {
		t.Errorf("len(Layers) = %d, want 1", len(g.Layers))
	}
}

func TestGraphBuilderValidatesBeforeResolving(t *testing.T) {
	resolver := &recordingResolver{MapResolver: NewMapResolver(nil)}
	req := MixRequest{
		MainTrack:             AudioAssetRef{URL: "main.wav"},
		Layers:                []LayerSpec{{ID: "rain", Asset: AudioAssetRef{URL: "rain.wav"}, Enabled: true, Volume: 3}},
		TargetDurationSeconds: 1,
	}
	_, err := NewGraphBuilder(resolver, testSettings()).Build(context.Background(), req)
	var ce *ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("Build() error = %v, want *ConstructionError", err)
	}
	if len(resolver.asked) != 0 {
		t.Errorf("resolver was asked for %v before validation", resolver.asked)
	}
}

func TestGraphBuilderRejectsMalformedBuffers(t *testing.T) {
	rate := testSettings().SampleRate
	tests := []struct {
		name    string
		main    *DecodedAsset
		rain    *DecodedAsset
		layerID string
	}{
		{
			name:    "main without sample rate",
			main:    &DecodedAsset{Samples: [][]float64{{0.1, 0.1}}, Channels: 1},
			rain:    constAsset(t, rate, 0.1, rate),
			layerID: "",
		},
		{
			name:    "layer with uneven channels at the engine rate",
			main:    constAsset(t, rate, 0.1, rate),
			rain:    &DecodedAsset{Samples: [][]float64{make([]float64, rate), make([]float64, rate/2)}, SampleRate: rate, Channels: 2},
			layerID: "rain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := MixRequest{
				MainTrack:             AudioAssetRef{Buffer: tt.main},
				Layers:                []LayerSpec{layer("rain", tt.rain, 0.5)},
				TargetDurationSeconds: 1,
			}
			g, err := NewGraphBuilder(NewMapResolver(nil), testSettings()).Build(context.Background(), req)
			var ce *ConstructionError
			if g != nil || !errors.As(err, &ce) {
				t.Fatalf("Build() = %v, %v, want *ConstructionError", g, err)
			}
			if ce.LayerID != tt.layerID {
				t.Errorf("LayerID = %q, want %q", ce.LayerID, tt.layerID)
			}
		})
	}
}

func TestGraphBuilderMainDuration(t *testing.T) {
	settings := testSettings()
	rate := settings.SampleRate
	resolver := &recordingResolver{MapResolver: NewMapResolver(map[string][]byte{
		"main.wav": wavBytes(t, constAsset(t, 3*rate, 0.25, rate)),
		"rain.wav": wavBytes(t, constAsset(t, rate, 0.5, rate)),
	})}
	b := NewGraphBuilder(resolver, settings)
	req := MixRequest{
		MainTrack: AudioAssetRef{URL: "main.wav"},
		Layers:    []LayerSpec{{ID: "rain", Asset: AudioAssetRef{URL: "rain.wav"}, Enabled: true, Volume: 0.5}},
	}

	got, err := b.MainDuration(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got, 3, 1e-6) {
		t.Errorf("MainDuration() = %v, want 3", got)
	}
	if resolver.wasAsked("rain.wav") {
		t.Error("layer was resolved while probing the main track")
	}

	req.MainLoop = &LoopRegion{Start: 0.5, End: 2}
	if got, err := b.MainDuration(context.Background(), req); err != nil || !almostEqual(got, 1.5, 1e-6) {
		t.Errorf("MainDuration() with loop region = %v, %v, want 1.5", got, err)
	}

	req.MainTrack = AudioAssetRef{URL: "missing.wav"}
	_, err = b.MainDuration(context.Background(), req)
	var de *DecodeError
	if !errors.As(err, &de) || de.Source != MainSource {
		t.Errorf("MainDuration() error = %v, want DecodeError for main", err)
	}
}
