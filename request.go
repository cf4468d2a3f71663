package ambimix

import (
	"math"

	"github.com/gotracker/gomixing/volume"
)

// ContentCategory is the semantic tag of a layer's material
type ContentCategory int

const (
	// CategoryAmbient is general ambience
	CategoryAmbient = ContentCategory(iota)
	// CategoryLowFrequencyHeavy is material whose character lives in the low end, such as thunder
	CategoryLowFrequencyHeavy
)

func (c ContentCategory) String() string {
	switch c {
	case CategoryAmbient:
		return "ambient"
	case CategoryLowFrequencyHeavy:
		return "low-frequency-heavy"
	default:
		return "unknown"
	}
}

// AudioAssetRef points at the audio of a track. Exactly one of Buffer and URL is set.
type AudioAssetRef struct {
	// Buffer is an already decoded asset
	Buffer *DecodedAsset
	// URL is resolved to encoded bytes by the engine's AssetResolver
	URL string
}

func (r AudioAssetRef) isSet() bool {
	return r.Buffer != nil || r.URL != ""
}

func (r AudioAssetRef) String() string {
	if r.Buffer != nil {
		return "<buffer>"
	}
	return r.URL
}

// LoopRegion is the playable part of the main track, in seconds
type LoopRegion struct {
	Start float64
	End   float64
}

// LayerSpec describes one ambience layer
type LayerSpec struct {
	// ID is unique within a request
	ID string
	// PackID optionally names the catalog pack the layer comes from
	PackID string
	Asset  AudioAssetRef
	// Enabled layers are mixed; disabled layers are never decoded
	Enabled bool
	// Volume is a linear gain in [0,1]
	Volume volume.Volume
	// LowpassHz is an explicit cutoff. Mutually exclusive with Warmth.
	LowpassHz *float64
	// Warmth is a 0..100 tone control mapped to a cutoff by the CutoffPolicy
	Warmth   *float64
	Category ContentCategory
	// Optional layers are skipped with a warning when their asset is not found
	Optional bool
}

// MixRequest is everything needed to render or preview one mix
type MixRequest struct {
	MainTrack AudioAssetRef
	// MainLoop optionally restricts the main track to a region
	MainLoop              *LoopRegion
	Layers                []LayerSpec
	TargetDurationSeconds float64
	// Entitlement decides which catalog packs may be used
	Entitlement Entitlement
}

// EnabledLayers returns the enabled layers in request order
func (r MixRequest) EnabledLayers() []LayerSpec {
	var enabled []LayerSpec
	for _, l := range r.Layers {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}
	return enabled
}

// Validate checks the shape of the request. It performs no resolution or decoding.
func (r MixRequest) Validate() error {
	if err := r.validateMain(); err != nil {
		return err
	}
	if !(r.TargetDurationSeconds > 0) || math.IsInf(r.TargetDurationSeconds, 0) {
		return constructionErrorf("", "target duration must be positive, got %v", r.TargetDurationSeconds)
	}

	seen := make(map[string]struct{}, len(r.Layers))
	enabled := 0
	for _, l := range r.Layers {
		if l.ID == "" {
			return constructionErrorf("", "layer id is required")
		}
		if _, dup := seen[l.ID]; dup {
			return constructionErrorf(l.ID, "duplicate layer id")
		}
		seen[l.ID] = struct{}{}
		if !l.Enabled {
			continue
		}
		enabled++
		if err := r.validateLayer(l); err != nil {
			return err
		}
	}
	if enabled == 0 {
		return constructionErrorf("", "at least one ambience layer must be enabled")
	}
	return nil
}

// validateMain checks the main track reference and its loop region
func (r MixRequest) validateMain() error {
	if !r.MainTrack.isSet() {
		return constructionErrorf("", "main track is required")
	}
	if r.MainTrack.Buffer != nil && r.MainTrack.URL != "" {
		return constructionErrorf("", "main track must set exactly one of buffer and url")
	}
	if b := r.MainTrack.Buffer; b != nil {
		if err := b.check(); err != nil {
			return constructionErrorf("", "main track buffer: %v", err)
		}
	}
	if lr := r.MainLoop; lr != nil {
		if !(lr.Start >= 0) || !(lr.End > lr.Start) || math.IsInf(lr.End, 0) {
			return constructionErrorf("", "invalid main loop region [%v, %v)", lr.Start, lr.End)
		}
	}
	return nil
}

func (r MixRequest) validateLayer(l LayerSpec) error {
	switch {
	case !l.Asset.isSet():
		return constructionErrorf(l.ID, "layer has no buffer or url")
	case l.Asset.Buffer != nil && l.Asset.URL != "":
		return constructionErrorf(l.ID, "layer must set exactly one of buffer and url")
	case !(l.Volume >= 0 && l.Volume <= 1):
		return constructionErrorf(l.ID, "volume %v out of range [0,1]", l.Volume)
	case l.LowpassHz != nil && l.Warmth != nil:
		return constructionErrorf(l.ID, "lowpassHz and warmth are mutually exclusive")
	case l.LowpassHz != nil && (!(*l.LowpassHz > 0) || math.IsInf(*l.LowpassHz, 0)):
		return constructionErrorf(l.ID, "lowpassHz must be positive, got %v", *l.LowpassHz)
	case l.Warmth != nil && !(*l.Warmth >= MinWarmth && *l.Warmth <= MaxWarmth):
		return constructionErrorf(l.ID, "warmth %v out of range [%d,%d]", *l.Warmth, MinWarmth, MaxWarmth)
	}
	if b := l.Asset.Buffer; b != nil {
		if err := b.check(); err != nil {
			return constructionErrorf(l.ID, "buffer: %v", err)
		}
	}
	if l.PackID != "" {
		pack, ok := PackByID(l.PackID)
		if !ok {
			return constructionErrorf(l.ID, "unknown pack %q", l.PackID)
		}
		if !pack.SelectableBy(r.Entitlement) {
			return constructionErrorf(l.ID, "pack %q requires a pro entitlement", l.PackID)
		}
	}
	return nil
}
