package ambimix

import (
	"github.com/gotracker/gomixing/volume"
)

// Entitlement is the subscription tier of the requester
type Entitlement int

const (
	// EntitlementFree may only use free packs
	EntitlementFree = Entitlement(iota)
	// EntitlementPro may use every pack
	EntitlementPro
)

// Ambience types shipped with the catalog
const (
	TypeSoftRain       = "soft-rain"
	TypeWindowRain     = "window-rain"
	TypeDistantThunder = "distant-thunder"
	TypeRoomTone       = "room-tone"
)

// AmbiencePack is a selectable ambience asset
type AmbiencePack struct {
	ID          string
	Name        string
	Description string
	Pro         bool
	Type        string
}

// SelectableBy reports whether the pack may be used under the entitlement
func (p AmbiencePack) SelectableBy(e Entitlement) bool {
	return !p.Pro || e == EntitlementPro
}

// Category returns the content category of the pack's type
func (p AmbiencePack) Category() ContentCategory {
	return CategoryForPackType(p.Type)
}

// Packs is the ambience catalog
var Packs = []AmbiencePack{
	{
		ID:          "rain-basic",
		Name:        "Gentle Rain",
		Description: "Soft rainfall with distant ambience.",
		Type:        TypeSoftRain,
	},
	{
		ID:          "storm-deep",
		Name:        "Deep Thunderstorm",
		Description: "Heavy thunder, rolling clouds, cinematic feel.",
		Pro:         true,
		Type:        TypeDistantThunder,
	},
	{
		ID:          "forest-night",
		Name:        "Night Forest",
		Description: "Crickets, wind through trees, distant owls.",
		Pro:         true,
		Type:        TypeRoomTone,
	},
	{
		ID:          "fireplace",
		Name:        "Cozy Fireplace",
		Description: "Crackling fire with soft room tone.",
		Type:        TypeRoomTone,
	},
	{
		ID:          "window-rain",
		Name:        "Window Rain",
		Description: "Rain hitting windows, cozy indoor feel.",
		Type:        TypeWindowRain,
	},
}

// PackByID looks up a catalog pack
func PackByID(id string) (AmbiencePack, bool) {
	for _, p := range Packs {
		if p.ID == id {
			return p, true
		}
	}
	return AmbiencePack{}, false
}

// SelectablePacks returns the packs usable under the entitlement, in catalog order
func SelectablePacks(e Entitlement) []AmbiencePack {
	var packs []AmbiencePack
	for _, p := range Packs {
		if p.SelectableBy(e) {
			packs = append(packs, p)
		}
	}
	return packs
}

// CategoryForPackType resolves an ambience type to its content category
func CategoryForPackType(t string) ContentCategory {
	switch t {
	case TypeDistantThunder:
		return CategoryLowFrequencyHeavy
	default:
		return CategoryAmbient
	}
}

// LayerFromPack builds an enabled layer for a catalog pack.
// volumePercent and warmth are the 0..100 user controls.
func LayerFromPack(id string, pack AmbiencePack, asset AudioAssetRef, volumePercent, warmth float64) LayerSpec {
	w := warmth
	return LayerSpec{
		ID:       id,
		PackID:   pack.ID,
		Asset:    asset,
		Enabled:  true,
		Volume:   volume.Volume(volumePercent / 100),
		Warmth:   &w,
		Category: pack.Category(),
	}
}
