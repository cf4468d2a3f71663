package ambimix

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrDeviceNotSupported is returned when the requested device is not supported
	ErrDeviceNotSupported = errors.New("device not supported")
)

// Names of the registered output devices
const (
	pulseaudioName = "pulseaudio"
	nullName       = "null"
)

// ChunkFunc defines the callback for when a chunk has been handed to the device
type ChunkFunc func(deviceKind Kind, chunk *PremixData)

// Device is an interface to output device operations
type Device interface {
	Name() string
	Kind() Kind
	Play(in <-chan *PremixData) error
	PlayWithCtx(ctx context.Context, in <-chan *PremixData) error
	Close()
}

type createOutputDeviceFunc func(settings DeviceSettings) (Device, error)

type deviceDetails struct {
	create createOutputDeviceFunc
}

// GetKind returns the kind for the passed in device
func GetKind(d Device) Kind {
	if d == nil {
		return KindNone
	}
	return d.Kind()
}

var (
	// Map is the mapping of device name to device details
	Map = make(map[string]deviceDetails)
)

// DeviceNames returns the names of the registered output devices
func DeviceNames() []string {
	names := make([]string, 0, len(Map))
	for name := range Map {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateOutputDevice creates an output device based on the provided settings
func CreateOutputDevice(settings DeviceSettings) (Device, error) {
	if details, ok := Map[settings.Name]; ok && details.create != nil {
		dev, err := details.create(settings)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}

	return nil, errors.Wrap(ErrDeviceNotSupported, settings.Name)
}

type device struct {
	kind          Kind
	onChunkOutput ChunkFunc
}

// Kind returns the kind of the device
func (d *device) Kind() Kind {
	return d.kind
}

func (d *device) chunkOutput(chunk *PremixData) {
	if d.onChunkOutput != nil {
		d.onChunkOutput(d.kind, chunk)
	}
}

// DeviceSettings is the settings for configuring an output device
type DeviceSettings struct {
	Name             string
	Channels         int
	SamplesPerSecond int
	BitsPerSample    int
	OnChunkOutput    ChunkFunc
}
