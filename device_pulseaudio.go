//go:build linux || pulseaudio

package ambimix

import (
	"context"

	"github.com/gotracker/gomixing/mixing"
	"github.com/pkg/errors"

	"github.com/gotracker/ambimix/internal/pulseaudio"
)

// pulseaudioBitsPerSample matches the s16le stream the client opens
const pulseaudioBitsPerSample = 16

type pulseaudioDevice struct {
	device
	mix      mixing.Mixer
	panmixer mixing.PanMixer
	pa       *pulseaudio.Client
}

func newPulseAudioDevice(settings DeviceSettings) (Device, error) {
	d := pulseaudioDevice{
		device: device{
			kind:          KindSoundCard,
			onChunkOutput: settings.OnChunkOutput,
		},
		mix: mixing.Mixer{
			Channels:      settings.Channels,
			BitsPerSample: pulseaudioBitsPerSample,
		},
		panmixer: mixing.GetPanMixer(settings.Channels),
	}
	if d.panmixer == nil {
		return nil, errors.New("invalid pan mixer - check channel count")
	}

	play, err := pulseaudio.New("ambimix preview", settings.SamplesPerSecond, settings.Channels)
	if err != nil {
		return nil, err
	}

	d.pa = play
	return &d, nil
}

// Name returns the device name
func (d *pulseaudioDevice) Name() string {
	return pulseaudioName
}

// Play starts the device playing
func (d *pulseaudioDevice) Play(in <-chan *PremixData) error {
	return d.PlayWithCtx(context.Background(), in)
}

// PlayWithCtx plays chunks until in is closed or ctx is done, then drains the stream
func (d *pulseaudioDevice) PlayWithCtx(ctx context.Context, in <-chan *PremixData) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				return d.pa.Drain()
			}
			mixedData := d.mix.Flatten(d.panmixer, chunk.SamplesLen, chunk.ChannelData())
			d.pa.Output(mixedData)
			d.chunkOutput(chunk)
		}
	}
}

// Close closes the device
func (d *pulseaudioDevice) Close() {
	if d.pa != nil {
		d.pa.Close()
	}
}

func init() {
	Map[pulseaudioName] = deviceDetails{
		create: newPulseAudioDevice,
	}
}
