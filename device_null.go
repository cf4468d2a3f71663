package ambimix

import (
	"context"
)

type nullDevice struct {
	device
}

func newNullDevice(settings DeviceSettings) (Device, error) {
	d := nullDevice{
		device: device{
			kind:          KindNull,
			onChunkOutput: settings.OnChunkOutput,
		},
	}
	return &d, nil
}

// Name returns the device name
func (d *nullDevice) Name() string {
	return nullName
}

// Play consumes chunks until in is closed
func (d *nullDevice) Play(in <-chan *PremixData) error {
	return d.PlayWithCtx(context.Background(), in)
}

// PlayWithCtx consumes chunks until in is closed or ctx is done
func (d *nullDevice) PlayWithCtx(ctx context.Context, in <-chan *PremixData) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-in:
			if !ok {
				return nil
			}
			d.chunkOutput(chunk)
		}
	}
}

// Close does nothing
func (d *nullDevice) Close() {}

func init() {
	Map[nullName] = deviceDetails{
		create: newNullDevice,
	}
}
