// Package pulseaudio plays interleaved signed 16-bit little-endian audio through a PulseAudio server.
package pulseaudio

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/pkg/errors"
)

// queueLen is the number of buffers Output can queue ahead of the server
const queueLen = 8

// latency is the requested server-side buffering, in seconds
const latency = 0.1

// Client is a single playback stream
type Client struct {
	client *pulse.Client
	stream *pulse.PlaybackStream

	queue      chan []byte
	cur        []byte
	finishOnce sync.Once
}

// New connects to the server and starts an empty playback stream.
// Until Output is called the stream plays silence.
func New(name string, sampleRate, channels int) (*Client, error) {
	var layout pulse.PlaybackOption
	switch channels {
	case 1:
		layout = pulse.PlaybackMono
	case 2:
		layout = pulse.PlaybackStereo
	default:
		return nil, errors.Errorf("unsupported channel count %d", channels)
	}

	c := &Client{
		queue: make(chan []byte, queueLen),
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName(name))
	if err != nil {
		return nil, errors.Wrap(err, "connect to pulseaudio")
	}
	stream, err := client.NewPlayback(pulse.NewReader(c, proto.FormatInt16LE),
		pulse.PlaybackSampleRate(sampleRate),
		layout,
		pulse.PlaybackLatency(latency),
	)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "create playback stream")
	}

	c.client = client
	c.stream = stream
	c.stream.Start()
	return c, nil
}

// Read is called by the client's goroutine whenever the server wants more data
func (c *Client) Read(out []byte) (int, error) {
	n := 0
	for n < len(out) {
		if len(c.cur) == 0 {
			select {
			case buf, ok := <-c.queue:
				if !ok {
					if n == 0 {
						return 0, pulse.EndOfData
					}
					return n, nil
				}
				c.cur = buf
				continue
			default:
				// underrun
				for i := n; i < len(out); i++ {
					out[i] = 0
				}
				return len(out), nil
			}
		}
		m := copy(out[n:], c.cur)
		c.cur = c.cur[m:]
		n += m
	}
	return n, nil
}

// Output queues interleaved PCM, blocking while the queue is full
func (c *Client) Output(data []byte) {
	c.queue <- data
}

// Drain marks the end of the data and waits for the stream to play it out
func (c *Client) Drain() error {
	c.finishOnce.Do(func() {
		close(c.queue)
	})
	c.stream.Drain()
	if err := c.stream.Error(); err != nil && err != pulse.EndOfData {
		return err
	}
	return nil
}

// Close stops playback and disconnects
func (c *Client) Close() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
}
