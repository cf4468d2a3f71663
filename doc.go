// Package ambimix mixes a main recording with looping ambience layers and
// exports the result.
//
// A MixRequest is turned into a Graph by a GraphBuilder: every enabled layer
// becomes a looping SourceNode followed by an optional low-pass stage and a
// gain stage. A TransportController starts every source together and runs the
// audio clock that sums them on a MixBus. The CapturePipeline encodes the
// mixed chunks as Ogg Opus, FLAC or WAV, and the PreviewController plays them
// through an output device.
package ambimix
