package voltlane

// AudioSink receives interleaved stereo float32 audio.
type AudioSink interface {
	WriteAudio(buffer []float32) error
	Close() error
}

// AudioContext opens sinks on an audio device.
type AudioContext interface {
	Output() AudioSink
	Close() error
}
