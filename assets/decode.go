// Package assets decodes audio sources, computes waveform peaks with an
// on-disk cache, and scans directories for importable audio files.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/voltlane/voltlane"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

const streamChunk = 4096

// FileDecoder decodes audio files from the local file system.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (voltlane.DecodedAudio, error) {
	return Decode(path)
}

// Decode reads a wav, mp3, flac or ogg vorbis file and mixes it down to
// mono.
func Decode(path string) (voltlane.DecodedAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return voltlane.DecodedAudio{}, fmt.Errorf("could not open audio file %v: %w", path, err)
	}
	defer f.Close()
	var stream beep.StreamSeekCloser
	var format beep.Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	default:
		return voltlane.DecodedAudio{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return voltlane.DecodedAudio{}, fmt.Errorf("could not decode audio file %v: %w", path, err)
	}
	defer stream.Close()
	samples := make([]float32, 0, max(stream.Len(), 0))
	buf := make([][2]float64, streamChunk)
	for {
		n, ok := stream.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples, float32((frame[0]+frame[1])/2))
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return voltlane.DecodedAudio{}, fmt.Errorf("error while decoding %v: %w", path, err)
	}
	return voltlane.DecodedAudio{
		SampleRate: uint32(format.SampleRate),
		Channels:   uint16(format.NumChannels),
		Samples:    samples,
	}, nil
}
