package voltlane

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Wav encodes a mono render as a stereo .wav file, duplicating the signal
// into both channels. If pcm16 = true, samples are quantized to 16-bit
// integers; otherwise they are stored as float32.
func Wav(buffer []float32, sampleRate uint32, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	stereo := make([]float32, 2*len(buffer))
	for i, v := range buffer {
		stereo[2*i] = v
		stereo[2*i+1] = v
	}
	wavHeader(len(stereo), sampleRate, pcm16, buf)
	if err := rawToBuffer(stereo, pcm16, buf); err != nil {
		return nil, fmt.Errorf("Wav failed: %v", err)
	}
	return buf.Bytes(), nil
}

// Raw encodes the buffer without a header, in little endian.
func Raw(buffer []float32, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := rawToBuffer(buffer, pcm16, buf); err != nil {
		return nil, fmt.Errorf("Raw failed: %v", err)
	}
	return buf.Bytes(), nil
}

// QuantizePCM16 converts a sample to a signed 16-bit value, clamping to
// [-1, 1] first.
func QuantizePCM16(v float32) int16 {
	return int16(clamp(int(math.Round(float64(v)*math.MaxInt16)), -math.MaxInt16, math.MaxInt16))
}

func rawToBuffer(data []float32, pcm16 bool, buf *bytes.Buffer) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(data))
		for i, v := range data {
			int16data[i] = QuantizePCM16(v)
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, data)
	}
	if err != nil {
		return fmt.Errorf("could not binary write data to binary buffer: %v", err)
	}
	return nil
}

// wavHeader writes a stereo wave header for either float32 or int16 data.
// bufferLength counts interleaved samples (L + R).
func wavHeader(bufferLength int, sampleRate uint32, pcm16 bool, buf *bytes.Buffer) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const numChannels = 2
	var bytesPerSample, chunkSize, fmtChunkSize, waveFormat int
	var factChunk bool
	if pcm16 {
		bytesPerSample = 2
		chunkSize = 36 + bytesPerSample*bufferLength
		fmtChunkSize = 16
		waveFormat = 1 // PCM
	} else {
		bytesPerSample = 4
		chunkSize = 50 + bytesPerSample*bufferLength
		fmtChunkSize = 18
		waveFormat = 3 // IEEE float
		factChunk = true
	}
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(chunkSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	binary.Write(buf, binary.LittleEndian, uint16(waveFormat))
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, sampleRate)
	binary.Write(buf, binary.LittleEndian, sampleRate*uint32(numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	if fmtChunkSize > 16 {
		binary.Write(buf, binary.LittleEndian, uint16(0)) // size of extension
	}
	if factChunk {
		buf.Write([]byte("fact"))
		binary.Write(buf, binary.LittleEndian, uint32(4))              // fact chunk size
		binary.Write(buf, binary.LittleEndian, uint32(bufferLength/2)) // frames
	}
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(bytesPerSample*bufferLength))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
