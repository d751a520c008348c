package oto

import (
	"encoding/binary"

	"github.com/voltlane/voltlane"
)

// FloatBufferTo16BitLE appends the samples to dst as clamped 16-bit
// little-endian integers.
func FloatBufferTo16BitLE(buff []float32, dst []byte) []byte {
	for _, v := range buff {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(voltlane.QuantizePCM16(v)))
	}
	return dst
}

// Interleave appends each mono sample twice to dst.
func Interleave(mono []float32, dst []float32) []float32 {
	for _, v := range mono {
		dst = append(dst, v, v)
	}
	return dst
}
