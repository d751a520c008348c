package oto_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/voltlane/voltlane/oto"
)

type recordingSink struct {
	written []float32
	calls   int
}

func (s *recordingSink) WriteAudio(buffer []float32) error {
	s.written = append(s.written, buffer...)
	s.calls++
	return nil
}

func (s *recordingSink) Close() error { return nil }

func TestFloatBufferTo16BitLE(t *testing.T) {
	b := oto.FloatBufferTo16BitLE([]float32{0, 1, -2, 0.5}, nil)
	if len(b) != 8 {
		t.Fatalf("got %v bytes, expected 8", len(b))
	}
	expected := []int16{0, 32767, -32767, 16384}
	for i, e := range expected {
		if got := int16(binary.LittleEndian.Uint16(b[2*i:])); got != e {
			t.Fatalf("sample %v: got %v, expected %v", i, got, e)
		}
	}
}

func TestPlayInterleavesInBlocks(t *testing.T) {
	sink := &recordingSink{}
	mono := []float32{0.1, 0.2, 0.3, 0.4, 0.5}
	if err := oto.Play(context.Background(), sink, mono, 2); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if sink.calls != 3 {
		t.Fatalf("got %v writes, expected 3", sink.calls)
	}
	for i, v := range mono {
		if sink.written[2*i] != v || sink.written[2*i+1] != v {
			t.Fatalf("frame %v: got %v/%v, expected %v", i, sink.written[2*i], sink.written[2*i+1], v)
		}
	}
}

func TestPlayStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}
	if err := oto.Play(ctx, sink, make([]float32, 100), 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, expected %v", err, context.Canceled)
	}
	if sink.calls != 0 {
		t.Fatalf("cancelled play wrote %v blocks", sink.calls)
	}
}
