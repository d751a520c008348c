// Package oto plays rendered projects on the default audio device.
package oto

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/voltlane/voltlane"
)

// Context is an audio device opened at one sample rate. oto allows only one
// context per process.
type Context struct {
	ctx        *oto.Context
	sampleRate int
}

type Output struct {
	player    *oto.Player
	writer    *io.PipeWriter
	tmpBuffer []byte
}

const pollInterval = 10 * time.Millisecond

func NewContext(sampleRate int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }

// Output starts a player fed by the returned sink. Writes block until the
// device has consumed the previous audio.
func (c *Context) Output() voltlane.AudioSink {
	r, w := io.Pipe()
	player := c.ctx.NewPlayer(r)
	player.Play()
	return &Output{player: player, writer: w}
}

// Close suspends the device.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// WriteAudio queues interleaved stereo samples.
func (o *Output) WriteAudio(buffer []float32) error {
	o.tmpBuffer = FloatBufferTo16BitLE(buffer, o.tmpBuffer[:0])
	if _, err := o.writer.Write(o.tmpBuffer); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

// Close waits for the queued audio to finish and releases the player.
func (o *Output) Close() error {
	o.writer.Close()
	for o.player.IsPlaying() {
		time.Sleep(pollInterval)
	}
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// Play writes a mono render to the sink in blocks of blockFrames, duplicating
// it into both channels. It returns early with the context's error when ctx
// is cancelled.
func Play(ctx context.Context, sink voltlane.AudioSink, mono []float32, blockFrames int) error {
	if blockFrames <= 0 {
		blockFrames = 4096
	}
	stereo := make([]float32, 0, 2*blockFrames)
	for start := 0; start < len(mono); start += blockFrames {
		if err := ctx.Err(); err != nil {
			return err
		}
		stereo = Interleave(mono[start:min(start+blockFrames, len(mono))], stereo[:0])
		if err := sink.WriteAudio(stereo); err != nil {
			return err
		}
	}
	return nil
}
