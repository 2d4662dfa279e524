// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build portaudio

package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

// playbackBufferDuration sizes the device write buffer.
const playbackBufferDuration = 100 * time.Millisecond

// PortAudioLines opens capture and playback lines on the default PortAudio
// devices. NewPortAudioLines initializes the PortAudio runtime; Close
// terminates it, so keep a single instance per process.
type PortAudioLines struct{}

func NewPortAudioLines() (*PortAudioLines, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing portaudio: %w", err)
	}
	return &PortAudioLines{}, nil
}

func (*PortAudioLines) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("error terminating portaudio: %w", err)
	}
	return nil
}

func (*PortAudioLines) OpenCapture(f Format, chunk time.Duration) (CaptureLine, error) {
	c := &portAudioCapture{
		data: make([]int16, f.ChunkSamples(chunk)),
	}
	stream, err := portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), len(c.data), &c.data)
	if err != nil {
		return nil, fmt.Errorf("error opening audio input stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

func (*PortAudioLines) OpenPlayback(f Format) (PlaybackLine, error) {
	out := make([]int16, f.ChunkSamples(playbackBufferDuration))
	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), len(out), &out)
	if err != nil {
		return nil, fmt.Errorf("error opening audio output stream: %w", err)
	}
	return &portAudioPlayback{
		out:       out,
		remainder: make([]int16, 0, len(out)),
		stream:    stream,
	}, nil
}

type portAudioCapture struct {
	data    []int16
	stream  *portaudio.Stream
	started bool
	closed  atomic.Bool
}

func (c *portAudioCapture) Read() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrLineClosed
	}
	if !c.started {
		if err := c.stream.Start(); err != nil {
			return nil, fmt.Errorf("error starting audio input stream: %w", err)
		}
		c.started = true
	}
	if err := c.stream.Read(); err != nil {
		if c.closed.Load() {
			return nil, ErrLineClosed
		}
		return nil, fmt.Errorf("error reading audio input stream: %w", err)
	}
	return DataInt16(c.data).Bytes(), nil
}

// Close aborts the stream so a blocked Read returns promptly.
func (c *portAudioCapture) Close() (err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.started {
		if e := c.stream.Abort(); e != nil {
			err = errors.Join(err, fmt.Errorf("error aborting audio input stream: %w", e))
		}
	}
	if e := c.stream.Close(); e != nil {
		err = errors.Join(err, fmt.Errorf("error closing audio input stream: %w", e))
	}
	return err
}

type portAudioPlayback struct {
	out       []int16
	remainder []int16
	stream    *portaudio.Stream
	started   bool
	closed    bool
}

func (p *portAudioPlayback) Write(pcm []byte) error {
	if p.closed {
		return ErrLineClosed
	}
	buffer := []int16(Int16FromBytes(pcm))
	if len(buffer) == 0 {
		return nil
	}

	if !p.started {
		if err := p.stream.Start(); err != nil {
			return fmt.Errorf("error starting audio output stream: %w", err)
		}
		p.started = true
	}

	// Combine any remainder from previous calls with the new buffer.
	if len(p.remainder) > 0 {
		buffer = append(p.remainder, buffer...)
		p.remainder = p.remainder[:0]
	}

	for chunk := range slices.Chunk(buffer, len(p.out)) {
		if len(chunk) < len(p.out) {
			// Keep the partial chunk for the next call.
			p.remainder = p.remainder[:len(chunk)]
			copy(p.remainder, chunk)
			break
		}
		copy(p.out, chunk)
		if err := p.stream.Write(); err != nil {
			if errors.Is(err, portaudio.OutputUnderflowed) {
				slog.Debug("Audio output underflowed", slog.String("error", err.Error()))
				continue
			}
			return fmt.Errorf("error writing audio output stream: %w", err)
		}
	}
	return nil
}

func (p *portAudioPlayback) Flush() error {
	if p.closed || len(p.remainder) == 0 || !p.started {
		return nil
	}
	// Pad the remainder with zeros to fill the device buffer.
	copy(p.out[:len(p.remainder)], p.remainder)
	clear(p.out[len(p.remainder):])
	p.remainder = p.remainder[:0]

	if err := p.stream.Write(); err != nil {
		if errors.Is(err, portaudio.OutputUnderflowed) {
			slog.Debug("Audio output underflowed", slog.String("error", err.Error()))
			return nil
		}
		return fmt.Errorf("error flushing audio output stream: %w", err)
	}
	return nil
}

func (p *portAudioPlayback) Close() (err error) {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.started {
		if e := p.stream.Stop(); e != nil {
			err = errors.Join(err, fmt.Errorf("error stopping audio output stream: %w", e))
		}
	}
	if e := p.stream.Close(); e != nil {
		err = errors.Join(err, fmt.Errorf("error closing audio output stream: %w", e))
	}
	return err
}
