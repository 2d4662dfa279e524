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

// Package audiotest provides in-memory audio lines for testing code that
// captures or plays PCM audio without touching a real device.
package audiotest

import (
	"sync"
	"time"

	"github.com/nlpodyssey/linguavoce/audio"
)

// Opener is an in-memory audio.LineOpener. Capture lines serve the chunks
// of Script in order, then keep producing silence at a microphone-like pace
// until closed.
type Opener struct {
	Script          [][]byte
	OpenCaptureErr  error
	OpenPlaybackErr error

	mu        sync.Mutex
	captures  []*CaptureLine
	playbacks []*PlaybackLine
	closed    bool
}

func NewOpener(script ...[]byte) *Opener {
	return &Opener{Script: script}
}

func (o *Opener) OpenCapture(f audio.Format, chunk time.Duration) (audio.CaptureLine, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenCaptureErr != nil {
		return nil, o.OpenCaptureErr
	}
	l := &CaptureLine{
		script:    o.Script,
		chunkSize: f.ChunkBytes(chunk),
		closed:    make(chan struct{}),
	}
	o.captures = append(o.captures, l)
	return l, nil
}

func (o *Opener) OpenPlayback(audio.Format) (audio.PlaybackLine, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenPlaybackErr != nil {
		return nil, o.OpenPlaybackErr
	}
	l := &PlaybackLine{}
	o.playbacks = append(o.playbacks, l)
	return l, nil
}

func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *Opener) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Capture returns the most recently opened capture line, or nil.
func (o *Opener) Capture() *CaptureLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.captures) == 0 {
		return nil
	}
	return o.captures[len(o.captures)-1]
}

// Playback returns the most recently opened playback line, or nil.
func (o *Opener) Playback() *PlaybackLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.playbacks) == 0 {
		return nil
	}
	return o.playbacks[len(o.playbacks)-1]
}

type CaptureLine struct {
	mu        sync.Mutex
	script    [][]byte
	pos       int
	reads     int
	chunkSize int
	closed    chan struct{}
	closeOnce sync.Once
}

func (l *CaptureLine) Read() ([]byte, error) {
	select {
	case <-l.closed:
		return nil, audio.ErrLineClosed
	default:
	}

	l.mu.Lock()
	l.reads++
	if l.pos < len(l.script) {
		chunk := l.script[l.pos]
		l.pos++
		l.mu.Unlock()
		out := make([]byte, len(chunk))
		copy(out, chunk)
		return out, nil
	}
	size := l.chunkSize
	l.mu.Unlock()

	// Script exhausted: behave like an open microphone picking up silence.
	select {
	case <-l.closed:
		return nil, audio.ErrLineClosed
	case <-time.After(5 * time.Millisecond):
		return make([]byte, size), nil
	}
}

// Close unblocks any pending Read.
func (l *CaptureLine) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *CaptureLine) Closed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

func (l *CaptureLine) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

type PlaybackLine struct {
	WriteErr error

	mu      sync.Mutex
	writes  [][]byte
	flushes int
	closed  bool
}

func (l *PlaybackLine) Write(pcm []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return audio.ErrLineClosed
	}
	if l.WriteErr != nil {
		return l.WriteErr
	}
	chunk := make([]byte, len(pcm))
	copy(chunk, pcm)
	l.writes = append(l.writes, chunk)
	return nil
}

func (l *PlaybackLine) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushes++
	return nil
}

func (l *PlaybackLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *PlaybackLine) Writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.writes))
	copy(out, l.writes)
	return out
}

func (l *PlaybackLine) Flushes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushes
}

func (l *PlaybackLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
