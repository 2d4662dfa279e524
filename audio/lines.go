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

package audio

import (
	"errors"
	"time"
)

// ErrLineClosed is returned by line operations after Close.
var ErrLineClosed = errors.New("audio line is closed")

// CaptureLine is a source of microphone audio. Read blocks until one chunk
// of PCM bytes is available. Closing the line unblocks a pending Read.
type CaptureLine interface {
	Read() ([]byte, error)
	Close() error
}

// PlaybackLine is a sink for speaker audio. Write blocks until the device
// accepted the chunk. Flush pushes out any internally buffered partial data.
type PlaybackLine interface {
	Write(pcm []byte) error
	Flush() error
	Close() error
}

// LineOpener opens capture and playback lines on some audio backend.
// Close releases the backend itself.
type LineOpener interface {
	OpenCapture(f Format, chunk time.Duration) (CaptureLine, error)
	OpenPlayback(f Format) (PlaybackLine, error)
	Close() error
}
