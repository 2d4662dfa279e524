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

import "time"

// Format describes a linear PCM stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is 16 kHz mono 16-bit linear PCM, the format spoken by the
// conversational voice providers supported out of the box.
var DefaultFormat = Format{
	SampleRate: 16000,
	Channels:   1,
	BitDepth:   16,
}

func (f Format) BytesPerSample() int {
	return f.BitDepth / 8 * f.Channels
}

func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerSample()
}

// ChunkSamples returns the number of samples covering duration d.
func (f Format) ChunkSamples(d time.Duration) int {
	return int(int64(f.SampleRate*f.Channels) * int64(d) / int64(time.Second))
}

// ChunkBytes returns the number of PCM bytes covering duration d.
func (f Format) ChunkBytes(d time.Duration) int {
	return f.ChunkSamples(d) * f.BitDepth / 8
}

// Duration returns the play time of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// Silence returns a zeroed PCM chunk covering duration d.
func Silence(f Format, d time.Duration) []byte {
	return make([]byte, f.ChunkBytes(d))
}
