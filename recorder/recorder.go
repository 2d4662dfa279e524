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

// Package recorder saves session audio as WAV files.
package recorder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/nlpodyssey/linguavoce/audio"
)

// Recorder streams linear PCM chunks into a WAV encoder as they arrive.
// Write errors are sticky and surfaced by Close, which also finalizes the
// WAV header. A Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	enc    *wav.Encoder
	format audio.Format
	bytes  int
	err    error
	closed bool
}

// NewRecorder writes WAV data to w. Both *os.File and
// util.WriteSeekerBuffer satisfy io.WriteSeeker.
func NewRecorder(w io.WriteSeeker, format audio.Format) *Recorder {
	return &Recorder{
		enc: wav.NewEncoder(
			w,
			format.SampleRate,
			format.BitDepth,
			format.Channels,
			1, // PCM
		),
		format: format,
	}
}

// Write appends one PCM chunk. It matches the engine's audio callback
// signature, so it can be wired directly as OnUserAudio or OnAgentAudio.
func (r *Recorder) Write(pcm []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	err := r.enc.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: r.format.Channels,
			SampleRate:  r.format.SampleRate,
		},
		Data:           audio.Int16FromBytes(pcm).Int(),
		SourceBitDepth: r.format.BitDepth,
	})
	if err != nil {
		r.err = fmt.Errorf("error writing WAV data: %w", err)
		return
	}
	r.bytes += len(pcm)
}

// Duration returns the play time of the audio recorded so far.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format.Duration(r.bytes)
}

// Close finalizes the WAV header. Further writes are discarded.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.err
	}
	r.closed = true
	if err := r.enc.Close(); err != nil {
		r.err = errors.Join(r.err, fmt.Errorf("error closing WAV encoder: %w", err))
	}
	return r.err
}

// SessionRecorder records both sides of a live session as two WAV files in
// dir, named <session>-user.wav and <session>-agent.wav. Wire OnUserAudio
// and OnAgentAudio as the session's audio callbacks and Close it after the
// session stops.
type SessionRecorder struct {
	user, agent         *Recorder
	userFile, agentFile *os.File
}

func NewSessionRecorder(dir, sessionID string, format audio.Format) (*SessionRecorder, error) {
	userFile, err := os.Create(filepath.Join(dir, sessionID+"-user.wav"))
	if err != nil {
		return nil, fmt.Errorf("error creating user track: %w", err)
	}
	agentFile, err := os.Create(filepath.Join(dir, sessionID+"-agent.wav"))
	if err != nil {
		_ = userFile.Close()
		return nil, fmt.Errorf("error creating agent track: %w", err)
	}
	return &SessionRecorder{
		user:      NewRecorder(userFile, format),
		agent:     NewRecorder(agentFile, format),
		userFile:  userFile,
		agentFile: agentFile,
	}, nil
}

func (s *SessionRecorder) OnUserAudio(pcm []byte)  { s.user.Write(pcm) }
func (s *SessionRecorder) OnAgentAudio(pcm []byte) { s.agent.Write(pcm) }

// UserDuration returns the play time of the user track recorded so far.
func (s *SessionRecorder) UserDuration() time.Duration { return s.user.Duration() }

// AgentDuration returns the play time of the agent track recorded so far.
func (s *SessionRecorder) AgentDuration() time.Duration { return s.agent.Duration() }

// Close finalizes both WAV headers and closes the files.
func (s *SessionRecorder) Close() error {
	err := errors.Join(s.user.Close(), s.agent.Close())
	return errors.Join(err, s.userFile.Close(), s.agentFile.Close())
}
