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

package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nlpodyssey/linguavoce/audio"
)

// capturePipeline reads microphone chunks and hands them to the session.
// While the gate is closed (push-to-talk released, or the session not yet
// ready) it idles on a short poll instead of reading, so no stale audio
// accumulates in the device buffer.
type capturePipeline struct {
	line          audio.CaptureLine
	mode          CaptureMode
	state         *connectionState
	capturing     *atomic.Bool
	agentSpeaking *atomic.Bool
	stopping      *atomic.Bool
	send          func(pcm []byte) error
	deliver       func(pcm []byte)
}

func (c *capturePipeline) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !c.gateOpen() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(capturePollInterval):
			}
			continue
		}

		chunk, err := c.line.Read()
		if err != nil {
			if ctx.Err() != nil || c.stopping.Load() || errors.Is(err, audio.ErrLineClosed) {
				return nil
			}
			return fmt.Errorf("error reading capture line: %w", err)
		}

		// In push-to-talk mode the speaker output can bleed into the
		// microphone; suppress uplink while the agent is talking.
		if c.mode == PushToTalk && c.agentSpeaking.Load() {
			continue
		}

		if err := c.send(chunk); err != nil {
			// The transport is gone; the read loop owns recovery and the
			// gate closes as soon as the state leaves Ready.
			Logger().Debug("Audio send failed", slog.String("error", err.Error()))
			continue
		}
		c.deliver(chunk)
	}
}

func (c *capturePipeline) gateOpen() bool {
	if c.state.Load() != StateReady {
		return false
	}
	return c.mode == Continuous || c.capturing.Load()
}
