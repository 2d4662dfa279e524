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
	"fmt"
	"log/slog"
	"time"

	"github.com/nlpodyssey/linguavoce/asyncqueue"
	"github.com/nlpodyssey/linguavoce/audio"
)

// prebufferFlushTimeout bounds how long held chunks may wait for the
// prebuffer to fill. Some providers never signal the end of an utterance,
// so a short tail would otherwise stay held until the session stops.
const prebufferFlushTimeout = 250 * time.Millisecond

type playbackQueueValue interface {
	isPlaybackQueueValue()
}

type playbackAudio []byte
type playbackTurnEnd struct{}
type playbackResetSentinel struct{}
type playbackStopSentinel struct{}

func (playbackAudio) isPlaybackQueueValue()         {}
func (playbackTurnEnd) isPlaybackQueueValue()       {}
func (playbackResetSentinel) isPlaybackQueueValue() {}
func (playbackStopSentinel) isPlaybackQueueValue()  {}

// playbackPipeline feeds synthesized audio to the playback line in arrival
// order. The queue is unbounded so the frame-reading loop never blocks; the
// consumer withholds the first chunks of each utterance until a small
// prebuffer is filled, to avoid stutter on jittery delivery.
type playbackPipeline struct {
	line      audio.PlaybackLine
	queue     *asyncqueue.Queue[playbackQueueValue]
	prebuffer int
	stats     *SessionStats
}

func newPlaybackPipeline(line audio.PlaybackLine, prebuffer int, stats *SessionStats) *playbackPipeline {
	return &playbackPipeline{
		line:      line,
		queue:     asyncqueue.New[playbackQueueValue](),
		prebuffer: prebuffer,
		stats:     stats,
	}
}

func (p *playbackPipeline) enqueue(pcm []byte) {
	p.queue.Put(playbackAudio(pcm))
}

// turnEnd marks the end of an agent utterance: held chunks are played even
// if the prebuffer never filled, and the next utterance prebuffers again.
func (p *playbackPipeline) turnEnd() {
	p.queue.Put(playbackTurnEnd{})
}

// reset discards all queued, unplayed audio (barge-in). Only call from the
// goroutine that also enqueues, so no chunk slips in behind the drain.
func (p *playbackPipeline) reset() {
	p.discardQueued()
	p.queue.Put(playbackResetSentinel{})
}

// stop discards queued audio and wakes the consumer for shutdown.
func (p *playbackPipeline) stop() {
	p.discardQueued()
	p.queue.Put(playbackStopSentinel{})
}

func (p *playbackPipeline) discardQueued() {
	n := 0
	for {
		v, ok := p.queue.GetNoWait()
		if !ok {
			break
		}
		if _, isAudio := v.(playbackAudio); isAudio {
			n++
		}
	}
	if n > 0 {
		p.stats.PlaybackDiscarded.Add(uint64(n))
	}
}

func (p *playbackPipeline) run(context.Context) error {
	hold := make([][]byte, 0, p.prebuffer)
	prebuffering := true

	for {
		var v playbackQueueValue
		if prebuffering && len(hold) > 0 {
			var ok bool
			v, ok = p.queue.GetTimeout(prebufferFlushTimeout)
			if !ok {
				// The provider went quiet mid-prebuffer; play the held
				// tail instead of sitting on it.
				hold = p.playHeld(hold)
				prebuffering = false
				continue
			}
		} else {
			v = p.queue.Get()
		}

		switch v := v.(type) {
		case playbackStopSentinel:
			return nil

		case playbackResetSentinel:
			hold = hold[:0]
			prebuffering = true

		case playbackTurnEnd:
			hold = p.playHeld(hold)
			prebuffering = true
			if err := p.line.Flush(); err != nil {
				p.writeFailed(err)
			}

		case playbackAudio:
			if !prebuffering {
				p.play(v)
				continue
			}
			hold = append(hold, v)
			if len(hold) >= p.prebuffer {
				hold = p.playHeld(hold)
				prebuffering = false
			}

		default:
			// This would be an unrecoverable implementation bug, so a panic is appropriate.
			panic(fmt.Errorf("unexpected playbackQueueValue type %T", v))
		}
	}
}

func (p *playbackPipeline) playHeld(hold [][]byte) [][]byte {
	for _, chunk := range hold {
		p.play(chunk)
	}
	return hold[:0]
}

// play tolerates device failures: a broken speaker must not wedge the
// session, so the error is counted and the chunk dropped.
func (p *playbackPipeline) play(pcm []byte) {
	if err := p.line.Write(pcm); err != nil {
		p.writeFailed(err)
	}
}

func (p *playbackPipeline) writeFailed(err error) {
	p.stats.PlaybackFailures.Add(1)
	Logger().Warn("Playback write failed", slog.String("error", err.Error()))
}
