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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/linguavoce/asyncqueue"
	"github.com/nlpodyssey/linguavoce/asynctask"
	"github.com/nlpodyssey/linguavoce/audio"
)

const (
	captureChunkDuration    = 100 * time.Millisecond
	capturePollInterval     = 20 * time.Millisecond
	playbackPrebufferChunks = 3
	keepAliveInterval       = 8 * time.Second
	keepAliveSilence        = 100 * time.Millisecond
	connectAttempts         = 3
	connectBackoffStep      = 2 * time.Second
	reconnectLimit          = 3
	readyTimeout            = 10 * time.Second
)

// EngineParams configures an Engine.
type EngineParams struct {
	// Provider implements the remote conversational-agent wire protocol.
	// Required.
	Provider Provider

	// Lines opens capture and playback audio lines. Required.
	Lines audio.LineOpener

	// Format is the PCM format for both directions.
	// Defaults to audio.DefaultFormat.
	Format audio.Format

	// ConnectAttempts is the number of WebSocket dial attempts per
	// connection, with linearly increasing backoff between them.
	// Defaults to 3.
	ConnectAttempts int

	// ReconnectLimit is the number of automatic reconnections allowed per
	// session after the connection drops. Defaults to 3.
	// A negative value disables automatic reconnection.
	ReconnectLimit int

	// KeepAliveInterval is how long the uplink may stay silent before a
	// keep-alive is sent. Defaults to 8 seconds.
	KeepAliveInterval time.Duration

	// PrebufferChunks is the number of audio chunks withheld at the start
	// of each agent utterance before playback begins. Defaults to 3.
	PrebufferChunks int

	// CaptureChunk is the duration of each captured audio chunk.
	// Defaults to 100ms.
	CaptureChunk time.Duration

	// ReadyTimeout bounds the wait for the provider to acknowledge the
	// session settings. Defaults to 10 seconds.
	ReadyTimeout time.Duration
}

// Engine drives live voice conversations with a remote agent: it owns the
// WebSocket connection, the microphone capture pipeline and the speaker
// playback pipeline, and reduces the provider's wire protocol to normalized
// events. An Engine runs at most one session at a time and can be reused
// for consecutive sessions.
type Engine struct {
	provider          Provider
	lines             audio.LineOpener
	format            audio.Format
	connectAttempts   int
	reconnectLimit    int
	keepAliveInterval time.Duration
	prebufferChunks   int
	captureChunk      time.Duration
	readyTimeout      time.Duration

	state connectionState
	stats atomic.Pointer[SessionStats]

	mu   sync.Mutex // guards sess and transport swaps
	sess *session

	closeOnce sync.Once
	closeErr  error
}

// NewEngine creates a new Engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Provider == nil {
		return nil, NewSetupError("engine params: Provider must not be nil")
	}
	if params.Lines == nil {
		return nil, NewSetupError("engine params: Lines must not be nil")
	}
	format := params.Format
	if format == (audio.Format{}) {
		format = audio.DefaultFormat
	}
	reconnects := cmp.Or(params.ReconnectLimit, reconnectLimit)
	if params.ReconnectLimit < 0 {
		reconnects = 0
	}
	e := &Engine{
		provider:          params.Provider,
		lines:             params.Lines,
		format:            format,
		connectAttempts:   cmp.Or(params.ConnectAttempts, connectAttempts),
		reconnectLimit:    reconnects,
		keepAliveInterval: cmp.Or(params.KeepAliveInterval, keepAliveInterval),
		prebufferChunks:   cmp.Or(params.PrebufferChunks, playbackPrebufferChunks),
		captureChunk:      cmp.Or(params.CaptureChunk, captureChunkDuration),
		readyTimeout:      cmp.Or(params.ReadyTimeout, readyTimeout),
	}
	e.stats.Store(new(SessionStats))
	return e, nil
}

// session holds everything owned by one Start/Stop cycle.
type session struct {
	id     string
	params SessionParams
	stats  *SessionStats

	transport    *transport // guarded by Engine.mu
	captureLine  audio.CaptureLine
	playbackLine audio.PlaybackLine
	playback     *playbackPipeline

	cancel context.CancelFunc
	tasks  asynctask.Group

	stateQueue *asyncqueue.Queue[Event]
	cbQueue    *asyncqueue.Queue[callbackValue]

	capturing     atomic.Bool
	agentSpeaking atomic.Bool
	stopping      atomic.Bool
	awaitingReady atomic.Bool
	lastAudioSent atomic.Int64 // unix nanoseconds of the last uplink audio
	reconnects    int          // guarded by Engine.mu
}

type callbackValue interface {
	isCallbackValue()
}

type callbackEvent struct{ event Event }
type callbackAgentAudio []byte
type callbackUserAudio []byte
type callbackStopSentinel struct{}

func (callbackEvent) isCallbackValue()        {}
func (callbackAgentAudio) isCallbackValue()   {}
func (callbackUserAudio) isCallbackValue()    {}
func (callbackStopSentinel) isCallbackValue() {}

func (s *session) emitEvent(ev Event) {
	if s.params.OnEvent != nil {
		s.cbQueue.Put(callbackEvent{event: ev})
	}
}

func (s *session) emitAgentAudio(pcm []byte) {
	if s.params.OnAgentAudio != nil {
		s.cbQueue.Put(callbackAgentAudio(pcm))
	}
}

func (s *session) emitUserAudio(pcm []byte) {
	if s.params.OnUserAudio != nil {
		s.cbQueue.Put(callbackUserAudio(pcm))
	}
}

// callbackPump invokes user callbacks from a single goroutine, in order,
// so slow callbacks never stall the read loop or the audio pipelines.
func (s *session) callbackPump(context.Context) error {
	for {
		switch v := s.cbQueue.Get().(type) {
		case callbackStopSentinel:
			return nil
		case callbackEvent:
			s.params.OnEvent(v.event)
		case callbackAgentAudio:
			s.params.OnAgentAudio(v)
		case callbackUserAudio:
			s.params.OnUserAudio(v)
		default:
			// This would be an unrecoverable implementation bug, so a panic is appropriate.
			panic(fmt.Errorf("unexpected callbackValue type %T", v))
		}
	}
}

// Start opens the audio lines, connects to the provider, applies the session
// settings and blocks until the provider acknowledges them. It returns the
// new session ID. Starting while a session is active fails with a StateError;
// any setup failure leaves the engine fully disconnected.
func (e *Engine) Start(ctx context.Context, params SessionParams) (_ string, err error) {
	if err = params.validate(); err != nil {
		return "", err
	}
	if !e.state.Transition(StateDisconnected, StateConnecting) {
		return "", StateErrorf("session already active (state %q)", e.state.Load())
	}

	sess := &session{
		id:         uuid.NewString(),
		params:     params,
		stats:      new(SessionStats),
		stateQueue: asyncqueue.New[Event](),
		cbQueue:    asyncqueue.New[callbackValue](),
	}
	e.stats.Store(sess.stats)

	defer func() {
		if err != nil {
			e.mu.Lock()
			if e.sess == sess {
				e.sess = nil
			}
			e.mu.Unlock()
			sess.stopping.Store(true)
			e.teardownSession(sess, true)
		}
	}()

	sess.captureLine, err = e.lines.OpenCapture(e.format, e.captureChunk)
	if err != nil {
		return "", SetupErrorf("error opening capture line: %w", err)
	}
	sess.playbackLine, err = e.lines.OpenPlayback(e.format)
	if err != nil {
		return "", SetupErrorf("error opening playback line: %w", err)
	}

	tr, err := e.connect(ctx, params)
	if err != nil {
		return "", err
	}
	sess.transport = tr
	sess.playback = newPlaybackPipeline(sess.playbackLine, e.prebufferChunks, sess.stats)
	e.state.Set(StateConnected)

	// Session goroutines outlive the Start call.
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess.cancel = cancel

	e.mu.Lock()
	e.sess = sess
	e.mu.Unlock()

	sess.awaitingReady.Store(true)
	e.startSessionTasks(taskCtx, sess)

	if err = e.awaitReady(sess); err != nil {
		return "", err
	}

	Logger().Info("Session started",
		slog.String("session_id", sess.id),
		slog.String("provider", e.provider.Name()),
		slog.String("mode", params.Mode.String()))
	return sess.id, nil
}

// connect builds the settings frame and the session URL, dials the provider
// with bounded retries, and sends the settings as the first frame.
func (e *Engine) connect(ctx context.Context, params SessionParams) (*transport, error) {
	settings, err := e.provider.SettingsFrame(params, e.format)
	if err != nil {
		return nil, SetupErrorf("error building settings frame: %w", err)
	}
	wsURL, header, err := e.provider.SessionURL(params)
	if err != nil {
		return nil, SetupErrorf("error building session URL: %w", err)
	}

	var tr *transport
	for attempt := 1; ; attempt++ {
		tr, err = dialTransport(ctx, wsURL, header)
		if err == nil {
			break
		}
		if attempt >= e.connectAttempts {
			return nil, ConnectionErrorf("connecting to %s failed after %d attempts: %w",
				e.provider.Name(), attempt, err)
		}
		backoff := time.Duration(attempt) * connectBackoffStep
		Logger().Warn("Connection attempt failed",
			slog.String("provider", e.provider.Name()),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ConnectionErrorf("connecting to %s canceled: %w", e.provider.Name(), ctx.Err())
		case <-time.After(backoff):
		}
	}

	if err = tr.SendControl(settings); err != nil {
		err = ConnectionErrorf("error sending settings frame: %w", err)
		if closeErr := tr.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	return tr, nil
}

func (e *Engine) startSessionTasks(ctx context.Context, sess *session) {
	capture := &capturePipeline{
		line:          sess.captureLine,
		mode:          sess.params.Mode,
		state:         &e.state,
		capturing:     &sess.capturing,
		agentSpeaking: &sess.agentSpeaking,
		stopping:      &sess.stopping,
		send:          func(pcm []byte) error { return e.sendUserAudio(sess, pcm) },
		deliver:       sess.emitUserAudio,
	}

	sess.tasks.Go(ctx, func(ctx context.Context) error { return e.readLoop(ctx, sess) })
	sess.tasks.Go(ctx, sess.playback.run)
	sess.tasks.Go(ctx, capture.run)
	sess.tasks.Go(ctx, func(ctx context.Context) error { return e.keepAliveLoop(ctx, sess) })
	sess.tasks.Go(ctx, sess.callbackPump)
}

// awaitReady blocks until the provider acknowledges the session settings,
// a provider error aborts the setup, or the ready timeout expires.
func (e *Engine) awaitReady(sess *session) error {
	defer sess.awaitingReady.Store(false)
	start := time.Now()
	for {
		remaining := e.readyTimeout - time.Since(start)
		if remaining <= 0 {
			return ConnectionErrorf("timeout waiting for %s session ready", e.provider.Name())
		}
		ev, ok := sess.stateQueue.GetTimeout(remaining)
		if !ok {
			continue
		}
		switch ev := ev.(type) {
		case EventReady:
			return nil
		case EventError:
			return ConnectionErrorf("provider error during session setup: %s (code %q)",
				ev.Description, ev.Code)
		default:
			continue
		}
	}
}

func (e *Engine) sessionTransport(sess *session) *transport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sess.transport
}

// sendUserAudio encodes one captured chunk the provider's way and sends it.
func (e *Engine) sendUserAudio(sess *session, pcm []byte) error {
	tr := e.sessionTransport(sess)
	if tr == nil {
		return NewSendError("no active transport")
	}
	control, binary := e.provider.AudioFrame(pcm)
	var err error
	if control != nil {
		err = tr.SendControl(control)
	} else {
		err = tr.SendAudio(binary)
	}
	if err != nil {
		return err
	}
	sess.lastAudioSent.Store(time.Now().UnixNano())
	sess.stats.AudioChunksSent.Add(1)
	sess.stats.AudioBytesSent.Add(uint64(len(pcm)))
	return nil
}

// readLoop consumes provider frames until the session stops or the
// connection drops beyond recovery.
func (e *Engine) readLoop(ctx context.Context, sess *session) error {
	tr := e.sessionTransport(sess)
	for {
		mt, data, err := tr.ReadMessage()
		if err != nil {
			if sess.stopping.Load() || ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				Logger().Info("Connection closed by provider", slog.String("session_id", sess.id))
				e.state.Set(StateDisconnected)
				go e.abortSession(sess)
				return nil
			}
			next, rerr := e.reconnect(ctx, sess, err)
			if rerr != nil {
				if !sess.stopping.Load() {
					Logger().Error("Session read loop terminated",
						slog.String("session_id", sess.id),
						slog.String("error", rerr.Error()))
					go e.abortSession(sess)
				}
				return nil
			}
			tr = next
			continue
		}

		switch mt {
		case websocket.BinaryMessage:
			e.handleAgentAudio(sess, data)
		case websocket.TextMessage:
			e.dispatchFrame(sess, data)
		default:
			// Control frames are handled by the WebSocket library.
		}
	}
}

// dispatchFrame decodes one provider frame and routes its contents.
// Malformed frames are counted and dropped; one bad frame must not end
// the conversation.
func (e *Engine) dispatchFrame(sess *session, data []byte) {
	frame, err := e.provider.DecodeServerFrame(data)
	if err != nil {
		sess.stats.FramesDropped.Add(1)
		if LogConversationData {
			Logger().Warn("Dropping undecodable provider frame",
				slog.String("error", err.Error()),
				slog.String("frame", string(data)))
		} else {
			Logger().Warn("Dropping undecodable provider frame", slog.String("error", err.Error()))
		}
		return
	}

	if len(frame.Audio) > 0 {
		e.handleAgentAudio(sess, frame.Audio)
	}
	if frame.ClearPlayback {
		sess.agentSpeaking.Store(false)
		sess.playback.reset()
	}
	if frame.Reply != nil {
		if tr := e.sessionTransport(sess); tr != nil {
			if err := tr.SendControl(frame.Reply); err != nil {
				Logger().Debug("Reply frame send failed", slog.String("error", err.Error()))
			}
		}
	}
	for _, ev := range frame.Events {
		e.handleEvent(sess, ev)
	}
}

func (e *Engine) handleAgentAudio(sess *session, pcm []byte) {
	sess.stats.AudioChunksReceived.Add(1)
	sess.stats.AudioBytesReceived.Add(uint64(len(pcm)))
	sess.playback.enqueue(pcm)
	sess.emitAgentAudio(pcm)
}

func (e *Engine) handleEvent(sess *session, ev Event) {
	sess.stats.EventsDispatched.Add(1)

	switch ev := ev.(type) {
	case EventReady:
		if e.state.Transition(StateConnected, StateReady) {
			Logger().Info("Session ready",
				slog.String("session_id", sess.id),
				slog.String("provider", e.provider.Name()))
		}
		if sess.awaitingReady.Load() {
			sess.stateQueue.Put(ev)
		}
	case EventAgentStartedSpeaking:
		sess.agentSpeaking.Store(true)
	case EventAgentAudioDone:
		sess.agentSpeaking.Store(false)
		sess.playback.turnEnd()
	case EventUserStartedSpeaking:
		// Barge-in: queued agent audio is stale the moment the user talks
		// over it.
		if sess.agentSpeaking.Load() {
			sess.agentSpeaking.Store(false)
			sess.playback.reset()
		}
	case EventError:
		if sess.awaitingReady.Load() {
			sess.stateQueue.Put(ev)
		}
		Logger().Warn("Provider error event",
			slog.String("code", ev.Code),
			slog.String("description", ev.Description))
	case EventWarning:
		Logger().Warn("Provider warning", slog.String("message", ev.Message))
	case EventConversationText:
		if LogConversationData {
			Logger().Debug("Conversation text",
				slog.String("role", string(ev.Role)),
				slog.Bool("final", ev.Final),
				slog.String("text", ev.Text))
		}
	case EventConnectionOpened:
		// Informational only.
	}

	sess.emitEvent(ev)
}

// keepAliveLoop keeps the connection warm while the uplink is silent, for
// example in push-to-talk mode with the talk key released.
func (e *Engine) keepAliveLoop(ctx context.Context, sess *session) error {
	ticker := time.NewTicker(e.keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if e.state.Load() != StateReady {
			continue
		}
		last := time.Unix(0, sess.lastAudioSent.Load())
		if time.Since(last) < e.keepAliveInterval {
			continue
		}

		var err error
		if frame := e.provider.KeepAliveFrame(); frame != nil {
			tr := e.sessionTransport(sess)
			if tr == nil {
				continue
			}
			if err = tr.SendControl(frame); err == nil {
				sess.lastAudioSent.Store(time.Now().UnixNano())
			}
		} else {
			err = e.sendUserAudio(sess, audio.Silence(e.format, keepAliveSilence))
		}
		if err != nil {
			Logger().Debug("Keep-alive send failed", slog.String("error", err.Error()))
			continue
		}
		sess.stats.KeepAlivesSent.Add(1)
	}
}

// reconnect tears down the broken transport and dials a new one with the
// retained session parameters, up to the per-session reconnect limit.
// It never runs concurrently with itself: only the read loop calls it.
func (e *Engine) reconnect(ctx context.Context, sess *session, cause error) (*transport, error) {
	e.state.Set(StateDisconnected)
	sess.agentSpeaking.Store(false)

	e.mu.Lock()
	old := sess.transport
	sess.transport = nil
	attempt := sess.reconnects + 1
	e.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	if sess.stopping.Load() {
		return nil, NewConnectionError("session is stopping")
	}
	if attempt > e.reconnectLimit {
		Logger().Error("Connection lost",
			slog.String("session_id", sess.id),
			slog.String("error", cause.Error()))
		sess.emitEvent(EventError{Code: "connection_lost", Description: cause.Error()})
		return nil, ConnectionErrorf("connection lost: %w", cause)
	}

	e.mu.Lock()
	sess.reconnects = attempt
	e.mu.Unlock()
	sess.stats.Reconnects.Add(1)

	Logger().Warn("Connection lost, reconnecting",
		slog.String("session_id", sess.id),
		slog.Int("attempt", attempt),
		slog.String("error", cause.Error()))
	sess.emitEvent(EventWarning{Message: fmt.Sprintf("connection lost, reconnecting: %v", cause)})

	if !e.state.Transition(StateDisconnected, StateConnecting) {
		return nil, NewConnectionError("engine state changed during reconnect")
	}

	tr, err := e.connect(ctx, sess.params)
	if err != nil {
		e.state.Set(StateDisconnected)
		sess.emitEvent(EventError{Code: "reconnect_failed", Description: err.Error()})
		return nil, err
	}

	e.mu.Lock()
	if sess.stopping.Load() {
		e.mu.Unlock()
		_ = tr.Close()
		return nil, NewConnectionError("session is stopping")
	}
	sess.transport = tr
	e.mu.Unlock()

	// Readiness is re-acknowledged through the regular frame flow; capture
	// stays gated until the state reaches Ready again.
	e.state.Set(StateConnected)
	return tr, nil
}

// Stop ends the active session: it stops capture, discards queued playback,
// sends the provider's stop frame best-effort, closes the transport and
// waits for every session goroutine to finish. Stopping an already stopped
// engine is a no-op. No callbacks are invoked after Stop returns; because
// Stop waits for in-flight callbacks, calling it from inside a callback
// deadlocks, so spawn a goroutine there instead.
func (e *Engine) Stop() error {
	e.mu.Lock()
	sess := e.sess
	e.sess = nil
	e.mu.Unlock()
	if sess == nil {
		return nil
	}
	if !sess.stopping.CompareAndSwap(false, true) {
		return nil
	}

	err := e.teardownSession(sess, true)
	Logger().Info("Session stopped", slog.String("session_id", sess.id))
	return err
}

// abortSession releases a session whose connection ended without a Stop
// call, so the microphone and the other session resources never outlive
// the conversation. Queued callbacks, including the terminal error event,
// are still delivered.
func (e *Engine) abortSession(sess *session) {
	e.mu.Lock()
	if e.sess == sess {
		e.sess = nil
	}
	e.mu.Unlock()
	if !sess.stopping.CompareAndSwap(false, true) {
		return
	}
	if err := e.teardownSession(sess, false); err != nil {
		Logger().Warn("Session abort teardown failed",
			slog.String("session_id", sess.id),
			slog.String("error", err.Error()))
	}
	Logger().Info("Session aborted", slog.String("session_id", sess.id))
}

// teardownSession releases everything a session holds. Every step runs even
// if an earlier one fails; failures are joined into the returned error.
// It tolerates partially initialized sessions. With discardCallbacks set,
// callbacks queued but not yet delivered are dropped instead of delivered.
func (e *Engine) teardownSession(sess *session, discardCallbacks bool) error {
	var errs []error

	// Close the capture gate first so no new audio enters the pipeline,
	// then unblock a pending device read.
	sess.capturing.Store(false)
	if sess.cancel != nil {
		sess.cancel()
	}
	if sess.captureLine != nil {
		if err := sess.captureLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing capture line: %w", err))
		}
	}

	if sess.playback != nil {
		sess.playback.stop()
	}

	e.mu.Lock()
	tr := sess.transport
	sess.transport = nil
	e.mu.Unlock()
	if tr != nil {
		if frame := e.provider.StopFrame(); frame != nil {
			// Best effort: the frame drains before the close handshake
			// because the transport writes strictly in order.
			if err := tr.SendControl(frame); err != nil {
				Logger().Debug("Stop frame send failed", slog.String("error", err.Error()))
			}
		}
		if err := tr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing transport: %w", err))
		}
	}

	// After an explicit Stop nothing may reach the user once it returns,
	// so pending callbacks are dropped.
	if discardCallbacks {
		sess.cbQueue.Clear()
	}
	sess.cbQueue.Put(callbackStopSentinel{})

	if err := sess.tasks.AwaitAll(); err != nil {
		errs = append(errs, err)
	}

	if sess.playbackLine != nil {
		if err := sess.playbackLine.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("error flushing playback line: %w", err))
		}
		if err := sess.playbackLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing playback line: %w", err))
		}
	}

	e.state.Set(StateDisconnected)

	for _, err := range errs {
		Logger().Warn("Session teardown issue",
			slog.String("session_id", sess.id),
			slog.String("error", err.Error()))
	}
	return errors.Join(errs...)
}

// StartCapture opens the push-to-talk gate. In continuous mode it is a
// no-op: capture is always on. It fails unless the session is Ready.
func (e *Engine) StartCapture() error {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess == nil {
		return NewStateError("no active session")
	}
	if sess.params.Mode == Continuous {
		return nil
	}
	if state := e.state.Load(); state != StateReady {
		return StateErrorf("cannot start capture in state %q", state)
	}
	sess.capturing.Store(true)
	return nil
}

// StopCapture closes the push-to-talk gate. Stopping capture is always
// safe, so it never fails: without a session there is nothing to stop.
func (e *Engine) StopCapture() error {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess != nil {
		sess.capturing.Store(false)
	}
	return nil
}

// IsActive reports whether a session is in progress, in any state past
// Disconnected.
func (e *Engine) IsActive() bool {
	return e.state.Load() != StateDisconnected
}

// State returns the current connection state.
func (e *Engine) State() ConnectionState {
	return e.state.Load()
}

// Stats returns a snapshot of the current session's counters, or of the
// most recent session if none is active.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Load().Snapshot()
}

// Close stops the active session, if any, and releases the audio system.
// The engine must not be used afterwards.
func (e *Engine) Close() error {
	err := e.Stop()
	e.closeOnce.Do(func() {
		e.closeErr = e.lines.Close()
	})
	return errors.Join(err, e.closeErr)
}
