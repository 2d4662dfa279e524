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
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/linguavoce/asyncqueue"
	"github.com/nlpodyssey/linguavoce/asynctask"
)

const (
	transportHandshakeTimeout  = 10 * time.Second
	transportCloseDrainTimeout = 2 * time.Second
)

type transportOutValue interface {
	isTransportOutValue()
}

type transportControlFrame struct{ v any }
type transportAudioFrame []byte
type transportCloseSentinel struct{}

func (transportControlFrame) isTransportOutValue()  {}
func (transportAudioFrame) isTransportOutValue()    {}
func (transportCloseSentinel) isTransportOutValue() {}

// transport owns one WebSocket connection. All outbound frames funnel
// through an unbounded queue drained by a single writer task, so senders
// never block on the network and writes never interleave.
type transport struct {
	conn       *websocket.Conn
	outQueue   *asyncqueue.Queue[transportOutValue]
	writerTask *asynctask.TaskNoValue
	closed     atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

func dialTransport(ctx context.Context, wsURL string, header http.Header) (*transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: transportHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection error (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection error: %w", err)
	}

	t := &transport{
		conn:     conn,
		outQueue: asyncqueue.New[transportOutValue](),
	}
	t.writerTask = asynctask.CreateTaskNoValue(context.WithoutCancel(ctx), t.writeLoop)
	return t, nil
}

func (t *transport) writeLoop(context.Context) error {
	for {
		switch v := t.outQueue.Get().(type) {
		case transportCloseSentinel:
			return nil
		case transportControlFrame:
			if err := t.conn.WriteJSON(v.v); err != nil {
				return t.writeFailed(err)
			}
		case transportAudioFrame:
			if err := t.conn.WriteMessage(websocket.BinaryMessage, []byte(v)); err != nil {
				return t.writeFailed(err)
			}
		default:
			// This would be an unrecoverable implementation bug, so a panic is appropriate.
			panic(fmt.Errorf("unexpected transportOutValue type %T", v))
		}
	}
}

// writeFailed marks the transport closed so subsequent sends fail fast.
func (t *transport) writeFailed(err error) error {
	t.closed.Store(true)
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return nil
	}
	return fmt.Errorf("websocket write error: %w", err)
}

// SendControl queues a JSON control frame. It never blocks on the network.
func (t *transport) SendControl(v any) error {
	if t.closed.Load() {
		return NewSendError("send on closed transport")
	}
	t.outQueue.Put(transportControlFrame{v: v})
	return nil
}

// SendAudio queues a binary audio frame. It never blocks on the network.
func (t *transport) SendAudio(pcm []byte) error {
	if t.closed.Load() {
		return NewSendError("send on closed transport")
	}
	t.outQueue.Put(transportAudioFrame(pcm))
	return nil
}

func (t *transport) ReadMessage() (int, []byte, error) {
	return t.conn.ReadMessage()
}

func (t *transport) Closed() bool {
	return t.closed.Load()
}

// Close is idempotent. Frames queued before Close are still flushed, under
// a short drain deadline, then the connection is torn down. Pending sends
// issued after Close fail fast with a SendError.
func (t *transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)

		// Let already queued frames drain first, but never wait on a dead
		// peer longer than the drain deadline.
		deadline := time.Now().Add(transportCloseDrainTimeout)
		_ = t.conn.SetWriteDeadline(deadline)
		t.outQueue.Put(transportCloseSentinel{})
		writerErr := t.writerTask.Await().Error

		// Best-effort close handshake; the peer may already be gone.
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

		err := t.conn.Close()
		if err != nil {
			err = fmt.Errorf("error closing websocket connection: %w", err)
		}
		t.closeErr = errors.Join(writerErr, err)
	})
	return t.closeErr
}
