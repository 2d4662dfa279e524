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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportTestServer struct {
	srv      *httptest.Server
	messages chan transportTestMessage
	closes   chan error
}

type transportTestMessage struct {
	messageType int
	data        []byte
}

func newTransportTestServer(t *testing.T) *transportTestServer {
	s := &transportTestServer{
		messages: make(chan transportTestMessage, 64),
		closes:   make(chan error, 4),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				s.closes <- err
				return
			}
			s.messages <- transportTestMessage{messageType: mt, data: data}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *transportTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *transportTestServer) nextMessage(t *testing.T) transportTestMessage {
	select {
	case m := <-s.messages:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for a message")
		return transportTestMessage{}
	}
}

func TestTransportSendsFramesInOrder(t *testing.T) {
	s := newTransportTestServer(t)

	tr, err := dialTransport(t.Context(), s.url(), nil)
	require.NoError(t, err)
	defer tr.Close()

	require.NoError(t, tr.SendControl(map[string]string{"type": "settings"}))
	require.NoError(t, tr.SendAudio([]byte{1, 2, 3}))
	require.NoError(t, tr.SendControl(map[string]string{"type": "stop"}))

	m := s.nextMessage(t)
	assert.Equal(t, websocket.TextMessage, m.messageType)
	assert.JSONEq(t, `{"type": "settings"}`, string(m.data))

	m = s.nextMessage(t)
	assert.Equal(t, websocket.BinaryMessage, m.messageType)
	assert.Equal(t, []byte{1, 2, 3}, m.data)

	m = s.nextMessage(t)
	assert.Equal(t, websocket.TextMessage, m.messageType)
	assert.JSONEq(t, `{"type": "stop"}`, string(m.data))
}

func TestTransportReadMessage(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(map[string]string{"type": "welcome"})
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{7, 8})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	tr, err := dialTransport(t.Context(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer tr.Close()

	mt, data, err := tr.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)

	var frame map[string]string
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "welcome", frame["type"])

	mt, data, err = tr.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)
	assert.Equal(t, []byte{7, 8}, data)
}

func TestTransportDialHandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := dialTransport(t.Context(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}

func TestTransportSendAfterClose(t *testing.T) {
	s := newTransportTestServer(t)

	tr, err := dialTransport(t.Context(), s.url(), nil)
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	assert.True(t, tr.Closed())
	assert.ErrorContains(t, tr.SendControl(map[string]string{"type": "late"}), "closed transport")
	assert.ErrorContains(t, tr.SendAudio([]byte{1}), "closed transport")
}

func TestTransportCloseIsIdempotent(t *testing.T) {
	s := newTransportTestServer(t)

	tr, err := dialTransport(t.Context(), s.url(), nil)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	select {
	case err := <-s.closes:
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
			"server should observe a normal closure, got: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for the server-side close")
	}
}

func TestTransportCloseDrainsQueuedFrames(t *testing.T) {
	s := newTransportTestServer(t)

	tr, err := dialTransport(t.Context(), s.url(), nil)
	require.NoError(t, err)

	require.NoError(t, tr.SendControl(map[string]string{"type": "goodbye"}))
	require.NoError(t, tr.Close())

	m := s.nextMessage(t)
	assert.JSONEq(t, `{"type": "goodbye"}`, string(m.data))
}
