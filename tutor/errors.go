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
	"errors"
	"fmt"
)

// SetupError is returned when a session cannot be prepared at all, e.g.
// missing credentials or an audio line that fails to open. It implies no
// session state was left behind.
type SetupError error

func NewSetupError(message string) SetupError {
	return SetupError(errors.New(message))
}

func SetupErrorf(format string, a ...any) SetupError {
	return SetupError(fmt.Errorf(format, a...))
}

// StateError is returned when an operation conflicts with the current
// engine lifecycle state, e.g. starting a session while one is active.
type StateError error

func NewStateError(message string) StateError {
	return StateError(errors.New(message))
}

func StateErrorf(format string, a ...any) StateError {
	return StateError(fmt.Errorf(format, a...))
}

// ConnectionError is returned when the provider connection cannot be
// established or is lost and cannot be recovered.
type ConnectionError error

func NewConnectionError(message string) ConnectionError {
	return ConnectionError(errors.New(message))
}

func ConnectionErrorf(format string, a ...any) ConnectionError {
	return ConnectionError(fmt.Errorf(format, a...))
}

// SendError is returned when a frame cannot be handed to the transport,
// typically because the connection is already closed.
type SendError error

func NewSendError(message string) SendError {
	return SendError(errors.New(message))
}

func SendErrorf(format string, a ...any) SendError {
	return SendError(fmt.Errorf(format, a...))
}

// ProtocolError is returned when the remote side violates the wire
// protocol, e.g. a settings frame that cannot be built or acknowledged.
type ProtocolError error

func NewProtocolError(message string) ProtocolError {
	return ProtocolError(errors.New(message))
}

func ProtocolErrorf(format string, a ...any) ProtocolError {
	return ProtocolError(fmt.Errorf(format, a...))
}
