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
	"encoding/binary"
	"math"
)

type Data interface {
	Len() int
	Bytes() []byte
	Int16() DataInt16
	Int() []int
}

type DataInt16 []int16

func (d DataInt16) Len() int { return len(d) }

func (d DataInt16) Bytes() []byte {
	b := make([]byte, len(d)*2)
	for i, v := range d {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

func (d DataInt16) Int16() DataInt16 { return d }

func (d DataInt16) Int() []int {
	result := make([]int, len(d))
	for i, v := range d {
		result[i] = int(v)
	}
	return result
}

type DataFloat32 []float32

func (d DataFloat32) Len() int { return len(d) }

func (d DataFloat32) Bytes() []byte {
	b := make([]byte, 4*len(d))
	for i, v := range d {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func (d DataFloat32) Int16() DataInt16 {
	result := make(DataInt16, len(d))
	for i, v := range d {
		result[i] = int16(min(1, max(-1, v)) * 32767)
	}
	return result
}

func (d DataFloat32) Int() []int {
	result := make([]int, len(d))
	for i, v := range d {
		result[i] = int(min(1, max(-1, v)) * 32767)
	}
	return result
}

// Int16FromBytes reinterprets little-endian 16-bit PCM bytes as samples.
// A trailing odd byte is dropped.
func Int16FromBytes(b []byte) DataInt16 {
	d := make(DataInt16, len(b)/2)
	for i := range d {
		d[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return d
}
