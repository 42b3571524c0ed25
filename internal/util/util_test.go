/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type hostBuffer []byte

func (b hostBuffer) HostWrite(offset uintptr, data []byte) {
	copy(b[offset:], data)
}

func (b hostBuffer) HostRead(offset uintptr, data []byte) {
	copy(data, b[offset:])
}

type vertex struct {
	X, Y  float32
	Color uint32
}

func TestHostReadWrite(t *testing.T) {
	b := make(hostBuffer, 64)

	assert.Equal(t, uintptr(12), HostWrite(b, 4, vertex{X: 1, Y: 2, Color: 0xFF00FF00}))
	assert.Equal(t, vertex{X: 1, Y: 2, Color: 0xFF00FF00}, HostRead[vertex](b, 4))
	assert.Equal(t, []byte{0, 0, 0, 0}, []byte(b[:4]))

	in := []uint32{1, 2, 3}
	assert.Equal(t, uintptr(12), HostWriteSlice(b, 32, in))
	out := make([]uint32, 3)
	assert.Equal(t, uintptr(12), HostReadSlice(b, 32, out))
	assert.Equal(t, in, out)

	assert.Zero(t, HostWriteSlice[uint32](b, 0, nil))
	assert.Zero(t, HostReadSlice(b, 0, []uint32{}))
}

func TestNoCopy(t *testing.T) {
	type owner struct {
		noCopy NoCopy
	}

	o := &owner{}
	assert.False(t, o.noCopy.Alive())
	assert.PanicsWithValue(t, "Fatal Error", func() { o.noCopy.Check() }, "zero value")
	o.noCopy.Init()
	assert.True(t, o.noCopy.Alive())
	assert.NotPanics(t, func() { o.noCopy.Check() })
	assert.PanicsWithValue(t, "Fatal Error", func() { o.noCopy.Init() }, "double init")

	copied := &owner{}
	copied.noCopy.addr = o.noCopy.addr
	assert.PanicsWithValue(t, "Fatal Error", func() { copied.noCopy.Check() }, "copy by value")

	o.noCopy.Close()
	assert.False(t, o.noCopy.Alive())
	assert.PanicsWithValue(t, "Fatal Error", func() { o.noCopy.Check() }, "use after close")
}
