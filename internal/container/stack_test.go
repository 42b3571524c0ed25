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

package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	s := Stack[int]{}
	assert.True(t, s.Empty())
	_, ok := s.Peek()
	assert.False(t, ok)

	for i := range 4 {
		s.Push(i)
	}
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int{0, 1, 2, 3}, s.Data())

	top, ok := s.Peek()
	assert.True(t, ok)
	assert.Equal(t, 3, top)
	assert.Equal(t, 3, s.Pop())
	assert.Equal(t, 2, s.Pop())
	assert.Equal(t, 2, s.Len())

	data := s.Data()
	data[0] = 42
	assert.Equal(t, []int{0, 1}, s.Data(), "Data returns a copy")

	s.Clear()
	assert.True(t, s.Empty())
	assert.Panics(t, func() { s.Pop() })
}

func TestStackPopClearsSlot(t *testing.T) {
	s := Stack[*int]{}
	v := 1
	s.Push(&v)
	s.Pop()
	assert.Nil(t, s.data[:1][0], "popped slots must not keep pointers alive")
}
