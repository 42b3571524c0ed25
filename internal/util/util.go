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
	"unsafe"

	"goarrg.com/debug"
)

var logger = debug.NewLogger("xrhi", "internal", "util")

func abort(fmt string, args ...any) {
	logger.EPrintf(fmt, args...)
	panic("Fatal Error")
}

type HostWriter interface {
	HostWrite(offset uintptr, data []byte)
}

type HostReader interface {
	HostRead(offset uintptr, data []byte)
}

// HostWrite copies the bytes of data into target at offset and returns the size written.
func HostWrite[T comparable](target HostWriter, offset uintptr, data T) uintptr {
	target.HostWrite(offset,
		unsafe.Slice((*byte)(unsafe.Pointer(&data)), unsafe.Sizeof(data)),
	)
	return unsafe.Sizeof(data)
}

func HostWriteSlice[T comparable](target HostWriter, offset uintptr, data []T) uintptr {
	if len(data) == 0 {
		return 0
	}
	size := unsafe.Sizeof(data[0]) * uintptr(len(data))
	target.HostWrite(offset, unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), size))
	return size
}

// HostRead fills a T from target at offset.
func HostRead[T comparable](target HostReader, offset uintptr) T {
	var ret T
	target.HostRead(offset, unsafe.Slice((*byte)(unsafe.Pointer(&ret)), unsafe.Sizeof(ret)))
	return ret
}

func HostReadSlice[T comparable](target HostReader, offset uintptr, data []T) uintptr {
	if len(data) == 0 {
		return 0
	}
	size := unsafe.Sizeof(data[0]) * uintptr(len(data))
	target.HostRead(offset, unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), size))
	return size
}
